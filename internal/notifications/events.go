package notifications

import "encoding/json"

// Event types pushed to websocket clients.
const (
	EventState       = "state"
	EventChatMessage = "chat_message"
	EventCatalog     = "catalog_changed"
	EventError       = "error"
)

// Event is the envelope every websocket frame uses.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Encode marshals an event envelope.
func Encode(eventType string, payload any) ([]byte, error) {
	return json.Marshal(Event{Type: eventType, Payload: payload})
}
