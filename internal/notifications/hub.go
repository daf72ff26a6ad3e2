// Package notifications pushes marketplace state and chat messages to
// connected websocket clients, fanning out across instances through Redis.
package notifications

import (
	"context"
	"errors"
	"sync"

	"github.com/gofiber/websocket/v2"

	"thrift/internal/observability"
)

const (
	maxConnsPerViewer = 8
	maxTotalConns     = 10000
)

var (
	errBufferFull      = errors.New("send buffer full, dropped message")
	errServerConnLimit = errors.New("server connection limit reached")
	errViewerConnLimit = errors.New("viewer connection limit reached")
	errHubShutdown     = errors.New("hub is shutting down")
	resyncNotice       = []byte(`{"type":"resync","payload":{"reason":"buffer_full"}}`)
)

// Hub maps viewerID to that viewer's open connections.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
	log        *observability.WSLogger

	// onLastDisconnect runs when a viewer's final connection goes away.
	onLastDisconnect func(viewerID uint)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	h := &Hub{conns: make(map[uint]map[*Client]struct{})}
	h.log = observability.NewWSLogger(h.Name())
	return h
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "marketplace hub" }

// OnLastDisconnect registers fn to run after a viewer's last connection closes.
func (h *Hub) OnLastDisconnect(fn func(viewerID uint)) {
	h.mu.Lock()
	h.onLastDisconnect = fn
	h.mu.Unlock()
}

// Register adds a connection for viewerID, enforcing per-viewer and global limits.
func (h *Hub) Register(viewerID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, errHubShutdown
	}
	if h.totalConns >= maxTotalConns {
		return nil, errServerConnLimit
	}
	m, ok := h.conns[viewerID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[viewerID] = m
	}
	if len(m) >= maxConnsPerViewer {
		return nil, errViewerConnLimit
	}

	client := NewClient(h, conn, viewerID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()
	h.log.LogConnect(context.Background(), viewerID)
	return client, nil
}

// UnregisterClient removes client. Calling it twice is harmless.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	removed, last := false, false
	if m, ok := h.conns[client.ViewerID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			close(client.Send)
			h.totalConns--
			removed = true
		}
		if len(m) == 0 {
			delete(h.conns, client.ViewerID)
			last = removed
		}
	}
	cb := h.onLastDisconnect
	h.mu.Unlock()

	if !removed {
		return
	}
	observability.WebSocketConnectionsTotal.Dec()
	h.log.LogDisconnect(context.Background(), client.ViewerID, "closed")
	if last && cb != nil {
		cb(client.ViewerID)
	}
}

// Broadcast sends message to every connection of viewerID.
func (h *Hub) Broadcast(viewerID uint, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[viewerID] {
		c.TrySend(message)
	}
}

// BroadcastAll sends message to every connected client.
func (h *Hub) BroadcastAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(message)
		}
	}
}

// Connected reports how many connections viewerID has open.
func (h *Hub) Connected(viewerID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[viewerID])
}

// Shutdown sends a close frame to every client and drops them.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	for viewerID, clients := range h.conns {
		for client := range clients {
			if client.Conn != nil {
				if err := client.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
					h.log.LogError(context.Background(), viewerID, err, "shutdown")
				}
				_ = client.Conn.Close()
			}
			close(client.Send)
			observability.WebSocketConnectionsTotal.Dec()
		}
		delete(h.conns, viewerID)
	}
	h.totalConns = 0
	return nil
}
