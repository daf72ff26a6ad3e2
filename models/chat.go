package models

import "time"

// ChatThread is a conversation between a buyer and the seller about one item.
// Threads keep pointing at their item after it is sold.
type ChatThread struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	ItemID    uint          `gorm:"not null;uniqueIndex:idx_thread_item_buyer" json:"item_id"`
	Item      *Item         `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	BuyerID   uint          `gorm:"not null;uniqueIndex:idx_thread_item_buyer;index" json:"buyer_id"`
	SellerID  uint          `gorm:"not null;index" json:"seller_id"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Messages  []ChatMessage `gorm:"foreignKey:ThreadID" json:"messages,omitempty"`
}

// Participants returns the two user IDs in the thread.
func (t *ChatThread) Participants() []uint {
	return []uint{t.BuyerID, t.SellerID}
}

// HasParticipant reports whether userID belongs to the thread.
func (t *ChatThread) HasParticipant(userID uint) bool {
	return t.BuyerID == userID || t.SellerID == userID
}

// ChatMessage is a single message. IDs are ULIDs so they sort by creation time.
type ChatMessage struct {
	ID         string    `gorm:"primaryKey;size:26" json:"id"`
	ThreadID   uint      `gorm:"not null;index" json:"thread_id"`
	SenderID   uint      `gorm:"not null" json:"sender_id"`
	ReceiverID uint      `gorm:"not null" json:"receiver_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// InboxEntry is a thread summary as shown in the viewer's inbox.
type InboxEntry struct {
	Thread      ChatThread   `json:"thread"`
	Item        *Item        `json:"item,omitempty"`
	LastMessage *ChatMessage `json:"last_message,omitempty"`
}
