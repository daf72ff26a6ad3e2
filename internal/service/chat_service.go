package service

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"

	"thrift/internal/repository"
	"thrift/models"
)

const maxMessageLen = 2000

type ChatService struct {
	chats repository.ChatRepository
	items repository.ItemRepository
	newID func() string

	onMessage func(models.ChatMessage)
}

// SendMessageInput is one message about an item.
type SendMessageInput struct {
	SenderID   uint
	ItemID     uint
	ReceiverID uint
	Text       string
}

func NewChatService(chats repository.ChatRepository, items repository.ItemRepository) *ChatService {
	return &ChatService{
		chats: chats,
		items: items,
		newID: func() string { return ulid.Make().String() },
	}
}

// OnMessage registers fn to run after a message is stored.
func (s *ChatService) OnMessage(fn func(models.ChatMessage)) {
	s.onMessage = fn
}

// Thread returns the viewer's conversation about itemID. A seller has one
// thread per buyer and must name the buyer with counterpartID.
func (s *ChatService) Thread(ctx context.Context, viewerID, itemID, counterpartID uint) (*models.ChatThread, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	buyerID := viewerID
	if viewerID == item.SellerID {
		if counterpartID == 0 || counterpartID == viewerID {
			return nil, models.NewValidationError("Sellers must specify which buyer's thread to open")
		}
		buyerID = counterpartID
	}
	return s.chats.GetThread(ctx, itemID, buyerID)
}

// Send stores a message, creating the thread on the first one. One side of
// every thread is the item's seller, and nobody can message themselves.
func (s *ChatService) Send(ctx context.Context, in SendMessageInput) (*models.ChatMessage, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Message text is required")
	}
	if len(text) > maxMessageLen {
		return nil, models.NewValidationError("Message too long (max 2000 characters)")
	}
	if in.SenderID == in.ReceiverID {
		return nil, models.NewValidationError("You cannot message yourself")
	}

	item, err := s.items.GetByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}

	var buyerID uint
	switch item.SellerID {
	case in.SenderID:
		buyerID = in.ReceiverID
	case in.ReceiverID:
		buyerID = in.SenderID
	default:
		return nil, models.NewForbiddenError("Messages about an item must involve its seller")
	}
	if buyerID == 0 {
		return nil, models.NewValidationError("Receiver is required")
	}

	thread, err := s.chats.FindOrCreateThread(ctx, item.ID, buyerID, item.SellerID)
	if err != nil {
		return nil, err
	}
	msg := &models.ChatMessage{
		ID:         s.newID(),
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Text:       text,
	}
	if err := s.chats.AppendMessage(ctx, thread, msg); err != nil {
		return nil, err
	}
	if s.onMessage != nil {
		s.onMessage(*msg)
	}
	return msg, nil
}

// Inbox lists the user's threads, newest activity first.
func (s *ChatService) Inbox(ctx context.Context, userID uint) ([]models.InboxEntry, error) {
	return s.chats.ListInbox(ctx, userID)
}
