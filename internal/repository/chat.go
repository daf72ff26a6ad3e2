package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"thrift/internal/cache"
	"thrift/internal/observability"
	"thrift/models"
)

// ChatRepository defines the interface for chat data operations.
type ChatRepository interface {
	// GetThread returns the thread between buyerID and the seller of itemID.
	GetThread(ctx context.Context, itemID, buyerID uint) (*models.ChatThread, error)
	FindOrCreateThread(ctx context.Context, itemID, buyerID, sellerID uint) (*models.ChatThread, error)
	AppendMessage(ctx context.Context, thread *models.ChatThread, msg *models.ChatMessage) error
	// ListInbox returns the user's threads, most recently active first.
	ListInbox(ctx context.Context, userID uint) ([]models.InboxEntry, error)
}

type chatRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db, log: observability.NewRepoLogger("chat_threads")}
}

func (r *chatRepository) GetThread(ctx context.Context, itemID, buyerID uint) (*models.ChatThread, error) {
	defer observability.TrackQuery("get", "chat_threads")()

	var thread models.ChatThread
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Where("item_id = ? AND buyer_id = ?", itemID, buyerID).
		First(&thread).Error
	if err != nil {
		return nil, wrapLookupError(err, "ChatThread", itemID)
	}
	return &thread, nil
}

func (r *chatRepository) FindOrCreateThread(ctx context.Context, itemID, buyerID, sellerID uint) (*models.ChatThread, error) {
	defer observability.TrackQuery("find_or_create", "chat_threads")()

	var thread models.ChatThread
	err := r.db.WithContext(ctx).
		Where(models.ChatThread{ItemID: itemID, BuyerID: buyerID}).
		Attrs(models.ChatThread{SellerID: sellerID}).
		FirstOrCreate(&thread).Error
	if err != nil {
		r.log.LogError(ctx, err, "find_or_create")
		return nil, models.NewInternalError(err)
	}
	return &thread, nil
}

// AppendMessage stores msg and bumps the thread so it sorts first in both inboxes.
func (r *chatRepository) AppendMessage(ctx context.Context, thread *models.ChatThread, msg *models.ChatMessage) error {
	defer observability.TrackQuery("append", "chat_messages")()

	msg.ThreadID = thread.ID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.ChatThread{}).
			Where("id = ?", thread.ID).
			Update("updated_at", time.Now()).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "append")
		return models.NewInternalError(err)
	}
	cache.InvalidateInbox(ctx, thread.Participants()...)
	r.log.LogCreate(ctx, map[string]interface{}{"thread_id": thread.ID, "message_id": msg.ID})
	return nil
}

func (r *chatRepository) ListInbox(ctx context.Context, userID uint) ([]models.InboxEntry, error) {
	var entries []models.InboxEntry
	err := cache.Aside(ctx, cache.InboxKey(userID), &entries, cache.InboxTTL, func() error {
		var err error
		entries, err = r.loadInbox(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *chatRepository) loadInbox(ctx context.Context, userID uint) ([]models.InboxEntry, error) {
	defer observability.TrackQuery("inbox", "chat_threads")()

	var threads []models.ChatThread
	if err := r.db.WithContext(ctx).
		Preload("Item").
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("updated_at DESC, id DESC").
		Find(&threads).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(threads) == 0 {
		return []models.InboxEntry{}, nil
	}

	ids := make([]uint, len(threads))
	for i := range threads {
		ids[i] = threads[i].ID
	}
	// Message IDs are ULIDs, so descending ID order is newest first.
	var msgs []models.ChatMessage
	if err := r.db.WithContext(ctx).
		Where("thread_id IN ?", ids).
		Order("id DESC").
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	last := make(map[uint]*models.ChatMessage, len(threads))
	for i := range msgs {
		if _, ok := last[msgs[i].ThreadID]; !ok {
			last[msgs[i].ThreadID] = &msgs[i]
		}
	}

	entries := make([]models.InboxEntry, 0, len(threads))
	for _, t := range threads {
		item := t.Item
		t.Item = nil
		entries = append(entries, models.InboxEntry{Thread: t, Item: item, LastMessage: last[t.ID]})
	}
	return entries, nil
}
