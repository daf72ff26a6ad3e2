package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"thrift/models"
)

type itemRepoStub struct {
	createFn        func(ctx context.Context, item *models.Item) error
	getByIDFn       func(ctx context.Context, id uint) (*models.Item, error)
	listAllFn       func(ctx context.Context) ([]models.Item, error)
	listAvailableFn func(ctx context.Context) ([]models.Item, error)
	listBySellerFn  func(ctx context.Context, sellerID uint) ([]models.Item, error)
	updateStatusFn  func(ctx context.Context, id uint, status models.ItemStatus) error
}

func (s *itemRepoStub) Create(ctx context.Context, item *models.Item) error {
	return s.createFn(ctx, item)
}
func (s *itemRepoStub) GetByID(ctx context.Context, id uint) (*models.Item, error) {
	return s.getByIDFn(ctx, id)
}
func (s *itemRepoStub) ListAll(ctx context.Context) ([]models.Item, error) {
	return s.listAllFn(ctx)
}
func (s *itemRepoStub) ListAvailable(ctx context.Context) ([]models.Item, error) {
	return s.listAvailableFn(ctx)
}
func (s *itemRepoStub) ListBySeller(ctx context.Context, sellerID uint) ([]models.Item, error) {
	return s.listBySellerFn(ctx, sellerID)
}
func (s *itemRepoStub) UpdateStatus(ctx context.Context, id uint, status models.ItemStatus) error {
	return s.updateStatusFn(ctx, id, status)
}

func noopItemRepo() *itemRepoStub {
	return &itemRepoStub{
		createFn: func(_ context.Context, item *models.Item) error {
			item.ID = 100
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Item, error) {
			return nil, models.NewNotFoundError("Item", id)
		},
		listAllFn:       func(context.Context) ([]models.Item, error) { return nil, nil },
		listAvailableFn: func(context.Context) ([]models.Item, error) { return nil, nil },
		listBySellerFn:  func(context.Context, uint) ([]models.Item, error) { return nil, nil },
		updateStatusFn:  func(context.Context, uint, models.ItemStatus) error { return nil },
	}
}

type userRepoStub struct {
	getByIDFn func(ctx context.Context, id uint) (*models.User, error)
	createFn  func(ctx context.Context, user *models.User) error
	updateFn  func(ctx context.Context, user *models.User) error
	listFn    func(ctx context.Context, limit, offset int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Name: "user"}, nil
		},
		createFn: func(context.Context, *models.User) error { return nil },
		updateFn: func(context.Context, *models.User) error { return nil },
		listFn:   func(context.Context, int, int) ([]models.User, error) { return nil, nil },
	}
}

type chatRepoStub struct {
	getThreadFn    func(ctx context.Context, itemID, buyerID uint) (*models.ChatThread, error)
	findOrCreateFn func(ctx context.Context, itemID, buyerID, sellerID uint) (*models.ChatThread, error)
	appendFn       func(ctx context.Context, thread *models.ChatThread, msg *models.ChatMessage) error
	inboxFn        func(ctx context.Context, userID uint) ([]models.InboxEntry, error)
}

func (s *chatRepoStub) GetThread(ctx context.Context, itemID, buyerID uint) (*models.ChatThread, error) {
	return s.getThreadFn(ctx, itemID, buyerID)
}
func (s *chatRepoStub) FindOrCreateThread(ctx context.Context, itemID, buyerID, sellerID uint) (*models.ChatThread, error) {
	return s.findOrCreateFn(ctx, itemID, buyerID, sellerID)
}
func (s *chatRepoStub) AppendMessage(ctx context.Context, thread *models.ChatThread, msg *models.ChatMessage) error {
	return s.appendFn(ctx, thread, msg)
}
func (s *chatRepoStub) ListInbox(ctx context.Context, userID uint) ([]models.InboxEntry, error) {
	return s.inboxFn(ctx, userID)
}

func assertAppError(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %T", err)
	require.Equal(t, status, models.StatusFor(err))
}
