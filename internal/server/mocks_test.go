package server

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"

	"thrift/internal/geo"
	"thrift/internal/marketplace"
	"thrift/internal/middleware"
	"thrift/internal/wishlist"
	"thrift/models"
)

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.User), args.Error(1)
}

// MockItemRepository is a mock of the ItemRepository interface
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) Create(ctx context.Context, item *models.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) GetByID(ctx context.Context, id uint) (*models.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *MockItemRepository) ListAll(ctx context.Context) ([]models.Item, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Item), args.Error(1)
}

func (m *MockItemRepository) ListAvailable(ctx context.Context) ([]models.Item, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Item), args.Error(1)
}

func (m *MockItemRepository) ListBySeller(ctx context.Context, sellerID uint) ([]models.Item, error) {
	args := m.Called(ctx, sellerID)
	return args.Get(0).([]models.Item), args.Error(1)
}

func (m *MockItemRepository) UpdateStatus(ctx context.Context, id uint, status models.ItemStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockChatRepository is a mock of the ChatRepository interface
type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) GetThread(ctx context.Context, itemID, buyerID uint) (*models.ChatThread, error) {
	args := m.Called(ctx, itemID, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatThread), args.Error(1)
}

func (m *MockChatRepository) FindOrCreateThread(ctx context.Context, itemID, buyerID, sellerID uint) (*models.ChatThread, error) {
	args := m.Called(ctx, itemID, buyerID, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatThread), args.Error(1)
}

func (m *MockChatRepository) AppendMessage(ctx context.Context, thread *models.ChatThread, msg *models.ChatMessage) error {
	args := m.Called(ctx, thread, msg)
	return args.Error(0)
}

func (m *MockChatRepository) ListInbox(ctx context.Context, userID uint) ([]models.InboxEntry, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.InboxEntry), args.Error(1)
}

var campus = geo.Point{Lat: 29.7174, Lng: -95.4018}

// testServer wires mocks behind a real registry with an in-memory wishlist.
type testServer struct {
	*Server
	users *MockUserRepository
	items *MockItemRepository
	chats *MockChatRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	users := new(MockUserRepository)
	items := new(MockItemRepository)
	chats := new(MockChatRepository)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := &Server{
		userRepo: users,
		itemRepo: items,
		chatRepo: chats,
		logger:   logger,
		registry: marketplace.NewRegistry(marketplace.RegistryConfig{
			Catalog:       items,
			Viewers:       users,
			WishlistStore: wishlist.NewMemoryStore(),
			Logger:        logger,
		}),
	}
	t.Cleanup(s.registry.CloseAll)
	return &testServer{Server: s, users: users, items: items, chats: chats}
}

// app returns a Fiber app resolving the viewer like production does.
func (ts *testServer) app() *fiber.App {
	app := fiber.New()
	app.Use(middleware.Viewer(1))
	return app
}

func demoUsers() []*models.User {
	return []*models.User{
		{ID: 1, Name: "Sammy", College: models.Wiess, Interests: "vintage clothes", Location: campus},
		{ID: 2, Name: "Avery", College: models.Baker, Location: campus},
	}
}

func demoItems() []models.Item {
	return []models.Item{
		{ID: 1, SellerID: 2, Name: "Vintage Rice Sweatshirt", Price: 25, College: models.Baker, Location: campus, Status: models.StatusAvailable},
		{ID: 2, SellerID: 2, Name: "Nike Running Shoes", Price: 50, College: models.McMurtry, Location: campus, Status: models.StatusAvailable},
		{ID: 3, SellerID: 1, Name: "North Face Backpack", Price: 40, College: models.Wiess, Location: campus, Status: models.StatusSold},
	}
}

// withCatalog registers the demo users and items on the mocks.
func (ts *testServer) withCatalog() *testServer {
	for _, u := range demoUsers() {
		ts.users.On("GetByID", mock.Anything, u.ID).Return(u, nil)
	}
	items := demoItems()
	ts.items.On("ListAll", mock.Anything).Return(items, nil)
	for i := range items {
		it := items[i]
		ts.items.On("GetByID", mock.Anything, it.ID).Return(&it, nil)
	}
	return ts
}
