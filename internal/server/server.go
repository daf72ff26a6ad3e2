// Package server contains HTTP and WebSocket handlers for the marketplace API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	_ "thrift/docs" // swagger docs
	"thrift/internal/cache"
	"thrift/internal/config"
	"thrift/internal/database"
	"thrift/internal/featureflags"
	"thrift/internal/marketplace"
	"thrift/internal/middleware"
	"thrift/internal/notifications"
	"thrift/internal/oracle"
	"thrift/internal/recommend"
	"thrift/internal/repository"
	"thrift/internal/service"
	"thrift/internal/wishlist"
	"thrift/models"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	logger         *slog.Logger

	userRepo repository.UserRepository
	itemRepo repository.ItemRepository
	chatRepo repository.ChatRepository

	itemService *service.ItemService
	userService *service.UserService
	chatService *service.ChatService

	reconciler   *recommend.Reconciler
	registry     *marketplace.Registry
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	featureFlags *featureflags.Manager

	// Set once the Redis subscribers run; until then events apply locally.
	catalogSubscribed atomic.Bool
	viewerSubscribed  atomic.Bool
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	redisClient := cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and optionally
// performs explicit seeding. redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	store, err := newWishlistStore(cfg, db, redisClient)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("thrift-api"),
		logger:         middleware.Logger,
		userRepo:       repository.NewUserRepository(db),
		itemRepo:       repository.NewItemRepository(db),
		chatRepo:       repository.NewChatRepository(db),
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}
	s.itemService = service.NewItemService(s.itemRepo, s.userRepo)
	s.userService = service.NewUserService(s.userRepo, s.itemRepo)
	s.chatService = service.NewChatService(s.chatRepo, s.itemRepo)

	ranker := oracle.NewGeminiRanker(oracle.GeminiConfig{
		APIKey:        cfg.GeminiAPIKey,
		BaseURL:       cfg.GeminiBaseURL,
		Model:         cfg.GeminiModel,
		RatePerMinute: cfg.OracleRatePerMinute,
		Logger:        s.logger,
	})
	s.reconciler = recommend.NewReconciler(ranker, time.Duration(cfg.OracleTimeoutSeconds)*time.Second, s.logger)

	s.registry = marketplace.NewRegistry(marketplace.RegistryConfig{
		Catalog:            s.itemService,
		Viewers:            s.userRepo,
		Recommender:        s.reconciler,
		WishlistStore:      store,
		WishlistNamespace:  cfg.WishlistNamespace,
		DefaultMaxDistance: cfg.DefaultMaxDistanceMiles,
		Gate:               s.featureFlags.Gate(featureflags.Recommendations),
		OnChange:           s.pushState,
		Logger:             s.logger,
	})

	s.wireEvents()
	return s, nil
}

// newWishlistStore picks the wishlist backend named by WISHLIST_STORE.
func newWishlistStore(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (wishlist.Store, error) {
	switch cfg.WishlistStore {
	case "redis":
		if rdb == nil {
			middleware.Logger.Warn("WISHLIST_STORE=redis but Redis is unavailable, using the database")
			return wishlist.NewGormStore(db), nil
		}
		return wishlist.NewRedisStore(rdb), nil
	case "file":
		return wishlist.NewFileStore(cfg.WishlistFile)
	case "db":
		return wishlist.NewGormStore(db), nil
	default:
		return wishlist.NewMemoryStore(), nil
	}
}

// wireEvents connects service hooks to the registry and the websocket hub.
func (s *Server) wireEvents() {
	s.itemService.OnCatalogChange(func(ctx context.Context) {
		if s.catalogSubscribed.Load() {
			if err := s.notifier.PublishCatalogChanged(ctx, "items"); err == nil {
				return
			}
		}
		s.applyCatalogChange(context.WithoutCancel(ctx), "items")
	})
	s.userService.OnProfileChange(s.registry.ViewerChanged)
	s.chatService.OnMessage(func(msg models.ChatMessage) {
		payload, err := notifications.Encode(notifications.EventChatMessage, msg)
		if err != nil {
			return
		}
		s.deliver(msg.ReceiverID, payload)
		s.deliver(msg.SenderID, payload)
	})
	s.hub.OnLastDisconnect(s.registry.Close)
}

// applyCatalogChange reloads every open controller and tells connected
// clients that the catalog moved.
func (s *Server) applyCatalogChange(ctx context.Context, reason string) {
	if err := s.registry.CatalogChanged(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to apply catalog change",
			slog.String("reason", reason), slog.String("error", err.Error()))
		return
	}
	if payload, err := notifications.Encode(notifications.EventCatalog, fiber.Map{"reason": reason}); err == nil {
		s.hub.BroadcastAll(payload)
	}
}

// pushState sends a controller snapshot to the viewer's open sockets.
func (s *Server) pushState(st marketplace.State) {
	if !s.featureFlags.Enabled(featureflags.LivePush, st.ViewerID) {
		return
	}
	payload, err := notifications.Encode(notifications.EventState, st)
	if err != nil {
		s.logger.Error("failed to encode state", slog.String("error", err.Error()))
		return
	}
	s.hub.Broadcast(st.ViewerID, payload)
}

// deliver routes a payload to a viewer through Redis when available so that
// every instance holding one of their sockets receives it.
func (s *Server) deliver(viewerID uint, payload []byte) {
	if s.viewerSubscribed.Load() {
		if err := s.notifier.PublishViewer(context.Background(), viewerID, payload); err == nil {
			return
		}
	}
	s.hub.Broadcast(viewerID, payload)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Viewer selection must precede the context middleware so logs carry it.
	app.Use(middleware.Viewer(s.config.DefaultViewerID))

	// Context Middleware to propagate Request ID and Viewer ID
	app.Use(middleware.ContextMiddleware())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, " + middleware.ViewerHeader + ", Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Thrift Backend Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	api.Get("/colleges", s.GetColleges)

	// Define specific /:id/:resource routes BEFORE generic /:id route
	items := api.Group("/items")
	items.Get("/", s.GetItems)
	items.Post("/", middleware.RateLimit(s.redis, 10, 10*time.Minute, "create_item"), s.CreateItem)
	items.Put("/:id/status", s.UpdateItemStatus)
	items.Get("/:id", s.GetItem)

	market := api.Group("/marketplace")
	market.Get("/", s.GetMarketplace)
	market.Put("/filters", s.UpdateFilters)

	recs := api.Group("/recommendations")
	recs.Get("/", s.GetRecommendations)
	recs.Post("/refresh", middleware.RateLimit(s.redis, 5, time.Minute, "recommendations_refresh"), s.RefreshRecommendations)

	wl := api.Group("/wishlist")
	wl.Get("/", s.GetWishlist)
	wl.Post("/:id/toggle", s.ToggleWishlist)

	api.Get("/profile", s.GetMyProfile)
	api.Put("/profile", s.UpdateMyProfile)
	api.Get("/users/:id", s.GetUserProfile)

	chats := api.Group("/chats")
	chats.Get("/", s.GetInbox)
	chats.Post("/:itemId/messages", middleware.RateLimit(s.redis, 30, time.Minute, "send_chat"), s.SendMessage)
	chats.Get("/:itemId", s.GetThread)

	api.Get("/ws/marketplace", s.MarketplaceWebSocket())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: its
// absence is reported but does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	oracleStatus := "disabled"
	if s.reconciler != nil && s.reconciler.Enabled() {
		oracleStatus = "enabled"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"oracle":   oracleStatus,
		},
		"time": time.Now(),
	})
}

// App builds the Fiber app with middleware and routes. Start uses it; tests
// can drive it with app.Test.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName: "Thrift Marketplace API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			s.logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start wires the Redis subscribers and listens on the configured port.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	s.startSubscribers(ctx)

	s.logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// startSubscribers attaches the hub and the registry to Redis pub/sub. Each
// flag is set only once its subscription is confirmed.
func (s *Server) startSubscribers(ctx context.Context) {
	if !s.notifier.Enabled() {
		return
	}
	if err := s.hub.StartWiring(ctx, s.notifier); err != nil {
		s.logger.Error("failed to start hub wiring", slog.String("error", err.Error()))
	} else {
		s.viewerSubscribed.Store(true)
	}
	if err := s.notifier.StartCatalogSubscriber(ctx, func(reason string) {
		s.applyCatalogChange(ctx, reason)
	}); err != nil {
		s.logger.Error("failed to start catalog subscriber", slog.String("error", err.Error()))
	} else {
		s.catalogSubscribed.Store(true)
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}
	s.catalogSubscribed.Store(false)
	s.viewerSubscribed.Store(false)

	if err := s.hub.Shutdown(ctx); err != nil {
		s.logger.Error("hub shutdown failed", slog.String("error", err.Error()))
	}
	s.registry.CloseAll()

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("fiber shutdown: %w", err)
		}
	}

	if s.redis != nil {
		_ = s.redis.Close()
	}
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
