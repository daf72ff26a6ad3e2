package marketplace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"thrift/internal/wishlist"
	"thrift/models"
)

// CatalogSource loads the full catalog, sold items included.
type CatalogSource interface {
	ListAll(ctx context.Context) ([]models.Item, error)
}

// ViewerSource loads viewer profiles.
type ViewerSource interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	Catalog            CatalogSource
	Viewers            ViewerSource
	Recommender        Recommender
	WishlistStore      wishlist.Store
	WishlistNamespace  string
	DefaultMaxDistance float64
	// Gate decides per viewer whether recommendations run. Nil allows everyone.
	Gate     func(viewerID uint) bool
	OnChange func(State)
	Logger   *slog.Logger
}

// Registry owns one Controller per active viewer and fans catalog changes out to them.
type Registry struct {
	cfg RegistryConfig

	// reloadMu serializes CatalogChanged so snapshots apply in load order.
	reloadMu sync.Mutex

	mu          sync.Mutex
	controllers map[uint]*Controller
	catalog     []models.Item
	loaded      bool
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.WishlistNamespace == "" {
		cfg.WishlistNamespace = wishlist.DefaultNamespace
	}
	return &Registry{cfg: cfg, controllers: make(map[uint]*Controller)}
}

// Open returns the viewer's controller, creating it on first use. Creation
// reads the viewer profile, the catalog snapshot and the persisted wishlist.
func (r *Registry) Open(ctx context.Context, viewerID uint) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.controllers[viewerID]; ok && !c.Closed() {
		return c, nil
	}

	viewer, err := r.cfg.Viewers.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if !r.loaded {
		items, err := r.cfg.Catalog.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		r.catalog = items
		r.loaded = true
	}

	wl := wishlist.Load(ctx, r.cfg.WishlistStore, wishlist.Key(r.cfg.WishlistNamespace, viewerID), r.cfg.Logger)
	c := New(Options{
		Viewer:             *viewer,
		Catalog:            r.catalog,
		Wishlist:           wl,
		Recommender:        r.recommenderFor(viewerID),
		DefaultMaxDistance: r.cfg.DefaultMaxDistance,
		OnChange:           r.cfg.OnChange,
		Logger:             r.cfg.Logger,
	})
	r.controllers[viewerID] = c
	return c, nil
}

// Lookup returns the viewer's controller if one is open.
func (r *Registry) Lookup(viewerID uint) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.controllers[viewerID]
	if !ok || c.Closed() {
		return nil, false
	}
	return c, true
}

// CatalogChanged reloads the catalog and pushes it to every open controller,
// which refreshes their recommendations.
func (r *Registry) CatalogChanged(ctx context.Context) error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	items, err := r.cfg.Catalog.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload catalog: %w", err)
	}

	r.mu.Lock()
	r.catalog = items
	r.loaded = true
	open := make([]*Controller, 0, len(r.controllers))
	for _, c := range r.controllers {
		open = append(open, c)
	}
	r.mu.Unlock()

	for _, c := range open {
		c.SetCatalog(items)
	}
	r.cfg.Logger.InfoContext(ctx, "catalog change applied",
		slog.Int("items", len(items)),
		slog.Int("viewers", len(open)),
	)
	return nil
}

// ViewerChanged pushes an updated profile to the viewer's controller, if open.
func (r *Registry) ViewerChanged(u models.User) {
	if c, ok := r.Lookup(u.ID); ok {
		c.SetViewer(u)
	}
}

// Close tears down the viewer's controller.
func (r *Registry) Close(viewerID uint) {
	r.mu.Lock()
	c, ok := r.controllers[viewerID]
	delete(r.controllers, viewerID)
	r.mu.Unlock()
	if ok {
		c.Close()
	}
}

// CloseAll tears down every controller.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	open := r.controllers
	r.controllers = make(map[uint]*Controller)
	r.mu.Unlock()
	for _, c := range open {
		c.Close()
	}
}

// Len returns the number of open controllers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}

func (r *Registry) recommenderFor(viewerID uint) Recommender {
	if r.cfg.Recommender == nil {
		return nil
	}
	if r.cfg.Gate == nil {
		return r.cfg.Recommender
	}
	return gatedRecommender{next: r.cfg.Recommender, allow: func() bool { return r.cfg.Gate(viewerID) }}
}

type gatedRecommender struct {
	next  Recommender
	allow func() bool
}

func (g gatedRecommender) Recommend(ctx context.Context, interests string, items []models.Item) []models.Item {
	if !g.allow() {
		return []models.Item{}
	}
	return g.next.Recommend(ctx, interests, items)
}
