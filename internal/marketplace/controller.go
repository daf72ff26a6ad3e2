// Package marketplace owns per-viewer browse state and keeps recommendations
// in step with the viewer's interests and the catalog.
package marketplace

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"thrift/internal/catalog"
	"thrift/internal/geo"
	"thrift/internal/observability"
	"thrift/internal/wishlist"
	"thrift/models"
)

// Recommender produces ranked, available items for an interest profile.
// Implementations must not fail; problems degrade to an empty slice.
type Recommender interface {
	Recommend(ctx context.Context, interests string, catalog []models.Item) []models.Item
}

// Options configures a Controller.
type Options struct {
	Viewer      models.User
	Catalog     []models.Item
	Wishlist    *wishlist.Wishlist
	Recommender Recommender
	// DefaultMaxDistance seeds the distance filter, in miles.
	DefaultMaxDistance float64
	// OnChange receives a snapshot after every change. It is called without
	// the controller lock held and may run concurrently with itself.
	OnChange func(State)
	Logger   *slog.Logger
}

// Controller is the single writer for one viewer's marketplace state.
//
// Recommendation refreshes run in the background. Each refresh bumps the
// generation and cancels the previous request; a result is applied only if
// its generation is still current and the controller has not been closed.
type Controller struct {
	mu sync.Mutex

	viewer   models.User
	filter   catalog.Filter
	items    []models.Item
	wishlist *wishlist.Wishlist

	recommender Recommender
	recs        []models.Item
	loading     bool
	generation  uint64
	cancel      context.CancelFunc

	revision uint64
	closed   bool

	onChange func(State)
	logger   *slog.Logger
}

// New builds a controller and starts the first recommendation refresh.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	wl := opts.Wishlist
	if wl == nil {
		wl = wishlist.Load(context.Background(), nil, "", logger)
	}
	c := &Controller{
		viewer: opts.Viewer,
		filter: catalog.Filter{
			College:          models.AllColleges,
			MaxDistanceMiles: opts.DefaultMaxDistance,
			Sort:             catalog.SortNewest,
		},
		items:       cloneItems(opts.Catalog),
		wishlist:    wl,
		recommender: opts.Recommender,
		recs:        []models.Item{},
		onChange:    opts.OnChange,
		logger:      logger,
	}

	c.mu.Lock()
	c.refreshLocked()
	c.mu.Unlock()
	return c
}

// ViewerID returns the owning viewer.
func (c *Controller) ViewerID() uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewer.ID
}

// SetSearchText updates the free-text search.
func (c *Controller) SetSearchText(text string) {
	c.mutate(func() bool {
		c.filter.SearchText = text
		return false
	})
}

// SetCollege restricts listings to one college; models.AllColleges clears it.
func (c *Controller) SetCollege(college models.College) {
	c.mutate(func() bool {
		c.filter.College = college
		return false
	})
}

// SetMaxDistance sets the inclusive distance bound in miles.
func (c *Controller) SetMaxDistance(miles float64) {
	c.mutate(func() bool {
		c.filter.MaxDistanceMiles = miles
		return false
	})
}

// SetPriceBounds sets optional inclusive price bounds.
func (c *Controller) SetPriceBounds(lo, hi *float64) {
	c.mutate(func() bool {
		c.filter.MinPrice = lo
		c.filter.MaxPrice = hi
		return false
	})
}

// SetSort selects the listing order.
func (c *Controller) SetSort(key catalog.SortKey) {
	c.mutate(func() bool {
		c.filter.Sort = catalog.ParseSortKey(string(key))
		return false
	})
}

// SetFilter replaces the whole filter at once.
func (c *Controller) SetFilter(f catalog.Filter) {
	c.mutate(func() bool {
		f.Sort = catalog.ParseSortKey(string(f.Sort))
		if f.College == "" {
			f.College = models.AllColleges
		}
		c.filter = f
		return false
	})
}

// SetInterests updates the viewer's interest text and refreshes
// recommendations when it actually changed.
func (c *Controller) SetInterests(interests string) {
	c.mutate(func() bool {
		if strings.TrimSpace(interests) == strings.TrimSpace(c.viewer.Interests) {
			return false
		}
		c.viewer.Interests = interests
		return true
	})
}

// SetViewer replaces the viewer profile, refreshing recommendations if the
// interests changed.
func (c *Controller) SetViewer(u models.User) {
	c.mutate(func() bool {
		changed := strings.TrimSpace(u.Interests) != strings.TrimSpace(c.viewer.Interests)
		c.viewer = u
		return changed
	})
}

// SetLocation moves the viewer. Distances and the distance filter follow;
// recommendations do not depend on location and are left alone.
func (c *Controller) SetLocation(p geo.Point) {
	c.mutate(func() bool {
		c.viewer.Location = p
		return false
	})
}

// SetCatalog replaces the catalog snapshot and refreshes recommendations.
func (c *Controller) SetCatalog(items []models.Item) {
	snapshot := cloneItems(items)
	c.mutate(func() bool {
		c.items = snapshot
		return true
	})
}

// Refresh forces a new recommendation request.
func (c *Controller) Refresh() {
	c.mutate(func() bool { return true })
}

// ToggleWishlist flips membership of id and returns the new membership.
func (c *Controller) ToggleWishlist(ctx context.Context, id uint) bool {
	var added bool
	c.mutate(func() bool {
		added = c.wishlist.Toggle(ctx, id)
		return false
	})
	return added
}

// IsWishlisted reports whether id is on the viewer's wishlist.
func (c *Controller) IsWishlisted(id uint) bool {
	return c.wishlist.Contains(id)
}

// Listings returns the filtered, sorted available items.
func (c *Controller) Listings() []ListingView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listingsLocked()
}

// Preview returns the listings f would produce without changing the
// controller's own filter.
func (c *Controller) Preview(f catalog.Filter) []ListingView {
	c.mu.Lock()
	defer c.mu.Unlock()
	filtered := catalog.Apply(c.items, c.viewer.Location, f)
	return decorate(filtered, c.viewer.Location, c.wishlist.Contains)
}

// Filter returns the current browse options.
func (c *Controller) Filter() catalog.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Recommendations returns the current result and whether a refresh is pending.
func (c *Controller) Recommendations() ([]ListingView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return decorate(c.recs, c.viewer.Location, c.wishlist.Contains), c.loading
}

// WishlistItems returns the catalog items on the wishlist, sold ones included.
func (c *Controller) WishlistItems() []ListingView {
	c.mu.Lock()
	defer c.mu.Unlock()
	saved := make([]models.Item, 0, c.wishlist.Len())
	for _, it := range c.items {
		if c.wishlist.Contains(it.ID) {
			saved = append(saved, it)
		}
	}
	return decorate(saved, c.viewer.Location, func(uint) bool { return true })
}

// Distance returns the distance from the viewer to p.
func (c *Controller) Distance(p geo.Point) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return geo.DistanceMiles(c.viewer.Location, p)
}

// State returns a full snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Close tears the controller down. Any in-flight refresh is cancelled and its
// result discarded; later mutations are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.loading = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// mutate applies fn under the lock, starts a refresh when fn asks for one and
// publishes the resulting state.
func (c *Controller) mutate(fn func() (refresh bool)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if fn() {
		c.refreshLocked()
	} else {
		c.revision++
	}
	state, notify := c.stateLocked(), c.onChange
	c.mu.Unlock()

	if notify != nil {
		notify(state)
	}
}

func (c *Controller) refreshLocked() {
	c.generation++
	c.revision++
	gen := c.generation

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.recommender == nil {
		c.loading = false
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	ctx = observability.WithCorrelationID(ctx, observability.GenerateCorrelationID())
	c.cancel = cancel
	c.loading = true

	interests := c.viewer.Interests
	items := cloneItems(c.items)
	viewerID := c.viewer.ID
	go c.run(ctx, gen, viewerID, interests, items)
}

func (c *Controller) run(ctx context.Context, gen uint64, viewerID uint, interests string, items []models.Item) {
	fields := map[string]interface{}{"viewer_id": viewerID, "generation": gen}
	observability.LogAsyncOperationStart(ctx, "recommendations.refresh", fields)
	start := time.Now()

	result := c.recommender.Recommend(ctx, interests, items)

	c.mu.Lock()
	if c.closed || gen != c.generation {
		c.mu.Unlock()
		observability.StaleRecommendations.Inc()
		return
	}
	c.recs = result
	c.loading = false
	c.cancel = nil
	c.revision++
	state, notify := c.stateLocked(), c.onChange
	c.mu.Unlock()

	fields["count"] = len(result)
	fields["duration_ms"] = time.Since(start).Milliseconds()
	observability.LogAsyncOperationEnd(ctx, "recommendations.refresh", fields)

	if notify != nil {
		notify(state)
	}
}

func (c *Controller) listingsLocked() []ListingView {
	filtered := catalog.Apply(c.items, c.viewer.Location, c.filter)
	return decorate(filtered, c.viewer.Location, c.wishlist.Contains)
}

func (c *Controller) stateLocked() State {
	recs := decorate(c.recs, c.viewer.Location, c.wishlist.Contains)
	return State{
		ViewerID:               c.viewer.ID,
		Revision:               c.revision,
		Interests:              c.viewer.Interests,
		Filter:                 c.filter,
		Listings:               c.listingsLocked(),
		Recommendations:        recs,
		RecommendationsLoading: c.loading,
		Wishlist:               c.wishlist.IDs(),
	}
}

func cloneItems(items []models.Item) []models.Item {
	out := make([]models.Item, len(items))
	copy(out, items)
	return out
}
