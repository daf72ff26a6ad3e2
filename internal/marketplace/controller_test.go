package marketplace

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thrift/internal/catalog"
	"thrift/internal/geo"
	"thrift/internal/wishlist"
	"thrift/models"
)

// call is one pending Recommend invocation the test resolves by hand.
type call struct {
	interests string
	ctx       context.Context
	reply     chan []models.Item
}

// scriptedRecommender blocks every call until the test answers it.
type scriptedRecommender struct {
	calls chan *call
}

func newScripted() *scriptedRecommender {
	return &scriptedRecommender{calls: make(chan *call, 16)}
}

func (s *scriptedRecommender) Recommend(ctx context.Context, interests string, _ []models.Item) []models.Item {
	c := &call{interests: interests, ctx: ctx, reply: make(chan []models.Item, 1)}
	s.calls <- c
	return <-c.reply
}

func (s *scriptedRecommender) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-s.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("recommender was not called")
		return nil
	}
}

type fixedRecommender struct{ items []models.Item }

func (f fixedRecommender) Recommend(context.Context, string, []models.Item) []models.Item {
	return f.items
}

var campus = geo.Point{Lat: 29.7174, Lng: -95.4018}

func testCatalog() []models.Item {
	base := time.Date(2023, 10, 26, 10, 0, 0, 0, time.UTC)
	return []models.Item{
		{ID: 1, Name: "Vintage Rice Sweatshirt", Price: 25, Tags: []string{"vintage"}, College: models.Baker, Location: campus, Status: models.StatusAvailable, CreatedAt: base},
		{ID: 2, Name: "Nike Running Shoes", Price: 50, Tags: []string{"shoes"}, College: models.McMurtry, Location: campus, Status: models.StatusAvailable, CreatedAt: base.Add(24 * time.Hour)},
		{ID: 3, Name: "North Face Backpack", Price: 40, Tags: []string{"backpack"}, College: models.Baker, Location: campus, Status: models.StatusSold, CreatedAt: base.Add(-24 * time.Hour)},
	}
}

func viewer() models.User {
	return models.User{ID: 1, Name: "Sammy", College: models.Wiess, Interests: "vintage", Location: campus}
}

func recIDs(views []ListingView) []uint {
	out := make([]uint, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

func waitSettled(t *testing.T, c *Controller) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, loading := c.Recommendations()
		return !loading
	}, 2*time.Second, 5*time.Millisecond)
}

func TestController_InitialRefresh(t *testing.T) {
	items := testCatalog()
	c := New(Options{Viewer: viewer(), Catalog: items, Recommender: fixedRecommender{items: items[:1]}})
	defer c.Close()

	waitSettled(t, c)
	recs, loading := c.Recommendations()
	assert.False(t, loading)
	assert.Equal(t, []uint{1}, recIDs(recs))
}

func TestController_LoadingUntilResolved(t *testing.T) {
	rec := newScripted()
	c := New(Options{Viewer: viewer(), Catalog: testCatalog(), Recommender: rec})
	defer c.Close()

	first := rec.next(t)
	_, loading := c.Recommendations()
	assert.True(t, loading)

	first.reply <- []models.Item{testCatalog()[1]}
	waitSettled(t, c)
	recs, _ := c.Recommendations()
	assert.Equal(t, []uint{2}, recIDs(recs))
}

func TestController_LatestRequestWins(t *testing.T) {
	rec := newScripted()
	items := testCatalog()
	c := New(Options{Viewer: viewer(), Catalog: items, Recommender: rec})
	defer c.Close()

	first := rec.next(t)
	c.SetInterests("running shoes")
	second := rec.next(t)
	assert.Equal(t, "running shoes", second.interests)

	// The superseded request is cancelled.
	select {
	case <-first.ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("first request was not cancelled")
	}

	// Resolve the newer request first, then let the stale one land.
	second.reply <- []models.Item{items[1]}
	waitSettled(t, c)
	first.reply <- []models.Item{items[0]}

	assert.Never(t, func() bool {
		recs, _ := c.Recommendations()
		return len(recs) != 1 || recs[0].ID != 2
	}, 100*time.Millisecond, 5*time.Millisecond)
}

func TestController_StaleResultWhileNewerPending(t *testing.T) {
	rec := newScripted()
	items := testCatalog()
	c := New(Options{Viewer: viewer(), Catalog: items, Recommender: rec})
	defer c.Close()

	first := rec.next(t)
	c.SetCatalog(items)
	second := rec.next(t)

	first.reply <- []models.Item{items[0]}
	time.Sleep(30 * time.Millisecond)
	recs, loading := c.Recommendations()
	assert.True(t, loading, "newer request still pending")
	assert.Empty(t, recs)

	second.reply <- []models.Item{items[1]}
	waitSettled(t, c)
	recs, _ = c.Recommendations()
	assert.Equal(t, []uint{2}, recIDs(recs))
}

func TestController_UnchangedInterestsDoNotRefresh(t *testing.T) {
	rec := newScripted()
	c := New(Options{Viewer: viewer(), Catalog: testCatalog(), Recommender: rec})
	defer c.Close()

	first := rec.next(t)
	c.SetInterests("  vintage ")
	select {
	case <-rec.calls:
		t.Fatal("refresh triggered for identical interests")
	case <-time.After(30 * time.Millisecond):
	}
	first.reply <- nil
}

func TestController_CloseDiscardsInFlight(t *testing.T) {
	rec := newScripted()
	var mu sync.Mutex
	notified := 0
	c := New(Options{
		Viewer: viewer(), Catalog: testCatalog(), Recommender: rec,
		OnChange: func(State) {
			mu.Lock()
			notified++
			mu.Unlock()
		},
	})

	first := rec.next(t)
	c.Close()
	<-first.ctx.Done()
	first.reply <- testCatalog()[:1]

	time.Sleep(30 * time.Millisecond)
	recs, loading := c.Recommendations()
	assert.Empty(t, recs)
	assert.False(t, loading)
	mu.Lock()
	assert.Zero(t, notified)
	mu.Unlock()

	// Mutations after teardown are ignored.
	c.SetSearchText("shoes")
	assert.Empty(t, c.State().Filter.SearchText)
}

func TestController_FiltersAndSort(t *testing.T) {
	c := New(Options{Viewer: viewer(), Catalog: testCatalog(), DefaultMaxDistance: 5})
	defer c.Close()

	assert.Equal(t, []uint{2, 1}, recIDs(c.Listings()), "newest first, sold hidden")

	c.SetSort(catalog.SortPriceAsc)
	assert.Equal(t, []uint{1, 2}, recIDs(c.Listings()))

	c.SetCollege(models.McMurtry)
	assert.Equal(t, []uint{2}, recIDs(c.Listings()))

	c.SetCollege(models.AllColleges)
	c.SetSearchText("VINTAGE")
	assert.Equal(t, []uint{1}, recIDs(c.Listings()))

	c.SetSearchText("")
	hi := 30.0
	c.SetPriceBounds(nil, &hi)
	assert.Equal(t, []uint{1}, recIDs(c.Listings()))

	c.SetFilter(catalog.Filter{Sort: "bogus"})
	st := c.State()
	assert.Equal(t, catalog.SortNewest, st.Filter.Sort)
	assert.Equal(t, models.AllColleges, st.Filter.College)
}

func TestController_DefaultDistanceFilter(t *testing.T) {
	items := testCatalog()
	items[1].Location = geo.Point{Lat: 29.7604, Lng: -95.3698}
	c := New(Options{Viewer: viewer(), Catalog: items, DefaultMaxDistance: 1})
	defer c.Close()

	assert.Equal(t, []uint{1}, recIDs(c.Listings()))
	c.SetMaxDistance(20)
	assert.Equal(t, []uint{2, 1}, recIDs(c.Listings()))
}

func TestController_SetLocation(t *testing.T) {
	items := testCatalog()
	downtown := geo.Point{Lat: 29.7604, Lng: -95.3698}
	items[1].Location = downtown
	rec := newScripted()
	c := New(Options{Viewer: viewer(), Catalog: items, Recommender: rec, DefaultMaxDistance: 1})
	defer c.Close()
	first := rec.next(t)

	assert.Equal(t, []uint{1}, recIDs(c.Listings()))
	c.SetLocation(downtown)
	assert.Equal(t, []uint{2}, recIDs(c.Listings()))
	assert.Zero(t, c.Distance(downtown))

	select {
	case <-rec.calls:
		t.Fatal("moving the viewer must not refresh recommendations")
	case <-time.After(30 * time.Millisecond):
	}
	first.reply <- nil
}

func TestController_ToggleWishlist(t *testing.T) {
	ctx := context.Background()
	store := wishlist.NewMemoryStore()
	wl := wishlist.Load(ctx, store, "w", nil)
	c := New(Options{Viewer: viewer(), Catalog: testCatalog(), Wishlist: wl})
	defer c.Close()

	assert.True(t, c.ToggleWishlist(ctx, 3))
	assert.True(t, c.IsWishlisted(3))
	assert.Equal(t, []uint{3}, recIDs(c.WishlistItems()), "sold items stay on the wishlist")

	assert.False(t, c.ToggleWishlist(ctx, 3))
	assert.False(t, c.IsWishlisted(3))
	assert.Empty(t, c.State().Wishlist)

	data, err := store.Get(ctx, "w")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestController_ListingsMarkWishlisted(t *testing.T) {
	c := New(Options{Viewer: viewer(), Catalog: testCatalog()})
	defer c.Close()

	c.ToggleWishlist(context.Background(), 2)
	for _, v := range c.Listings() {
		assert.Equal(t, v.ID == 2, v.Wishlisted)
		assert.Equal(t, 0.0, v.DistanceMiles)
	}
}

func TestController_RevisionIncreases(t *testing.T) {
	c := New(Options{Viewer: viewer(), Catalog: testCatalog()})
	defer c.Close()

	r1 := c.State().Revision
	c.SetSearchText("x")
	r2 := c.State().Revision
	c.SetCatalog(testCatalog())
	r3 := c.State().Revision
	assert.Less(t, r1, r2)
	assert.Less(t, r2, r3)
}

func TestController_PreviewLeavesFilterAlone(t *testing.T) {
	c := New(Options{Viewer: viewer(), Catalog: testCatalog(), DefaultMaxDistance: 5})
	defer c.Close()
	before := c.State().Revision

	got := c.Preview(catalog.Filter{College: models.McMurtry, Sort: catalog.SortNewest})
	assert.Equal(t, []uint{2}, recIDs(got))
	assert.Equal(t, models.AllColleges, c.Filter().College)
	assert.Equal(t, before, c.State().Revision)
}
