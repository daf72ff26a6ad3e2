package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thrift/internal/config"
	"thrift/internal/database"
	"thrift/internal/marketplace"
	"thrift/internal/seed"
	"thrift/internal/wishlist"
)

func sqliteConfig() *config.Config {
	return &config.Config{
		Env:                  "test",
		DBDriver:             "sqlite",
		SQLitePath:           "file::memory:",
		DefaultViewerID:      1,
		WishlistStore:        "memory",
		WishlistNamespace:    "testWishlist",
		OracleTimeoutSeconds: 1,
	}
}

// newSeededServer builds a fully wired server on an in-memory database
// holding the demo dataset.
func newSeededServer(t *testing.T) *Server {
	t.Helper()
	cfg := sqliteConfig()
	db, err := database.Connect(cfg)
	require.NoError(t, err)

	ds, err := seed.Demo()
	require.NoError(t, err)
	_, err = seed.Apply(context.Background(), db, ds)
	require.NoError(t, err)

	s, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)
	t.Cleanup(s.registry.CloseAll)
	return s
}

func TestHealthChecks(t *testing.T) {
	s := newSeededServer(t)
	app := s.App()

	tests := []struct {
		path           string
		expectedStatus int
	}{
		{"/health/live", http.StatusOK},
		{"/health/ready", http.StatusOK},
		{"/health", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var body struct {
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Checks["database"])
	assert.Equal(t, "unavailable", body.Checks["redis"])
	assert.Equal(t, "disabled", body.Checks["oracle"])
}

func TestServer_ListingFlow(t *testing.T) {
	s := newSeededServer(t)
	app := s.App()

	get := func(path, viewer string, out any) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if viewer != "" {
			req.Header.Set("X-Viewer-ID", viewer)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		if out != nil {
			require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
		}
		return resp.StatusCode
	}

	var st marketplace.State
	require.Equal(t, http.StatusOK, get("/api/marketplace", "", &st))
	assert.Equal(t, uint(1), st.ViewerID, "default viewer")
	before := len(st.Listings)
	for _, l := range st.Listings {
		assert.True(t, l.IsAvailable(), "sold items are not browsable")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/items",
		strings.NewReader(`{"name":"Mini Fridge","description":"Works great","price":60,"tags":"appliance, dorm"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Viewer-ID", "2")
	resp, err := app.Test(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.Equal(t, http.StatusOK, get("/api/marketplace", "1", &st))
	assert.Len(t, st.Listings, before+1, "catalog change reaches open controllers")
	assert.Equal(t, "Mini Fridge", st.Listings[0].Name, "newest first")

	assert.Equal(t, http.StatusBadRequest, get("/api/marketplace", "abc", nil))
	assert.Equal(t, http.StatusNotFound, get("/api/marketplace", "404", nil))
}

func TestCatalogChangeRouting(t *testing.T) {
	tests := []struct {
		name      string
		subscribe bool
	}{
		{name: "Redis up, no subscriber applies locally", subscribe: false},
		{name: "Subscriber applies published change", subscribe: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = rdb.Close() })

			cfg := sqliteConfig()
			db, err := database.Connect(cfg)
			require.NoError(t, err)
			ds, err := seed.Demo()
			require.NoError(t, err)
			_, err = seed.Apply(context.Background(), db, ds)
			require.NoError(t, err)

			s, err := NewServerWithDeps(cfg, db, rdb)
			require.NoError(t, err)
			t.Cleanup(s.registry.CloseAll)

			if tt.subscribe {
				ctx, cancel := context.WithCancel(context.Background())
				t.Cleanup(cancel)
				s.startSubscribers(ctx)
				require.True(t, s.catalogSubscribed.Load())
			}

			ctrl, err := s.registry.Open(context.Background(), 1)
			require.NoError(t, err)
			before := len(ctrl.Listings())

			req := httptest.NewRequest(http.MethodPost, "/api/items",
				strings.NewReader(`{"name":"Desk Lamp","description":"Warm light","price":12,"tags":"lighting"}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Viewer-ID", "2")
			resp, err := s.App().Test(req)
			require.NoError(t, err)
			_ = resp.Body.Close()
			require.Equal(t, http.StatusCreated, resp.StatusCode)

			require.Eventually(t, func() bool {
				return len(ctrl.Listings()) == before+1
			}, 2*time.Second, 10*time.Millisecond)
		})
	}
}

func TestNewWishlistStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := sqliteConfig()
	db, err := database.Connect(cfg)
	require.NoError(t, err)

	tests := []struct {
		kind string
		rdb  *redis.Client
		want any
	}{
		{"redis", rdb, &wishlist.RedisStore{}},
		{"redis", nil, &wishlist.GormStore{}},
		{"db", nil, &wishlist.GormStore{}},
		{"file", nil, &wishlist.FileStore{}},
		{"memory", nil, &wishlist.MemoryStore{}},
		{"", nil, &wishlist.MemoryStore{}},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			c := *cfg
			c.WishlistStore = tt.kind
			c.WishlistFile = t.TempDir()
			store, err := newWishlistStore(&c, db, tt.rdb)
			require.NoError(t, err)
			assert.IsType(t, tt.want, store)
		})
	}
}

func TestHumanizeParam(t *testing.T) {
	tests := map[string]string{
		"id":           "ID",
		"itemId":       "item ID",
		"chatThreadId": "chat thread ID",
		"with":         "with",
	}
	for in, want := range tests {
		assert.Equal(t, want, humanizeParam(in), in)
	}
}
