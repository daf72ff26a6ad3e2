package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewer(t *testing.T) {
	app := fiber.New()
	app.Use(Viewer(1))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(strconv.FormatUint(uint64(ViewerID(c)), 10))
	})

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
		wantBody   string
	}{
		{"default viewer", "", "", 200, "1"},
		{"header", "3", "", 200, "3"},
		{"query for websocket clients", "", "?viewer=2", 200, "2"},
		{"header wins over query", "3", "?viewer=2", 200, "3"},
		{"garbage", "abc", "", 400, ""},
		{"zero", "0", "", 400, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set(ViewerHeader, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantBody != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tt.wantBody, string(body))
			}
		})
	}
}

func TestCheckRateLimit(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		allowed, err := CheckRateLimit(ctx, rdb, "refresh", "viewer:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err := CheckRateLimit(ctx, rdb, "refresh", "viewer:1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, mr.TTL("rl:refresh:viewer:1"))

	allowed, err = CheckRateLimit(ctx, rdb, "refresh", "viewer:2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "limits are per viewer")

	mr.FastForward(time.Minute + time.Second)
	allowed, err = CheckRateLimit(ctx, rdb, "refresh", "viewer:1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCheckRateLimit_DevelopmentBypass(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	allowed, err := CheckRateLimit(context.Background(), nil, "x", "y", 0, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitPolicies(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	open := fiber.New()
	open.Get("/", RateLimit(nil, 1, time.Minute, "x"), func(c *fiber.Ctx) error { return c.SendStatus(204) })
	resp, err := open.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)

	closed := fiber.New()
	closed.Get("/", RateLimitWithPolicy(nil, 1, time.Minute, FailClosed, "x"), func(c *fiber.Ctx) error { return c.SendStatus(204) })
	resp, err = closed.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestRateLimitExceeded(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	app := fiber.New()
	app.Use(Viewer(1))
	app.Post("/refresh", RateLimit(rdb, 1, time.Minute, "refresh"), func(c *fiber.Ctx) error { return c.SendStatus(202) })

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/refresh", nil))
	require.NoError(t, err)
	assert.Equal(t, 202, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/refresh", nil))
	require.NoError(t, err)
	assert.Equal(t, 429, resp.StatusCode)
	assert.True(t, mr.Exists("rl:refresh:viewer:1"))
}

func TestContextMiddlewareCarriesViewer(t *testing.T) {
	app := fiber.New()
	app.Use(Viewer(7), ContextMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		v, _ := c.UserContext().Value(ViewerIDKey).(uint)
		return c.SendString(strconv.FormatUint(uint64(v), 10))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "7", string(body))
}
