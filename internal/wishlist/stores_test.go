package wishlist

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"thrift/models"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "riceThriftWishlist:1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "riceThriftWishlist:1", []byte(`[1,4]`)))
	got, err := store.Get(ctx, "riceThriftWishlist:1")
	require.NoError(t, err)
	assert.Equal(t, `[1,4]`, string(got))

	require.NoError(t, store.Set(ctx, "riceThriftWishlist:1", []byte(`[4]`)))
	got, err = store.Get(ctx, "riceThriftWishlist:1")
	require.NoError(t, err)
	assert.Equal(t, `[4]`, string(got))

	_, err = store.Get(ctx, "riceThriftWishlist:2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	exerciseStore(t, NewRedisStore(client))
	assert.Zero(t, mr.TTL("riceThriftWishlist:1"))
}

func TestRedisStoreNilClient(t *testing.T) {
	s := NewRedisStore(nil)
	_, err := s.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Error(t, s.Set(context.Background(), "k", []byte(`[]`)))
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestGormStore(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.KVEntry{}))

	exerciseStore(t, NewGormStore(db))
}
