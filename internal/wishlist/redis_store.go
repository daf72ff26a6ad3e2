package wishlist

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

var errRedisUnavailable = errors.New("redis client is nil")

// RedisStore mirrors wishlists into Redis string keys without expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps client. A nil client makes every call fail, which the
// wishlist treats as a persistence failure.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.client == nil {
		return nil, errRedisUnavailable
	}
	v, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if s.client == nil {
		return errRedisUnavailable
	}
	return s.client.Set(ctx, key, value, 0).Err()
}
