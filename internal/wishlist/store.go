// Package wishlist keeps a viewer's saved items with a best-effort persisted mirror.
package wishlist

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultNamespace prefixes every wishlist key.
const DefaultNamespace = "riceThriftWishlist"

// ErrNotFound is returned by a Store when the key has never been written.
var ErrNotFound = errors.New("wishlist key not found")

// Store is the narrow key/value contract a wishlist mirror needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Key builds the per-viewer storage key.
func Key(namespace string, viewerID uint) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return fmt.Sprintf("%s:%d", namespace, viewerID)
}

// MemoryStore is a process-local Store, used in tests and when nothing else is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}
