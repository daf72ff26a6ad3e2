package wishlist

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"thrift/internal/observability"
)

// Wishlist is a set of item ids. The in-memory set is authoritative; every
// toggle is written through to the Store and failures are only logged.
type Wishlist struct {
	mu     sync.Mutex
	ids    map[uint]struct{}
	store  Store
	key    string
	logger *slog.Logger
}

// Load reads the persisted set for key. Missing, unreadable or corrupt data
// yields an empty wishlist.
func Load(ctx context.Context, store Store, key string, logger *slog.Logger) *Wishlist {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Wishlist{
		ids:    make(map[uint]struct{}),
		store:  store,
		key:    key,
		logger: logger,
	}
	if store == nil {
		return w
	}

	data, err := store.Get(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		return w
	case err != nil:
		observability.WishlistPersistFailures.WithLabelValues("read").Inc()
		logger.WarnContext(ctx, "wishlist read failed, starting empty",
			slog.String("key", key), slog.String("error", err.Error()))
		return w
	}

	var ids []uint
	if err := json.Unmarshal(data, &ids); err != nil {
		observability.WishlistPersistFailures.WithLabelValues("decode").Inc()
		logger.WarnContext(ctx, "wishlist data corrupt, starting empty",
			slog.String("key", key), slog.String("error", err.Error()))
		return w
	}
	for _, id := range ids {
		w.ids[id] = struct{}{}
	}
	return w
}

// Contains reports whether id is in the set.
func (w *Wishlist) Contains(id uint) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.ids[id]
	return ok
}

// Toggle adds id if absent and removes it if present, returning the new
// membership. The persisted mirror is updated before Toggle returns.
func (w *Wishlist) Toggle(ctx context.Context, id uint) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, present := w.ids[id]
	if present {
		delete(w.ids, id)
	} else {
		w.ids[id] = struct{}{}
	}
	w.persistLocked(ctx)
	return !present
}

// IDs returns the members in ascending order.
func (w *Wishlist) IDs() []uint {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sortedLocked()
}

// Len returns the number of members.
func (w *Wishlist) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.ids)
}

func (w *Wishlist) sortedLocked() []uint {
	out := make([]uint, 0, len(w.ids))
	for id := range w.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (w *Wishlist) persistLocked(ctx context.Context) {
	if w.store == nil {
		return
	}
	data, err := json.Marshal(w.sortedLocked())
	if err == nil {
		err = w.store.Set(ctx, w.key, data)
	}
	if err != nil {
		observability.WishlistPersistFailures.WithLabelValues("write").Inc()
		w.logger.WarnContext(ctx, "wishlist write failed",
			slog.String("key", w.key), slog.String("error", err.Error()))
	}
}
