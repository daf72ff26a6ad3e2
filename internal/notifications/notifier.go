package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"

	"github.com/redis/go-redis/v9"

	"thrift/internal/cache"
	"thrift/internal/middleware"
)

const viewerChannelPrefix = "thrift:viewer:"

// Notifier publishes marketplace events into Redis so every instance sees them.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Enabled reports whether events leave this process.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// PublishCatalogChanged announces that listings were added or changed status.
func (n *Notifier) PublishCatalogChanged(ctx context.Context, reason string) error {
	if !n.Enabled() {
		return nil
	}
	return n.rdb.Publish(ctx, cache.CatalogChannel, reason).Err()
}

// PublishViewer sends payload to every connection of viewerID on any instance.
func (n *Notifier) PublishViewer(ctx context.Context, viewerID uint, payload []byte) error {
	if !n.Enabled() {
		return nil
	}
	return n.rdb.Publish(ctx, ViewerChannel(viewerID), payload).Err()
}

// StartCatalogSubscriber calls onChange for every catalog change published
// by any instance, this one included.
func (n *Notifier) StartCatalogSubscriber(ctx context.Context, onChange func(reason string)) error {
	if !n.Enabled() {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, cache.CatalogChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", cache.CatalogChannel, err)
	}
	n.pump(ctx, sub, "CatalogSubscriber", func(_ string, payload string) { onChange(payload) })
	return nil
}

// StartViewerSubscriber forwards per-viewer payloads to onMessage.
func (n *Notifier) StartViewerSubscriber(ctx context.Context, onMessage func(viewerID uint, payload string)) error {
	if !n.Enabled() {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, viewerChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("psubscribe %s*: %w", viewerChannelPrefix, err)
	}
	n.pump(ctx, sub, "ViewerSubscriber", func(channel, payload string) {
		id, err := strconv.ParseUint(channel[len(viewerChannelPrefix):], 10, 64)
		if err != nil {
			middleware.Logger.Warn("invalid viewer channel", slog.String("channel", channel))
			return
		}
		onMessage(uint(id), payload)
	})
	return nil
}

func (n *Notifier) pump(ctx context.Context, sub *redis.PubSub, name string, onMessage func(channel, payload string)) {
	ch := sub.Channel()
	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in subscriber",
								slog.String("subscriber", name),
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()
}

// ViewerChannel derives the Redis channel name for a viewer.
func ViewerChannel(viewerID uint) string {
	return viewerChannelPrefix + strconv.FormatUint(uint64(viewerID), 10)
}

// StartWiring forwards per-viewer Redis payloads into the hub.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartViewerSubscriber(ctx, func(viewerID uint, payload string) {
		h.Broadcast(viewerID, []byte(payload))
	})
}
