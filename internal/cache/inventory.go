package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix  = "user:%d"
	ItemKeyPrefix  = "item:%d"
	CatalogKey     = "catalog:all"
	InboxKeyPrefix = "inbox:%d"
	CatalogChannel = "thrift:catalog"
)

const (
	UserTTL    = 5 * time.Minute
	ItemTTL    = 30 * time.Minute
	CatalogTTL = time.Minute
	InboxTTL   = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ItemKey(itemID uint) string {
	return fmt.Sprintf(ItemKeyPrefix, itemID)
}

func InboxKey(userID uint) string {
	return fmt.Sprintf(InboxKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidateItem drops the item and the catalog snapshot that contains it.
func InvalidateItem(ctx context.Context, itemID uint) {
	Invalidate(ctx, ItemKey(itemID))
	Invalidate(ctx, CatalogKey)
}

func InvalidateInbox(ctx context.Context, userIDs ...uint) {
	for _, id := range userIDs {
		Invalidate(ctx, InboxKey(id))
	}
}
