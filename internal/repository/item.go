package repository

import (
	"context"

	"gorm.io/gorm"

	"thrift/internal/cache"
	"thrift/internal/observability"
	"thrift/models"
)

// ItemRepository defines persistence operations for listings.
type ItemRepository interface {
	Create(ctx context.Context, item *models.Item) error
	GetByID(ctx context.Context, id uint) (*models.Item, error)
	// ListAll returns every item, sold ones included, newest first.
	ListAll(ctx context.Context) ([]models.Item, error)
	ListAvailable(ctx context.Context) ([]models.Item, error)
	ListBySeller(ctx context.Context, sellerID uint) ([]models.Item, error)
	UpdateStatus(ctx context.Context, id uint, status models.ItemStatus) error
}

type itemRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewItemRepository returns a new ItemRepository implementation.
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db, log: observability.NewRepoLogger("items")}
}

func (r *itemRepository) Create(ctx context.Context, item *models.Item) error {
	defer observability.TrackQuery("create", "items")()

	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.CatalogKey)
	r.log.LogCreate(ctx, map[string]interface{}{"item_id": item.ID, "seller_id": item.SellerID})
	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	err := cache.Aside(ctx, cache.ItemKey(id), &item, cache.ItemTTL, func() error {
		defer observability.TrackQuery("get", "items")()
		if err := r.db.WithContext(ctx).Preload("Seller").First(&item, id).Error; err != nil {
			return wrapLookupError(err, "Item", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) ListAll(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := cache.Aside(ctx, cache.CatalogKey, &items, cache.CatalogTTL, func() error {
		defer observability.TrackQuery("list", "items")()
		if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) ListAvailable(ctx context.Context) ([]models.Item, error) {
	defer observability.TrackQuery("list_available", "items")()

	var items []models.Item
	if err := r.db.WithContext(ctx).
		Where("status = ?", models.StatusAvailable).
		Order("created_at DESC, id DESC").
		Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *itemRepository) ListBySeller(ctx context.Context, sellerID uint) ([]models.Item, error) {
	defer observability.TrackQuery("list_by_seller", "items")()

	var items []models.Item
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC, id DESC").
		Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *itemRepository) UpdateStatus(ctx context.Context, id uint, status models.ItemStatus) error {
	defer observability.TrackQuery("update_status", "items")()

	res := r.db.WithContext(ctx).Model(&models.Item{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update_status")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Item", id)
	}
	cache.InvalidateItem(ctx, id)
	r.log.LogUpdate(ctx, map[string]interface{}{"item_id": id, "status": string(status)})
	return nil
}
