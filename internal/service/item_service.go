// Package service holds the marketplace business rules on top of the repositories.
package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"thrift/internal/repository"
	"thrift/models"
)

const maxTags = 10

// CreateListingInput is the new-listing form as submitted by a seller.
type CreateListingInput struct {
	SellerID    uint    `validate:"required"`
	Name        string  `validate:"required,max=120"`
	Description string  `validate:"max=2000"`
	Price       float64 `validate:"gte=0"`
	// Tags is the raw comma-separated tag field.
	Tags     string
	ImageURL string `validate:"omitempty,url"`
}

type ItemService struct {
	items    repository.ItemRepository
	users    repository.UserRepository
	validate *validator.Validate

	onCatalogChange func(ctx context.Context)
}

func NewItemService(items repository.ItemRepository, users repository.UserRepository) *ItemService {
	return &ItemService{items: items, users: users, validate: validator.New()}
}

// OnCatalogChange registers fn to run after every successful catalog mutation.
func (s *ItemService) OnCatalogChange(fn func(ctx context.Context)) {
	s.onCatalogChange = fn
}

func (s *ItemService) notify(ctx context.Context) {
	if s.onCatalogChange != nil {
		s.onCatalogChange(ctx)
	}
}

// ListAll returns every item, sold ones included.
func (s *ItemService) ListAll(ctx context.Context) ([]models.Item, error) {
	return s.items.ListAll(ctx)
}

func (s *ItemService) GetItem(ctx context.Context, id uint) (*models.Item, error) {
	return s.items.GetByID(ctx, id)
}

func (s *ItemService) ListBySeller(ctx context.Context, sellerID uint) ([]models.Item, error) {
	return s.items.ListBySeller(ctx, sellerID)
}

// CreateListing validates the form and stores a new available item. College
// and location come from the seller's profile.
func (s *ItemService) CreateListing(ctx context.Context, in CreateListingInput) (*models.Item, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return nil, validationError(err)
	}
	tags := ParseTags(in.Tags)
	if len(tags) > maxTags {
		return nil, models.NewValidationError("Too many tags (max 10)")
	}

	seller, err := s.users.GetByID(ctx, in.SellerID)
	if err != nil {
		return nil, err
	}

	item := &models.Item{
		SellerID:    seller.ID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Tags:        tags,
		ImageURL:    in.ImageURL,
		College:     seller.College,
		Location:    seller.Location,
		Status:      models.StatusAvailable,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}
	s.notify(ctx)
	return item, nil
}

// UpdateStatus marks an item sold or available. Only the seller may do this.
func (s *ItemService) UpdateStatus(ctx context.Context, actorID, itemID uint, status models.ItemStatus) (*models.Item, error) {
	if !status.Valid() {
		return nil, models.NewValidationError("Status must be available or sold")
	}
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.SellerID != actorID {
		return nil, models.NewForbiddenError("Only the seller can change this listing")
	}
	if item.Status == status {
		return item, nil
	}
	if err := s.items.UpdateStatus(ctx, itemID, status); err != nil {
		return nil, err
	}
	item.Status = status
	s.notify(ctx)
	return item, nil
}

// ParseTags splits a comma-separated tag field, trimming blanks and
// dropping case-insensitive duplicates.
func ParseTags(raw string) []string {
	seen := make(map[string]bool)
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, tag)
	}
	return tags
}
