package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"

	"thrift/internal/geo"
	"thrift/models"
)

// CampusCenter is the point synthetic locations are scattered around.
var CampusCenter = geo.Point{Lat: 29.7174, Lng: -95.4018}

var tagPool = []string{
	"vintage", "furniture", "textbook", "dorm", "kitchen", "lamp", "bike",
	"shoes", "jacket", "electronics", "desk", "rug", "poster", "athletic",
	"minimalist", "streetwear", "backpack", "plants", "gaming", "music",
}

// Factory builds synthetic users and listings. A fixed seed gives
// reproducible output.
type Factory struct {
	faker *gofakeit.Faker
}

// NewFactory creates a factory. Seed 0 picks a time-based seed.
func NewFactory(seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{faker: gofakeit.New(seed)}
}

// Location returns a point within roughly half a mile of campus.
func (f *Factory) Location() geo.Point {
	return geo.Point{
		Lat: CampusCenter.Lat + f.faker.Float64Range(-0.01, 0.01),
		Lng: CampusCenter.Lng + f.faker.Float64Range(-0.01, 0.01),
	}
}

// BuildUser returns an unsaved user.
func (f *Factory) BuildUser(overrides ...func(*models.User)) models.User {
	u := models.User{
		Name:      f.faker.Name(),
		College:   models.Colleges[f.faker.Number(0, len(models.Colleges)-1)],
		Interests: strings.Join(f.tags(3), ", "),
		Location:  f.Location(),
	}
	for _, o := range overrides {
		o(&u)
	}
	return u
}

// BuildItem returns an unsaved available listing owned by seller.
func (f *Factory) BuildItem(seller models.User, overrides ...func(*models.Item)) models.Item {
	it := models.Item{
		SellerID:    seller.ID,
		Name:        f.faker.ProductName(),
		Description: f.faker.Sentence(12),
		Price:       f.faker.Price(1, 150),
		Tags:        f.tags(f.faker.Number(1, 4)),
		ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s/400/400", f.faker.UUID()),
		College:     seller.College,
		Location:    seller.Location,
		Status:      models.StatusAvailable,
		CreatedAt:   f.faker.DateRange(time.Now().AddDate(0, 0, -60), time.Now()),
	}
	if f.faker.Number(1, 10) == 1 {
		it.Status = models.StatusSold
	}
	for _, o := range overrides {
		o(&it)
	}
	return it
}

func (f *Factory) tags(n int) []string {
	picked := make([]string, 0, n)
	seen := make(map[string]bool, n)
	for len(picked) < n && len(seen) < len(tagPool) {
		t := tagPool[f.faker.Number(0, len(tagPool)-1)]
		if seen[t] {
			continue
		}
		seen[t] = true
		picked = append(picked, t)
	}
	return picked
}

// Populate stores numUsers synthetic users with itemsPerUser listings each.
func (f *Factory) Populate(ctx context.Context, db *gorm.DB, numUsers, itemsPerUser int) ([]models.User, error) {
	users := make([]models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		users = append(users, f.BuildUser())
	}
	if len(users) == 0 {
		return users, nil
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&users).Error; err != nil {
			return fmt.Errorf("insert users: %w", err)
		}
		items := make([]models.Item, 0, numUsers*itemsPerUser)
		for _, u := range users {
			for j := 0; j < itemsPerUser; j++ {
				items = append(items, f.BuildItem(u))
			}
		}
		if len(items) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&items, 100).Error; err != nil {
			return fmt.Errorf("insert items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}
