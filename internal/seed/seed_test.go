package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"thrift/internal/config"
	"thrift/internal/database"
	"thrift/internal/geo"
	"thrift/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(&config.Config{Env: "test", DBDriver: "sqlite", SQLitePath: "file::memory:"})
	require.NoError(t, err)
	return db
}

func TestDemoDataset(t *testing.T) {
	ds, err := Demo()
	require.NoError(t, err)
	assert.Len(t, ds.Users, 3)
	assert.Len(t, ds.Items, 5)
	require.Len(t, ds.Chats, 1)

	users, items, threads := ds.Models()
	assert.Equal(t, models.Wiess, users[0].College)
	assert.Equal(t, models.StatusSold, items[2].Status)
	assert.Equal(t, models.Baker, items[2].College, "item college follows the seller")
	require.Len(t, threads, 1)
	assert.Equal(t, uint(3), threads[0].SellerID)
	require.Len(t, threads[0].Messages, 2)
	assert.Less(t, threads[0].Messages[0].ID, threads[0].Messages[1].ID, "message ids sort by time")

	for _, u := range users {
		assert.Less(t, geo.DistanceMiles(u.Location, CampusCenter), 1.0)
	}
}

func TestParseRejectsBadReferences(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown college", "users:\n  - {id: 1, name: A, college: Hogwarts}\n"},
		{"unknown seller", "users:\n  - {id: 1, name: A, college: Baker}\nitems:\n  - {id: 1, seller: 9, name: X, status: available}\n"},
		{"bad status", "users:\n  - {id: 1, name: A, college: Baker}\nitems:\n  - {id: 1, seller: 1, name: X, status: reserved}\n"},
		{"self chat", "users:\n  - {id: 1, name: A, college: Baker}\nitems:\n  - {id: 1, seller: 1, name: X, status: available}\nchats:\n  - {item: 1, buyer: 1}\n"},
		{"unknown field", "people: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	ds, err := Demo()
	require.NoError(t, err)

	wrote, err := Apply(ctx, db, ds)
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = Apply(ctx, db, ds)
	require.NoError(t, err)
	assert.False(t, wrote)

	var items []models.Item
	require.NoError(t, db.Order("id").Find(&items).Error)
	require.Len(t, items, 5)
	assert.Equal(t, []string{"backpack", "north face", "school"}, items[2].Tags)

	var msgs int64
	require.NoError(t, db.Model(&models.ChatMessage{}).Count(&msgs).Error)
	assert.Equal(t, int64(2), msgs)
}

func TestFactoryIsDeterministic(t *testing.T) {
	a := NewFactory(42).BuildUser()
	b := NewFactory(42).BuildUser()
	assert.Equal(t, a, b)
	assert.True(t, a.College.Known())
	assert.NotEmpty(t, a.Interests)
}

func TestFactoryPopulate(t *testing.T) {
	db := testDB(t)
	f := NewFactory(7)

	users, err := f.Populate(context.Background(), db, 4, 3)
	require.NoError(t, err)
	require.Len(t, users, 4)
	for _, u := range users {
		assert.NotZero(t, u.ID)
	}

	var count int64
	require.NoError(t, db.Model(&models.Item{}).Count(&count).Error)
	assert.Equal(t, int64(12), count)

	item := f.BuildItem(users[0], func(it *models.Item) { it.Price = 0 })
	assert.Equal(t, users[0].College, item.College)
	assert.Zero(t, item.Price)
	assert.LessOrEqual(t, len(item.Tags), 4)
}
