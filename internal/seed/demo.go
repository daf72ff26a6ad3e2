// Package seed loads demo and synthetic marketplace data for development and tests.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"thrift/internal/geo"
	"thrift/models"
)

//go:embed demo.yaml
var demoYAML []byte

// Dataset is a complete set of users, items and chats.
type Dataset struct {
	Users []UserRecord `yaml:"users"`
	Items []ItemRecord `yaml:"items"`
	Chats []ChatRecord `yaml:"chats"`
}

type UserRecord struct {
	ID        uint      `yaml:"id"`
	Name      string    `yaml:"name"`
	College   string    `yaml:"college"`
	Interests string    `yaml:"interests"`
	Location  geo.Point `yaml:"location"`
}

type ItemRecord struct {
	ID          uint      `yaml:"id"`
	Seller      uint      `yaml:"seller"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Price       float64   `yaml:"price"`
	Tags        []string  `yaml:"tags"`
	Image       string    `yaml:"image"`
	Status      string    `yaml:"status"`
	Created     time.Time `yaml:"created"`
	Location    geo.Point `yaml:"location"`
}

type ChatRecord struct {
	Item     uint            `yaml:"item"`
	Buyer    uint            `yaml:"buyer"`
	Messages []MessageRecord `yaml:"messages"`
}

type MessageRecord struct {
	From uint      `yaml:"from"`
	To   uint      `yaml:"to"`
	Text string    `yaml:"text"`
	At   time.Time `yaml:"at"`
}

// Demo returns the built-in demo dataset.
func Demo() (*Dataset, error) {
	return Parse(demoYAML)
}

// Parse decodes a dataset and checks its references.
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode seed data: %w", err)
	}
	if err := ds.validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (ds *Dataset) validate() error {
	users := make(map[uint]models.College, len(ds.Users))
	for _, u := range ds.Users {
		c := models.College(u.College)
		if !c.Known() {
			return fmt.Errorf("user %d: unknown college %q", u.ID, u.College)
		}
		users[u.ID] = c
	}
	sellers := make(map[uint]uint, len(ds.Items))
	for _, it := range ds.Items {
		if _, ok := users[it.Seller]; !ok {
			return fmt.Errorf("item %d: unknown seller %d", it.ID, it.Seller)
		}
		if !models.ItemStatus(it.Status).Valid() {
			return fmt.Errorf("item %d: invalid status %q", it.ID, it.Status)
		}
		sellers[it.ID] = it.Seller
	}
	for _, c := range ds.Chats {
		seller, ok := sellers[c.Item]
		if !ok {
			return fmt.Errorf("chat: unknown item %d", c.Item)
		}
		if c.Buyer == seller {
			return fmt.Errorf("chat on item %d: buyer is the seller", c.Item)
		}
		for _, m := range c.Messages {
			pair := (m.From == c.Buyer && m.To == seller) || (m.From == seller && m.To == c.Buyer)
			if !pair {
				return fmt.Errorf("chat on item %d: message from %d to %d is outside the thread", c.Item, m.From, m.To)
			}
		}
	}
	return nil
}

// Models converts the dataset into rows ready to insert.
func (ds *Dataset) Models() ([]models.User, []models.Item, []models.ChatThread) {
	users := make([]models.User, 0, len(ds.Users))
	for _, u := range ds.Users {
		users = append(users, models.User{
			ID:        u.ID,
			Name:      u.Name,
			College:   models.College(u.College),
			Interests: u.Interests,
			Location:  u.Location,
		})
	}

	colleges := make(map[uint]models.College, len(users))
	for _, u := range users {
		colleges[u.ID] = u.College
	}
	sellers := make(map[uint]uint, len(ds.Items))
	items := make([]models.Item, 0, len(ds.Items))
	for _, it := range ds.Items {
		sellers[it.ID] = it.Seller
		items = append(items, models.Item{
			ID:          it.ID,
			SellerID:    it.Seller,
			Name:        it.Name,
			Description: it.Description,
			Price:       it.Price,
			Tags:        it.Tags,
			ImageURL:    it.Image,
			College:     colleges[it.Seller],
			Location:    it.Location,
			Status:      models.ItemStatus(it.Status),
			CreatedAt:   it.Created,
		})
	}

	threads := make([]models.ChatThread, 0, len(ds.Chats))
	for _, c := range ds.Chats {
		th := models.ChatThread{ItemID: c.Item, BuyerID: c.Buyer, SellerID: sellers[c.Item]}
		for _, m := range c.Messages {
			th.Messages = append(th.Messages, models.ChatMessage{
				ID:         ulid.MustNew(ulid.Timestamp(m.At), ulid.DefaultEntropy()).String(),
				SenderID:   m.From,
				ReceiverID: m.To,
				Text:       m.Text,
				CreatedAt:  m.At,
			})
			if m.At.After(th.UpdatedAt) {
				th.UpdatedAt = m.At
			}
		}
		threads = append(threads, th)
	}
	return users, items, threads
}

// Apply inserts ds unless the database already has users. It reports
// whether anything was written.
func Apply(ctx context.Context, db *gorm.DB, ds *Dataset) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	users, items, threads := ds.Models()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(users) > 0 {
			if err := tx.Create(&users).Error; err != nil {
				return fmt.Errorf("insert users: %w", err)
			}
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return fmt.Errorf("insert items: %w", err)
			}
		}
		for i := range threads {
			if err := tx.Create(&threads[i]).Error; err != nil {
				return fmt.Errorf("insert chat thread: %w", err)
			}
		}
		return resetSequences(tx, "users", "items")
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// resetSequences moves Postgres serial sequences past explicitly inserted IDs.
func resetSequences(tx *gorm.DB, tables ...string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	for _, table := range tables {
		q := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 1))",
			table, table,
		)
		if err := tx.Exec(q).Error; err != nil {
			return fmt.Errorf("reset %s sequence: %w", table, err)
		}
	}
	return nil
}
