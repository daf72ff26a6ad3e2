// Package models contains data structures for the marketplace domain.
package models

import (
	"time"

	"thrift/internal/geo"
)

// ItemStatus is the lifecycle state of a listing.
type ItemStatus string

const (
	StatusAvailable ItemStatus = "available"
	StatusSold      ItemStatus = "sold"
)

// Valid reports whether s is a known status.
func (s ItemStatus) Valid() bool {
	return s == StatusAvailable || s == StatusSold
}

// Item is a listing offered by a seller.
// Sold items are hidden from browsing but stay addressable by ID.
type Item struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	SellerID    uint       `gorm:"not null;index" json:"seller_id"`
	Seller      *User      `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Name        string     `gorm:"size:120;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Price       float64    `gorm:"not null;default:0" json:"price"`
	Tags        []string   `gorm:"serializer:json" json:"tags"`
	ImageURL    string     `json:"image_url"`
	College     College    `gorm:"size:40;index" json:"college"`
	Location    geo.Point  `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Status      ItemStatus `gorm:"size:16;not null;default:'available';index" json:"status"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsAvailable reports whether the item can be browsed or recommended.
func (i *Item) IsAvailable() bool {
	return i.Status == StatusAvailable
}
