package models

import (
	"time"

	"thrift/internal/geo"
)

// User is a marketplace participant. Interests is the free-text profile
// that drives recommendations.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:80;not null" json:"name"`
	College   College   `gorm:"size:40" json:"college"`
	Interests string    `gorm:"type:text" json:"interests"`
	Location  geo.Point `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Items     []Item    `gorm:"foreignKey:SellerID" json:"items,omitempty"`
}
