package models

import "time"

// KVEntry is a small key/value row used by database-backed client-state stores.
type KVEntry struct {
	Key       string    `gorm:"primaryKey;size:191" json:"key"`
	Value     []byte    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name.
func (KVEntry) TableName() string {
	return "kv_entries"
}
