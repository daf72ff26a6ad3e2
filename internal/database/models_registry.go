package database

import "thrift/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Item{},
		&models.ChatThread{},
		&models.ChatMessage{},
		&models.KVEntry{},
	}
}
