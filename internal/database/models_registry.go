package database

import "miniblog/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters: referenced tables come first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Role{},
		&models.User{},
		&models.Post{},
		&models.Comment{},
	}
}
