package database

import "livaulislam/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Account{},
		&models.Profile{},
		&models.Article{},
		&models.ArticleLike{},
		&models.Follow{},
		&models.Comment{},
		&models.Notification{},
	}
}
