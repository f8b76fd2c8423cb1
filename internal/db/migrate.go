package db

import (
	"context"

	"gorm.io/gorm"

	"assetd/internal/models"
)

// Migrate performs schema migrations for the persistent models.
func Migrate(ctx context.Context, database *gorm.DB) error {
	if err := database.SetupJoinTable(&models.User{}, "Groups", &models.UserGroup{}); err != nil {
		return err
	}

	return database.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.UserGroup{},
		&models.Session{},
		&models.Asset{},
		&models.Attribute{},
		&models.AuditLog{},
	)
}
