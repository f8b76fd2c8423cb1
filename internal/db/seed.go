package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"assetd/internal/models"
	"assetd/internal/policy"
)

// Seed inserts baseline lookup data such as the managers group.
func Seed(ctx context.Context, database *gorm.DB) error {
	defaultGroups := []string{policy.ManagersGroup}
	for _, groupName := range defaultGroups {
		group := models.Group{Name: groupName}
		if err := database.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&group).Error; err != nil {
			return err
		}
	}
	return nil
}
