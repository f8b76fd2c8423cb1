package store

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"assetd/internal/models"
	"assetd/internal/policy"
)

// Filter holds the optional list-view narrowing parameters. Empty values
// are no-ops and exclude nothing.
type Filter struct {
	Search   string
	Category string
	Status   models.AssetStatus
}

// visibleAssets returns the base query scoped to what the user is entitled
// to see. The scope is applied before any filter so search or filter
// refinement can never reveal assets outside the user's permission scope.
func (s *Store) visibleAssets(ctx context.Context, user models.User) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Asset{})
	if user.Superuser || user.InGroup(policy.ManagersGroup) {
		return q
	}
	return q.Where("assigned_to_id = ?", user.ID)
}

// ListAssets returns the assets visible to the user, narrowed by the
// filter, most recently created first.
func (s *Store) ListAssets(ctx context.Context, user models.User, f Filter) ([]models.Asset, error) {
	q := s.visibleAssets(ctx, user)

	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where(
			"LOWER(name) LIKE ? OR LOWER(CAST(id AS TEXT)) LIKE ? OR LOWER(category) LIKE ?",
			like, like, like,
		)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	assets := []models.Asset{}
	err := q.Order("created_at DESC, id").Preload("AssignedTo").Find(&assets).Error
	if err != nil {
		return nil, err
	}
	return assets, nil
}

// ListCategories returns the distinct categories in use, for the filter
// dropdown on the list view.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := s.db.WithContext(ctx).
		Model(&models.Asset{}).
		Distinct().
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}
