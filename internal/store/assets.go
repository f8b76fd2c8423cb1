package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"assetd/internal/models"
)

// AttributeInput describes one attribute row of a submitted asset form.
// A zero ID means a new attribute; Delete marks an existing row for removal.
type AttributeInput struct {
	ID     uuid.UUID
	Name   string
	Value  string
	Delete bool
}

// AssetInput carries the validated fields of an asset create/update form.
type AssetInput struct {
	Name         string
	Category     string
	Status       models.AssetStatus
	Depreciation *time.Time
	AssignedToID *uuid.UUID
	Attributes   []AttributeInput
}

// Validate checks field constraints. It returns nil when the input is valid.
func (in AssetInput) Validate() ValidationError {
	errs := ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		errs["name"] = "name is required"
	}
	if in.Status != "" && !in.Status.Valid() {
		errs["status"] = "unknown status"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// GetAsset loads one asset with its attributes and assignee.
func (s *Store) GetAsset(ctx context.Context, id uuid.UUID) (models.Asset, error) {
	var asset models.Asset
	err := s.db.WithContext(ctx).
		Preload("Attributes").
		Preload("AssignedTo").
		First(&asset, "id = ?", id).Error
	if err != nil {
		return models.Asset{}, notFound(err)
	}
	return asset, nil
}

// CreateAsset persists a new asset and its attributes in one transaction.
// The id, default category, and default status are assigned on insert.
func (s *Store) CreateAsset(ctx context.Context, actor models.User, in AssetInput) (models.Asset, error) {
	if verr := in.Validate(); verr != nil {
		return models.Asset{}, verr
	}

	asset := models.Asset{
		Name:         strings.TrimSpace(in.Name),
		Category:     strings.TrimSpace(in.Category),
		Status:       in.Status,
		Depreciation: in.Depreciation,
		AssignedToID: in.AssignedToID,
	}
	for _, attr := range in.Attributes {
		if attr.Delete || strings.TrimSpace(attr.Name) == "" {
			continue
		}
		asset.Attributes = append(asset.Attributes, models.Attribute{
			Name:  strings.TrimSpace(attr.Name),
			Value: attr.Value,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&asset).Error; err != nil {
			return err
		}
		return audit(tx, &actor.ID, "asset.created", "asset", asset.ID.String(), map[string]any{
			"name": asset.Name,
		})
	})
	if err != nil {
		return models.Asset{}, err
	}
	return s.GetAsset(ctx, asset.ID)
}

// UpdateAsset replaces the asset's fields and reconciles its attribute set
// atomically: rows marked for deletion are removed, changed rows updated,
// and new rows inserted, all in the same transaction as the field update.
func (s *Store) UpdateAsset(ctx context.Context, actor models.User, id uuid.UUID, in AssetInput) (models.Asset, error) {
	if verr := in.Validate(); verr != nil {
		return models.Asset{}, verr
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = models.DefaultCategory
	}
	status := in.Status
	if status == "" {
		status = models.StatusOperational
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var asset models.Asset
		if err := tx.First(&asset, "id = ?", id).Error; err != nil {
			return notFound(err)
		}

		updates := map[string]any{
			"name":           strings.TrimSpace(in.Name),
			"category":       category,
			"status":         status,
			"depreciation":   in.Depreciation,
			"assigned_to_id": in.AssignedToID,
		}
		if err := tx.Model(&asset).Updates(updates).Error; err != nil {
			return err
		}

		for _, attr := range in.Attributes {
			switch {
			case attr.ID != uuid.Nil && attr.Delete:
				if err := tx.Delete(&models.Attribute{}, "id = ? AND asset_id = ?", attr.ID, id).Error; err != nil {
					return err
				}
			case attr.ID != uuid.Nil:
				if err := tx.Model(&models.Attribute{}).
					Where("id = ? AND asset_id = ?", attr.ID, id).
					Updates(map[string]any{"name": strings.TrimSpace(attr.Name), "value": attr.Value}).Error; err != nil {
					return err
				}
			case !attr.Delete && strings.TrimSpace(attr.Name) != "":
				row := models.Attribute{AssetID: id, Name: strings.TrimSpace(attr.Name), Value: attr.Value}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
		}

		return audit(tx, &actor.ID, "asset.updated", "asset", id.String(), map[string]any{
			"name": strings.TrimSpace(in.Name),
		})
	})
	if err != nil {
		return models.Asset{}, err
	}
	return s.GetAsset(ctx, id)
}

// DeleteAsset removes the asset and cascades to its attributes.
func (s *Store) DeleteAsset(ctx context.Context, actor models.User, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var asset models.Asset
		if err := tx.First(&asset, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Delete(&models.Attribute{}, "asset_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Asset{}, "id = ?", id).Error; err != nil {
			return err
		}
		return audit(tx, &actor.ID, "asset.deleted", "asset", id.String(), map[string]any{
			"name": asset.Name,
		})
	})
}

// AssignAsset sets the asset's assignee and transitions it to checked_out.
func (s *Store) AssignAsset(ctx context.Context, actor models.User, assetID, userID uuid.UUID) (models.Asset, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var asset models.Asset
		if err := tx.First(&asset, "id = ?", assetID).Error; err != nil {
			return notFound(err)
		}
		var assignee models.User
		if err := tx.First(&assignee, "id = ?", userID).Error; err != nil {
			return notFound(err)
		}

		updates := map[string]any{
			"assigned_to_id": userID,
			"status":         models.StatusCheckedOut,
		}
		if err := tx.Model(&asset).Updates(updates).Error; err != nil {
			return err
		}
		return audit(tx, &actor.ID, "asset.assigned", "asset", assetID.String(), map[string]any{
			"assignee": assignee.Username,
		})
	})
	if err != nil {
		return models.Asset{}, err
	}
	return s.GetAsset(ctx, assetID)
}

// DuplicateInput builds a creation form prefill from an existing asset:
// same category, status, depreciation, and attribute rows, a suffixed name,
// and explicitly no assignee.
func DuplicateInput(source models.Asset) AssetInput {
	in := AssetInput{
		Name:         source.Name + " (copy)",
		Category:     source.Category,
		Status:       source.Status,
		Depreciation: source.Depreciation,
	}
	for _, attr := range source.Attributes {
		in.Attributes = append(in.Attributes, AttributeInput{Name: attr.Name, Value: attr.Value})
	}
	return in
}
