package store

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"assetd/internal/models"
)

// audit writes an audit row inside the caller's transaction so the record
// commits or rolls back together with the mutation it describes.
func audit(tx *gorm.DB, actorID *uuid.UUID, action, targetType, targetID string, meta map[string]any) error {
	if meta == nil {
		meta = map[string]any{}
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	entry := models.AuditLog{
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		Metadata:   payload,
	}
	if targetID != "" {
		entry.TargetID = &targetID
	}
	return tx.Create(&entry).Error
}
