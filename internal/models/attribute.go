package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attribute is a free-form named value attached to exactly one asset.
// Names are not unique per asset; an asset carries a multiset of them.
type Attribute struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	AssetID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name    string    `gorm:"type:text;not null"`
	Value   string    `gorm:"type:text;not null"`
}

func (a *Attribute) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
