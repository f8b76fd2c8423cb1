package models

import (
	"time"

	"github.com/google/uuid"
)

// UserGroup ties a user to a group with membership metadata.
type UserGroup struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	GroupID   uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	User  User  `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID"`
	Group Group `gorm:"constraint:OnDelete:CASCADE;foreignKey:GroupID;references:ID"`
}
