package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssetStatus enumerates the lifecycle states an asset can be in.
type AssetStatus string

const (
	StatusOperational   AssetStatus = "operational"
	StatusCheckedOut    AssetStatus = "checked_out"
	StatusOutForRepairs AssetStatus = "out_for_repairs"
	StatusDeprecated    AssetStatus = "deprecated"
)

// DefaultCategory is applied when an asset is created without one.
const DefaultCategory = "General"

// AssetStatuses lists every valid status, in display order.
func AssetStatuses() []AssetStatus {
	return []AssetStatus{StatusOperational, StatusCheckedOut, StatusOutForRepairs, StatusDeprecated}
}

// Valid reports whether s is one of the recognised statuses.
func (s AssetStatus) Valid() bool {
	switch s {
	case StatusOperational, StatusCheckedOut, StatusOutForRepairs, StatusDeprecated:
		return true
	}
	return false
}

// Label returns the human readable form of the status.
func (s AssetStatus) Label() string {
	switch s {
	case StatusOperational:
		return "Operational"
	case StatusCheckedOut:
		return "Checked Out"
	case StatusOutForRepairs:
		return "Out for Repairs"
	case StatusDeprecated:
		return "Deprecated"
	}
	return string(s)
}

// Asset is a tracked organisational item. It exclusively owns its
// Attributes and holds a non-owning reference to the assignee user.
type Asset struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Name         string      `gorm:"type:text;not null"`
	Category     string      `gorm:"type:text;not null"`
	Status       AssetStatus `gorm:"type:text;not null"`
	Depreciation *time.Time
	AssignedToID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime"`

	AssignedTo *User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;foreignKey:AssignedToID;references:ID"`
	Attributes []Attribute `gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate fills in the generated id and field defaults.
func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Category == "" {
		a.Category = DefaultCategory
	}
	if a.Status == "" {
		a.Status = StatusOperational
	}
	return nil
}
