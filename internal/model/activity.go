package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Activity types
const (
	ActivityTypeCore       = "core"
	ActivityTypeSupporting = "supporting"
)

// Activity belongs to a project. Its tenant_id is copied from the owning
// project at creation time and never re-derived afterwards, so tenant-scoped
// queries never need a join through projects.
type Activity struct {
	ID            uint              `json:"id" gorm:"primaryKey"`
	UUID          string            `json:"uuid" gorm:"type:varchar(36);uniqueIndex;not null"`
	TenantID      uint              `json:"tenant_id" gorm:"index;not null"`
	ProjectID     uint              `json:"project_id" gorm:"index;not null"`
	Title         string            `json:"title" gorm:"type:varchar(255);not null"`
	Type          string            `json:"type" gorm:"type:varchar(20);not null"`
	Details       datatypes.JSONMap `json:"details"`
	DetailsSchema datatypes.JSONMap `json:"details_schema"`
	ExternalID    *string           `json:"external_id" gorm:"type:varchar(255)"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`

	// Relations
	Tenant  Tenant          `json:"-" gorm:"foreignKey:TenantID"`
	Project Project         `json:"-" gorm:"foreignKey:ProjectID"`
	Entries []ActivityEntry `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate fills the UUID when absent
func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == "" {
		a.UUID = uuid.NewString()
	}
	return nil
}
