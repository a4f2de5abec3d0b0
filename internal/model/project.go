package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Project is the top-level unit of work within a tenant. Its details are a
// freeform map described by the details_schema snapshot taken at creation.
type Project struct {
	ID            uint              `json:"id" gorm:"primaryKey"`
	UUID          string            `json:"uuid" gorm:"type:varchar(36);uniqueIndex;not null"`
	TenantID      uint              `json:"tenant_id" gorm:"index;not null"`
	Title         string            `json:"title" gorm:"type:varchar(255);not null"`
	Details       datatypes.JSONMap `json:"details"`
	DetailsSchema datatypes.JSONMap `json:"details_schema"`
	ExternalID    *string           `json:"external_id" gorm:"type:varchar(255)"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`

	// Relations
	Tenant     Tenant     `json:"-" gorm:"foreignKey:TenantID"`
	Activities []Activity `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate fills the UUID when absent
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == "" {
		p.UUID = uuid.NewString()
	}
	return nil
}
