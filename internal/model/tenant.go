package model

import (
	"time"

	"github.com/alemhar/fielder/internal/schema"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Tenant represents an isolated customer organization. Every other row in the
// system hangs off a tenant, and every query is filtered by tenant ID.
type Tenant struct {
	ID                           uint              `json:"id" gorm:"primaryKey"`
	UUID                         string            `json:"uuid" gorm:"type:varchar(36);uniqueIndex;not null"`
	Name                         string            `json:"name" gorm:"type:varchar(100);not null"`
	Slug                         string            `json:"slug" gorm:"type:varchar(100);uniqueIndex;not null"`
	Settings                     datatypes.JSONMap `json:"settings"`
	ProjectDefaultDetailsSchema  datatypes.JSONMap `json:"project_default_details_schema"`
	ActivityDefaultDetailsSchema datatypes.JSONMap `json:"activity_default_details_schema"`
	CreatedAt                    time.Time         `json:"created_at"`
	UpdatedAt                    time.Time         `json:"updated_at"`

	// Relations
	Users    []User    `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Projects []Project `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate fills the UUID and default detail schemas when absent
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == "" {
		t.UUID = uuid.NewString()
	}
	if t.ProjectDefaultDetailsSchema == nil {
		t.ProjectDefaultDetailsSchema = datatypes.JSONMap(schema.DefaultProjectDetailsSchema())
	}
	if t.ActivityDefaultDetailsSchema == nil {
		t.ActivityDefaultDetailsSchema = datatypes.JSONMap(schema.DefaultActivityDetailsSchema())
	}
	return nil
}
