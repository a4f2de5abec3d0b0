package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityEntryAttachment records a file stored for an entry. The file itself
// lives on the attachment store under FilePath; original name, MIME type and
// byte size are captured at store time and never change. Deleting the record
// must also remove the backing file.
type ActivityEntryAttachment struct {
	ID              uint              `json:"id" gorm:"primaryKey"`
	UUID            string            `json:"uuid" gorm:"type:varchar(36);uniqueIndex;not null"`
	TenantID        uint              `json:"tenant_id" gorm:"index;not null"`
	ActivityEntryID uint              `json:"activity_entry_id" gorm:"index;not null"`
	FilePath        string            `json:"file_path" gorm:"type:varchar(500);uniqueIndex;not null"`
	OriginalName    string            `json:"original_name" gorm:"type:varchar(255)"`
	MimeType        string            `json:"mime_type" gorm:"type:varchar(100)"`
	Size            int64             `json:"size"`
	Meta            datatypes.JSONMap `json:"meta"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`

	// Relations
	Tenant Tenant        `json:"-" gorm:"foreignKey:TenantID"`
	Entry  ActivityEntry `json:"-" gorm:"foreignKey:ActivityEntryID"`
}

// BeforeCreate fills the UUID when absent
func (a *ActivityEntryAttachment) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == "" {
		a.UUID = uuid.NewString()
	}
	return nil
}
