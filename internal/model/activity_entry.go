package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityEntry is a timestamped note recorded against an activity. At least
// one of body, data, or an attachment must be present at creation. The author
// is fixed once the entry exists; updates replace body and data only.
type ActivityEntry struct {
	ID         uint              `json:"id" gorm:"primaryKey"`
	UUID       string            `json:"uuid" gorm:"type:varchar(36);uniqueIndex;not null"`
	TenantID   uint              `json:"tenant_id" gorm:"index;not null"`
	ActivityID uint              `json:"activity_id" gorm:"index;not null"`
	UserID     uint              `json:"user_id" gorm:"index;not null"`
	Body       *string           `json:"body" gorm:"type:text"`
	Data       datatypes.JSONMap `json:"data"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`

	// Relations
	Tenant      Tenant                    `json:"-" gorm:"foreignKey:TenantID"`
	Activity    Activity                  `json:"-" gorm:"foreignKey:ActivityID"`
	User        User                      `json:"-" gorm:"foreignKey:UserID"`
	Attachments []ActivityEntryAttachment `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate fills the UUID when absent
func (e *ActivityEntry) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == "" {
		e.UUID = uuid.NewString()
	}
	return nil
}
