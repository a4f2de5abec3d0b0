package model

import (
	"time"
)

// Theme modes a user can choose in the mobile client
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// User represents the user model stored in the database. A user belongs to
// exactly one tenant.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"type:varchar(255)"`
	Name      string    `json:"name" gorm:"type:varchar(100)"`
	TenantID  uint      `json:"tenant_id" gorm:"index;not null"`
	ThemeMode string    `json:"theme_mode" gorm:"type:varchar(10);default:'dark'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Tenant Tenant `json:"-" gorm:"foreignKey:TenantID"`
}
