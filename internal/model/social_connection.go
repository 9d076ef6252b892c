package model

import (
	"time"

	"gorm.io/gorm"
)

// Platform identifies a social publishing platform
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
)

// Valid reports whether p is a known platform
func (p Platform) Valid() bool {
	switch p {
	case PlatformInstagram, PlatformFacebook:
		return true
	}
	return false
}

// SocialConnection stores the OAuth credential linking one user of one
// empresa to an external platform account. Disconnecting clears Active;
// rows are never removed so the audit trail stays intact.
type SocialConnection struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UserID      uint           `json:"user_id" gorm:"index;not null"`
	EmpresaID   uint           `json:"empresa_id" gorm:"index;not null"`
	Platform    Platform       `json:"platform" gorm:"type:varchar(20);not null"`
	AccessToken string         `json:"-" gorm:"type:text;not null"`
	PageID      string         `json:"page_id" gorm:"type:varchar(100)"`
	AccountID   string         `json:"account_id" gorm:"type:varchar(100)"` // instagram business account id
	Username    string         `json:"username" gorm:"type:varchar(100)"`
	Active      bool           `json:"active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
