package model

import (
	"time"

	"gorm.io/gorm"
)

// PostStatus is the publication state of a post
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
)

// Post is a piece of content owned by an empresa, optionally scheduled for
// later publication through a social connection.
type Post struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	EmpresaID   uint           `json:"empresa_id" gorm:"index;not null"`
	UserID      uint           `json:"user_id" gorm:"index;not null"`
	Content     string         `json:"content" gorm:"type:text;not null"`
	ImageURL    string         `json:"image_url" gorm:"type:text"`
	Platform    Platform       `json:"platform" gorm:"type:varchar(20);not null"`
	Status      PostStatus     `json:"status" gorm:"type:varchar(20);not null;default:'draft';index"`
	ScheduledAt *time.Time     `json:"scheduled_at" gorm:"index"`
	PublishedAt *time.Time     `json:"published_at"`
	FailReason  string         `json:"fail_reason,omitempty" gorm:"type:text"`
	Active      bool           `json:"active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
