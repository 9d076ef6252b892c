package model

import "time"

// Activity is an append-only audit entry. Activities are never updated or
// deleted after insertion.
type Activity struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	EmpresaID   uint      `json:"empresa_id" gorm:"index;not null"`
	UserID      uint      `json:"user_id" gorm:"index;not null"`
	Type        string    `json:"type" gorm:"type:varchar(50);not null"` // e.g. "instagram_connected", "post_published"
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
}
