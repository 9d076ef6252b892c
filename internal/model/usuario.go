package model

import (
	"time"

	"gorm.io/gorm"
)

// Role is the closed set of user roles. Authorization branches switch on it
// exhaustively; anything outside the set is denied.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCliente Role = "cliente"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCliente:
		return true
	}
	return false
}

// Usuario represents a user provisioned from the identity provider.
// Rows are created and updated by lifecycle webhooks, never by self-signup,
// and are only ever soft-deleted (Active cleared).
type Usuario struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	SubjectID string         `json:"subject_id" gorm:"type:varchar(255);uniqueIndex;not null"` // identity-provider subject
	Email     string         `json:"email" gorm:"type:varchar(255);index"`
	FirstName string         `json:"first_name" gorm:"type:varchar(100)"`
	LastName  string         `json:"last_name" gorm:"type:varchar(100)"`
	ImageURL  string         `json:"image_url" gorm:"type:text"`
	Role      Role           `json:"role" gorm:"type:varchar(50);not null;default:'cliente'"`
	EmpresaID *uint          `json:"empresa_id" gorm:"index"` // nil until an admin assigns a tenant
	Active    bool           `json:"active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Empresa *Empresa `json:"empresa,omitempty" gorm:"foreignKey:EmpresaID"`
}
