package model

import (
	"time"

	"gorm.io/gorm"
)

// Empresa represents a company tenant. Slug is unique across active and
// inactive rows; deactivating an empresa does not free its slug.
type Empresa struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	Name            string         `json:"name" gorm:"type:varchar(100);not null"`
	Slug            string         `json:"slug" gorm:"type:varchar(120);uniqueIndex;not null"`
	PaymentReceived bool           `json:"payment_received" gorm:"default:false"`
	Active          bool           `json:"active" gorm:"default:true"`
	PrimaryColor    string         `json:"primary_color" gorm:"type:varchar(20)"`
	SecondaryColor  string         `json:"secondary_color" gorm:"type:varchar(20)"`
	FontFamily      string         `json:"font_family" gorm:"type:varchar(100)"`
	TargetAudience  string         `json:"target_audience" gorm:"type:text"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Usuarios []Usuario `json:"usuarios,omitempty" gorm:"foreignKey:EmpresaID"`
}

// EmpresaSummary is the tenant view embedded in access decisions and responses
type EmpresaSummary struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	Active          bool   `json:"active"`
	PaymentReceived bool   `json:"payment_received"`
}

// Summary returns the empresa's summary view
func (e *Empresa) Summary() EmpresaSummary {
	return EmpresaSummary{
		ID:              e.ID,
		Name:            e.Name,
		Slug:            e.Slug,
		Active:          e.Active,
		PaymentReceived: e.PaymentReceived,
	}
}
