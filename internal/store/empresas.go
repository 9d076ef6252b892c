package store

import (
	"context"

	"social-service/internal/model"
	"social-service/internal/slug"

	"gorm.io/gorm"
)

// EmpresaStore is the typed accessor for the empresas table
type EmpresaStore struct {
	db *gorm.DB
}

// FindByID retrieves an empresa regardless of the active flag. The access
// policy needs inactive rows to tell "tenant disabled" from "tenant gone",
// and admins manage disabled empresas too; callers check Active themselves.
func (s *EmpresaStore) FindByID(ctx context.Context, id uint) (*model.Empresa, error) {
	var e model.Empresa
	if err := s.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, wrap("empresas.find_by_id", err)
	}
	return &e, nil
}

// List returns empresas, active only unless includeInactive is set
func (s *EmpresaStore) List(ctx context.Context, includeInactive bool) ([]model.Empresa, error) {
	q := s.db.WithContext(ctx)
	if !includeInactive {
		q = q.Where("active = ?", true)
	}
	var empresas []model.Empresa
	if err := q.Order("id").Find(&empresas).Error; err != nil {
		return nil, wrap("empresas.list", err)
	}
	return empresas, nil
}

// Create inserts a new empresa, generating its unique slug from the name
func (s *EmpresaStore) Create(ctx context.Context, e *model.Empresa) error {
	sl, err := s.GenerateUniqueSlug(ctx, e.Name, nil)
	if err != nil {
		return err
	}
	e.Slug = sl
	return wrap("empresas.create", s.db.WithContext(ctx).Create(e).Error)
}

// Save persists every field of an existing empresa row
func (s *EmpresaStore) Save(ctx context.Context, e *model.Empresa) error {
	return wrap("empresas.save", s.db.WithContext(ctx).Save(e).Error)
}

// SoftDelete clears the active flag. The slug stays taken: uniqueness holds
// across active and inactive empresas.
func (s *EmpresaStore) SoftDelete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Model(&model.Empresa{}).
		Where("id = ?", id).
		Update("active", false)
	if result.Error != nil {
		return wrap("empresas.soft_delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GenerateUniqueSlug normalizes name and probes for collisions against all
// empresas, active or not. excludeID skips the row being renamed so an
// unchanged name keeps its slug.
func (s *EmpresaStore) GenerateUniqueSlug(ctx context.Context, name string, excludeID *uint) (string, error) {
	base := slug.Normalize(name)
	if base == "" {
		base = "empresa"
	}

	return slug.Unique(ctx, base, func(ctx context.Context, candidate string) (bool, error) {
		q := s.db.WithContext(ctx).Model(&model.Empresa{}).Where("slug = ?", candidate)
		if excludeID != nil {
			q = q.Where("id <> ?", *excludeID)
		}
		var count int64
		if err := q.Count(&count).Error; err != nil {
			return false, wrap("empresas.slug_probe", err)
		}
		return count > 0, nil
	})
}
