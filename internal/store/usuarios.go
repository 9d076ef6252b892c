package store

import (
	"context"

	"social-service/internal/model"

	"gorm.io/gorm"
)

// UsuarioStore is the typed accessor for the usuarios table
type UsuarioStore struct {
	db *gorm.DB
}

// FindBySubject resolves the identity-provider subject id to a usuario.
// Inactive rows are excluded: a soft-deleted user has no identity here.
func (s *UsuarioStore) FindBySubject(ctx context.Context, subjectID string) (*model.Usuario, error) {
	var u model.Usuario
	err := s.db.WithContext(ctx).
		Where("subject_id = ? AND active = ?", subjectID, true).
		First(&u).Error
	if err != nil {
		return nil, wrap("usuarios.find_by_subject", err)
	}
	return &u, nil
}

// FindBySubjectAnyState resolves a subject id regardless of the active flag.
// Webhook upserts need this so a re-created identity reactivates its row.
func (s *UsuarioStore) FindBySubjectAnyState(ctx context.Context, subjectID string) (*model.Usuario, error) {
	var u model.Usuario
	err := s.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		First(&u).Error
	if err != nil {
		return nil, wrap("usuarios.find_by_subject_any", err)
	}
	return &u, nil
}

// FindByID retrieves an active usuario by primary key
func (s *UsuarioStore) FindByID(ctx context.Context, id uint) (*model.Usuario, error) {
	var u model.Usuario
	err := s.db.WithContext(ctx).
		Where("id = ? AND active = ?", id, true).
		First(&u).Error
	if err != nil {
		return nil, wrap("usuarios.find_by_id", err)
	}
	return &u, nil
}

// List returns active usuarios, optionally restricted to one empresa
func (s *UsuarioStore) List(ctx context.Context, empresaID *uint) ([]model.Usuario, error) {
	q := s.db.WithContext(ctx).Where("active = ?", true)
	if empresaID != nil {
		q = q.Where("empresa_id = ?", *empresaID)
	}
	var usuarios []model.Usuario
	if err := q.Order("id").Find(&usuarios).Error; err != nil {
		return nil, wrap("usuarios.list", err)
	}
	return usuarios, nil
}

// Create inserts a new usuario row
func (s *UsuarioStore) Create(ctx context.Context, u *model.Usuario) error {
	return wrap("usuarios.create", s.db.WithContext(ctx).Create(u).Error)
}

// Save persists every field of an existing usuario row
func (s *UsuarioStore) Save(ctx context.Context, u *model.Usuario) error {
	return wrap("usuarios.save", s.db.WithContext(ctx).Save(u).Error)
}

// Assign updates a usuario's role and empresa reference
func (s *UsuarioStore) Assign(ctx context.Context, id uint, role model.Role, empresaID *uint) error {
	result := s.db.WithContext(ctx).Model(&model.Usuario{}).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]interface{}{"role": role, "empresa_id": empresaID})
	if result.Error != nil {
		return wrap("usuarios.assign", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete clears the active flag; the row stays behind
func (s *UsuarioStore) SoftDelete(ctx context.Context, subjectID string) error {
	result := s.db.WithContext(ctx).Model(&model.Usuario{}).
		Where("subject_id = ?", subjectID).
		Update("active", false)
	if result.Error != nil {
		return wrap("usuarios.soft_delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
