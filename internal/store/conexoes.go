package store

import (
	"context"

	"social-service/internal/model"

	"gorm.io/gorm"
)

// ConexaoStore is the typed accessor for the social_connections table
type ConexaoStore struct {
	db *gorm.DB
}

// FindActive returns the active connection of an empresa for one platform
func (s *ConexaoStore) FindActive(ctx context.Context, empresaID uint, platform model.Platform) (*model.SocialConnection, error) {
	var conn model.SocialConnection
	err := s.db.WithContext(ctx).
		Where("empresa_id = ? AND platform = ? AND active = ?", empresaID, platform, true).
		Order("id DESC").
		First(&conn).Error
	if err != nil {
		return nil, wrap("conexoes.find_active", err)
	}
	return &conn, nil
}

// ListByEmpresa returns all active connections of an empresa
func (s *ConexaoStore) ListByEmpresa(ctx context.Context, empresaID uint) ([]model.SocialConnection, error) {
	var conns []model.SocialConnection
	err := s.db.WithContext(ctx).
		Where("empresa_id = ? AND active = ?", empresaID, true).
		Order("id").
		Find(&conns).Error
	if err != nil {
		return nil, wrap("conexoes.list", err)
	}
	return conns, nil
}

// Create inserts a new connection. Any previous active connection for the
// same empresa and platform is deactivated first so FindActive stays single.
func (s *ConexaoStore) Create(ctx context.Context, conn *model.SocialConnection) error {
	err := s.db.WithContext(ctx).Model(&model.SocialConnection{}).
		Where("empresa_id = ? AND platform = ? AND active = ?", conn.EmpresaID, conn.Platform, true).
		Update("active", false).Error
	if err != nil {
		return wrap("conexoes.supersede", err)
	}
	return wrap("conexoes.create", s.db.WithContext(ctx).Create(conn).Error)
}

// Deactivate clears the active flag on an empresa's platform connection.
// The row stays behind as the audit trail.
func (s *ConexaoStore) Deactivate(ctx context.Context, empresaID uint, platform model.Platform) error {
	result := s.db.WithContext(ctx).Model(&model.SocialConnection{}).
		Where("empresa_id = ? AND platform = ? AND active = ?", empresaID, platform, true).
		Update("active", false)
	if result.Error != nil {
		return wrap("conexoes.deactivate", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
