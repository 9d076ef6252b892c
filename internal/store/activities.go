package store

import (
	"context"

	"social-service/internal/model"

	"gorm.io/gorm"
)

// ActivityStore is the typed accessor for the audit activities table
type ActivityStore struct {
	db *gorm.DB
}

// Record appends one audit entry
func (s *ActivityStore) Record(ctx context.Context, empresaID, userID uint, activityType, description string) error {
	activity := model.Activity{
		EmpresaID:   empresaID,
		UserID:      userID,
		Type:        activityType,
		Description: description,
	}
	return wrap("activities.record", s.db.WithContext(ctx).Create(&activity).Error)
}

// ListByEmpresa returns an empresa's audit entries, newest first
func (s *ActivityStore) ListByEmpresa(ctx context.Context, empresaID uint, limit int) ([]model.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	var activities []model.Activity
	err := s.db.WithContext(ctx).
		Where("empresa_id = ?", empresaID).
		Order("id DESC").
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, wrap("activities.list", err)
	}
	return activities, nil
}
