package store

import (
	"context"
	"time"

	"social-service/internal/model"

	"gorm.io/gorm"
)

// PostStore is the typed accessor for the posts table
type PostStore struct {
	db *gorm.DB
}

// FindByID retrieves an active post scoped to one empresa
func (s *PostStore) FindByID(ctx context.Context, empresaID, id uint) (*model.Post, error) {
	var p model.Post
	err := s.db.WithContext(ctx).
		Where("id = ? AND empresa_id = ? AND active = ?", id, empresaID, true).
		First(&p).Error
	if err != nil {
		return nil, wrap("posts.find_by_id", err)
	}
	return &p, nil
}

// ListByEmpresa returns an empresa's active posts, newest first
func (s *PostStore) ListByEmpresa(ctx context.Context, empresaID uint) ([]model.Post, error) {
	var posts []model.Post
	err := s.db.WithContext(ctx).
		Where("empresa_id = ? AND active = ?", empresaID, true).
		Order("id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, wrap("posts.list", err)
	}
	return posts, nil
}

// Create inserts a new post
func (s *PostStore) Create(ctx context.Context, p *model.Post) error {
	return wrap("posts.create", s.db.WithContext(ctx).Create(p).Error)
}

// Save persists every field of an existing post row
func (s *PostStore) Save(ctx context.Context, p *model.Post) error {
	return wrap("posts.save", s.db.WithContext(ctx).Save(p).Error)
}

// SoftDelete clears the active flag on an empresa's post
func (s *PostStore) SoftDelete(ctx context.Context, empresaID, id uint) error {
	result := s.db.WithContext(ctx).Model(&model.Post{}).
		Where("id = ? AND empresa_id = ? AND active = ?", id, empresaID, true).
		Update("active", false)
	if result.Error != nil {
		return wrap("posts.soft_delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DueScheduled returns scheduled posts whose time has come, oldest first
func (s *PostStore) DueScheduled(ctx context.Context, now time.Time) ([]model.Post, error) {
	var posts []model.Post
	err := s.db.WithContext(ctx).
		Where("status = ? AND active = ? AND scheduled_at <= ?", model.PostStatusScheduled, true, now).
		Order("scheduled_at").
		Find(&posts).Error
	if err != nil {
		return nil, wrap("posts.due_scheduled", err)
	}
	return posts, nil
}

// MarkPublished stamps a post as published now
func (s *PostStore) MarkPublished(ctx context.Context, id uint, publishedAt time.Time) error {
	return wrap("posts.mark_published", s.db.WithContext(ctx).Model(&model.Post{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       model.PostStatusPublished,
			"published_at": publishedAt,
			"fail_reason":  "",
		}).Error)
}

// MarkFailed stamps a post as failed with the reason
func (s *PostStore) MarkFailed(ctx context.Context, id uint, reason string) error {
	return wrap("posts.mark_failed", s.db.WithContext(ctx).Model(&model.Post{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      model.PostStatusFailed,
			"fail_reason": reason,
		}).Error)
}
