package mysql

import (
	"context"

	"Title_Vote/internal/model"

	"gorm.io/gorm"
)

type CommentRepository struct {
	DB *gorm.DB
}

func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *CommentRepository) ListBySuggestion(ctx context.Context, suggestionID uint64) ([]model.Comment, error) {
	var rows []model.Comment
	if err := r.DB.WithContext(ctx).Where("suggestion_id = ?", suggestionID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CommentRepository) CountBySuggestion(ctx context.Context, suggestionID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Comment{}).Where("suggestion_id = ?", suggestionID).Count(&n).Error
	return n, err
}
