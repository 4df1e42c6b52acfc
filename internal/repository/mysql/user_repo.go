package mysql

import (
	"context"

	"Title_Vote/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) FindBySubject(ctx context.Context, subject string) (*model.User, error) {
	var u model.User
	if err := r.DB.WithContext(ctx).Where("subject = ?", subject).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	if err := r.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// CreateIfAbsent inserts u unless the subject is already taken; a concurrent
// first sight of the same identity is a no-op for the loser.
func (r *UserRepository) CreateIfAbsent(ctx context.Context, u *model.User) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "subject"}}, DoNothing: true}).
		Create(u).Error
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uint64, email, name string) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]any{"email": email, "name": name}).Error
}

func (r *UserRepository) MapByIDs(ctx context.Context, ids []uint64) (map[uint64]model.User, error) {
	out := make(map[uint64]model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []model.User
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, u := range rows {
		out[u.ID] = u
	}
	return out, nil
}
