package mysql

import (
	"context"
	"fmt"

	"Title_Vote/internal/model"

	"gorm.io/gorm"
)

type MovieRepository struct {
	DB *gorm.DB
}

// floorSub subtracts n from col without going below zero.
func floorSub(col string, n int64) any {
	return gorm.Expr(fmt.Sprintf("CASE WHEN %s > ? THEN %s - ? ELSE 0 END", col, col), n, n)
}

// Create inserts the movie and, when given, its official suggestion in one
// transaction. A taken short id or registry code yields ErrDuplicate.
func (r *MovieRepository) Create(ctx context.Context, m *model.Movie, official *model.TitleSuggestion) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		if official != nil {
			official.MovieID = m.ID
			official.IsOfficial = true
			if err := tx.Create(official).Error; err != nil {
				return err
			}
		}
		return writeOutbox(tx, "movie.created", m.ID, map[string]any{
			"short_id":   m.ShortID,
			"kobis_code": m.Code(),
			"title":      m.OriginalTitle,
		})
	})
	return translate(err)
}

func (r *MovieRepository) FindByID(ctx context.Context, id uint64) (*model.Movie, error) {
	var m model.Movie
	if err := r.DB.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *MovieRepository) FindByShortID(ctx context.Context, shortID string) (*model.Movie, error) {
	var m model.Movie
	if err := r.DB.WithContext(ctx).Where("short_id = ?", shortID).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *MovieRepository) FindByCode(ctx context.Context, code string) (*model.Movie, error) {
	var m model.Movie
	if err := r.DB.WithContext(ctx).Where("kobis_movie_code = ?", code).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *MovieRepository) ShortIDTaken(ctx context.Context, shortID string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&model.Movie{}).Where("short_id = ?", shortID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// IncrementView bumps the view counter and returns the movie as committed.
func (r *MovieRepository) IncrementView(ctx context.Context, id uint64) (*model.Movie, error) {
	var m model.Movie
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Movie{}).Where("id = ?", id).
			UpdateColumn("view_count", gorm.Expr("view_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&m, id).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// ListByIDs loads the movies in ids, in no particular order.
func (r *MovieRepository) ListByIDs(ctx context.Context, ids []uint64) ([]model.Movie, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []model.Movie
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Scan walks the whole table in primary key order, batchSize rows at a time.
func (r *MovieRepository) Scan(ctx context.Context, batchSize int, fn func(batch []model.Movie) error) error {
	var rows []model.Movie
	return r.DB.WithContext(ctx).FindInBatches(&rows, batchSize, func(tx *gorm.DB, _ int) error {
		return fn(rows)
	}).Error
}

func (r *MovieRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Movie{}).Count(&n).Error
	return n, err
}
