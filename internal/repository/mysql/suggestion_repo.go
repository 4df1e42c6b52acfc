package mysql

import (
	"context"
	"strings"

	"Title_Vote/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SuggestionRepository struct {
	DB *gorm.DB
}

func (r *SuggestionRepository) FindByID(ctx context.Context, id uint64) (*model.TitleSuggestion, error) {
	var s model.TitleSuggestion
	if err := r.DB.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// ListByMovie orders by votes descending, newest first among equals. limit <= 0 means all.
func (r *SuggestionRepository) ListByMovie(ctx context.Context, movieID uint64, limit int) ([]model.TitleSuggestion, error) {
	q := r.DB.WithContext(ctx).Where("movie_id = ?", movieID).Order("votes_count DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []model.TitleSuggestion
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SuggestionRepository) ListByCreator(ctx context.Context, userID uint64) ([]model.TitleSuggestion, error) {
	var rows []model.TitleSuggestion
	if err := r.DB.WithContext(ctx).Where("created_by = ?", userID).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SuggestionRepository) MapByIDs(ctx context.Context, ids []uint64) (map[uint64]model.TitleSuggestion, error) {
	out := make(map[uint64]model.TitleSuggestion, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []model.TitleSuggestion
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, s := range rows {
		out[s.ID] = s
	}
	return out, nil
}

// TitleTaken compares trimmed titles exactly; case is significant.
func (r *SuggestionRepository) TitleTaken(ctx context.Context, movieID uint64, title string) (bool, error) {
	return titleTaken(r.DB.WithContext(ctx), movieID, title)
}

func titleTaken(db *gorm.DB, movieID uint64, title string) (bool, error) {
	var titles []string
	if err := db.Model(&model.TitleSuggestion{}).Where("movie_id = ?", movieID).Pluck("title", &titles).Error; err != nil {
		return false, err
	}
	want := strings.TrimSpace(title)
	for _, t := range titles {
		if strings.TrimSpace(t) == want {
			return true, nil
		}
	}
	return false, nil
}

// Create inserts s after re-checking the title under a lock on the movie row.
// ErrDuplicate reports a taken title, ErrNotFound a missing movie.
func (r *SuggestionRepository) Create(ctx context.Context, s *model.TitleSuggestion) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.Movie
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&m, s.MovieID).Error; err != nil {
			return err
		}
		taken, err := titleTaken(tx, s.MovieID, s.Title)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicate
		}
		if err = tx.Create(s).Error; err != nil {
			return err
		}
		return writeOutbox(tx, "suggestion.created", s.ID, map[string]any{
			"movie_id":    s.MovieID,
			"title":       s.Title,
			"is_official": s.IsOfficial,
			"created_by":  s.CreatedBy,
		})
	})
	return translate(err)
}

// Delete removes the suggestion with its votes and comments and takes its
// vote count off the movie total. It returns the movie as committed.
func (r *SuggestionRepository) Delete(ctx context.Context, id uint64) (*model.Movie, error) {
	var m model.Movie
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s model.TitleSuggestion
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, id).Error; err != nil {
			return err
		}
		if err := removeSuggestion(tx, &s); err != nil {
			return err
		}
		if err := writeOutbox(tx, "suggestion.deleted", s.ID, map[string]any{
			"movie_id": s.MovieID,
			"votes":    s.VotesCount,
		}); err != nil {
			return err
		}
		return tx.First(&m, s.MovieID).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// removeSuggestion is the cascade shared by owner deletion and report approval.
func removeSuggestion(tx *gorm.DB, s *model.TitleSuggestion) error {
	if err := tx.Where("suggestion_id = ?", s.ID).Delete(&model.Vote{}).Error; err != nil {
		return err
	}
	if err := tx.Where("suggestion_id = ?", s.ID).Delete(&model.Comment{}).Error; err != nil {
		return err
	}
	if s.VotesCount > 0 {
		if err := tx.Model(&model.Movie{}).Where("id = ?", s.MovieID).
			UpdateColumn("total_votes", floorSub("total_votes", s.VotesCount)).Error; err != nil {
			return err
		}
	}
	return tx.Delete(&model.TitleSuggestion{}, s.ID).Error
}
