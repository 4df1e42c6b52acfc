package mysql

import (
	"context"

	"Title_Vote/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VoteRepository struct {
	DB *gorm.DB
}

// FindOnMovie returns the caller's vote on any suggestion of the movie.
func (r *VoteRepository) FindOnMovie(ctx context.Context, userID, movieID uint64) (*model.Vote, error) {
	var v model.Vote
	if err := r.DB.WithContext(ctx).Where("user_id = ? AND movie_id = ?", userID, movieID).First(&v).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// Cast records the vote and bumps both counters in one transaction.
// ErrDuplicate means the user already holds a vote on this movie.
func (r *VoteRepository) Cast(ctx context.Context, userID, suggestionID uint64) (*model.Movie, error) {
	var m model.Movie
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s model.TitleSuggestion
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, suggestionID).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&model.Vote{}).Where("user_id = ? AND movie_id = ?", userID, s.MovieID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicate
		}
		if err := tx.Create(&model.Vote{UserID: userID, MovieID: s.MovieID, SuggestionID: s.ID}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.TitleSuggestion{}).Where("id = ?", s.ID).
			UpdateColumn("votes_count", gorm.Expr("votes_count + 1")).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Movie{}).Where("id = ?", s.MovieID).
			UpdateColumn("total_votes", gorm.Expr("total_votes + 1")).Error; err != nil {
			return err
		}
		if err := writeOutbox(tx, "vote.cast", s.ID, map[string]any{
			"user_id":  userID,
			"movie_id": s.MovieID,
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

// Cancel deletes the caller's vote on the suggestion and takes it back off
// both counters, flooring at zero. ErrNotFound means there was no vote.
func (r *VoteRepository) Cancel(ctx context.Context, userID, suggestionID uint64) (*model.Movie, error) {
	var m model.Movie
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v model.Vote
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND suggestion_id = ?", userID, suggestionID).First(&v).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Vote{}, v.ID).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.TitleSuggestion{}).Where("id = ?", suggestionID).
			UpdateColumn("votes_count", floorSub("votes_count", 1)).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Movie{}).Where("id = ?", v.MovieID).
			UpdateColumn("total_votes", floorSub("total_votes", 1)).Error; err != nil {
			return err
		}
		if err := writeOutbox(tx, "vote.cancelled", suggestionID, map[string]any{
			"user_id":  userID,
			"movie_id": v.MovieID,
		}); err != nil {
			return err
		}
		return tx.First(&m, v.MovieID).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *VoteRepository) ListByUser(ctx context.Context, userID uint64) ([]model.Vote, error) {
	var rows []model.Vote
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *VoteRepository) CountBySuggestion(ctx context.Context, suggestionID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Vote{}).Where("suggestion_id = ?", suggestionID).Count(&n).Error
	return n, err
}
