package mysql

import (
	"context"

	"Title_Vote/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReconcileRepository recomputes the denormalized vote counters from the
// vote rows they summarize.
type ReconcileRepository struct {
	DB *gorm.DB
}

// MovieFix is what one movie's recount found and repaired.
type MovieFix struct {
	Suggestions      int
	FixedSuggestions int
	FixedTotal       bool
}

// MovieBatch pages through movie ids. The returned cursor is the last id seen.
func (r *ReconcileRepository) MovieBatch(ctx context.Context, batchSize int, lastID uint64) ([]uint64, uint64, error) {
	var ids []uint64
	if err := r.DB.WithContext(ctx).Model(&model.Movie{}).
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(batchSize).
		Pluck("id", &ids).Error; err != nil {
		return nil, lastID, err
	}
	if len(ids) == 0 {
		return nil, lastID, nil
	}
	return ids, ids[len(ids)-1], nil
}

// Reconcile recounts one movie under row locks. Suggestions are locked
// before the movie, the order Cast and Cancel take them in, so a vote
// either lands before the recount or waits for it.
func (r *ReconcileRepository) Reconcile(ctx context.Context, movieID uint64) (MovieFix, error) {
	var fix MovieFix
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var suggestions []model.TitleSuggestion
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "votes_count").
			Where("movie_id = ?", movieID).
			Order("id ASC").
			Find(&suggestions).Error; err != nil {
			return err
		}
		var m model.Movie
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "total_votes").
			First(&m, movieID).Error; err != nil {
			return err
		}

		var rows []struct {
			SuggestionID uint64
			N            int64
		}
		if err := tx.Model(&model.Vote{}).
			Select("suggestion_id, COUNT(*) AS n").
			Where("movie_id = ?", movieID).
			Group("suggestion_id").
			Scan(&rows).Error; err != nil {
			return err
		}
		live := make(map[uint64]int64, len(rows))
		var total int64
		for _, row := range rows {
			live[row.SuggestionID] = row.N
			total += row.N
		}

		for _, s := range suggestions {
			fix.Suggestions++
			if n := live[s.ID]; n != s.VotesCount {
				if err := tx.Model(&model.TitleSuggestion{}).Where("id = ?", s.ID).
					UpdateColumn("votes_count", n).Error; err != nil {
					return err
				}
				fix.FixedSuggestions++
			}
		}
		if total != m.TotalVotes {
			if err := tx.Model(&model.Movie{}).Where("id = ?", movieID).
				UpdateColumn("total_votes", total).Error; err != nil {
				return err
			}
			fix.FixedTotal = true
		}
		return nil
	})
	if err != nil {
		return MovieFix{}, translate(err)
	}
	return fix, nil
}
