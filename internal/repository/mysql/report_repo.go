package mysql

import (
	"context"
	"time"

	"Title_Vote/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReportRepository struct {
	DB *gorm.DB
}

// ReportCounts groups reports on one suggestion or one author's suggestions.
type ReportCounts struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Total    int64 `json:"total"`
}

func (c *ReportCounts) add(status string, n int64) {
	switch status {
	case model.ReportPending:
		c.Pending += n
	case model.ReportApproved:
		c.Approved += n
	case model.ReportRejected:
		c.Rejected += n
	}
	c.Total += n
}

type statusCount struct {
	Status string
	N      int64
}

// Exists ignores status: a reporter gets one report per suggestion, ever.
func (r *ReportRepository) Exists(ctx context.Context, suggestionID, reporterID uint64) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&model.Report{}).
		Where("suggestion_id = ? AND reported_by = ?", suggestionID, reporterID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *ReportRepository) Create(ctx context.Context, rp *model.Report) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rp).Error; err != nil {
			return err
		}
		return writeOutbox(tx, "report.created", rp.ID, map[string]any{
			"suggestion_id": rp.SuggestionID,
			"reported_by":   rp.ReportedBy,
		})
	})
	return translate(err)
}

func (r *ReportRepository) FindByID(ctx context.Context, id uint64) (*model.Report, error) {
	var rp model.Report
	if err := r.DB.WithContext(ctx).First(&rp, id).Error; err != nil {
		return nil, translate(err)
	}
	return &rp, nil
}

func (r *ReportRepository) ListPending(ctx context.Context) ([]model.Report, error) {
	var rows []model.Report
	if err := r.DB.WithContext(ctx).Where("status = ?", model.ReportPending).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReportRepository) CountBySuggestion(ctx context.Context, suggestionID uint64) (ReportCounts, error) {
	var rows []statusCount
	var out ReportCounts
	if err := r.DB.WithContext(ctx).Model(&model.Report{}).
		Select("status, COUNT(*) AS n").
		Where("suggestion_id = ?", suggestionID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return out, err
	}
	for _, row := range rows {
		out.add(row.Status, row.N)
	}
	return out, nil
}

// CountByAuthor counts reports filed against the user's live suggestions.
func (r *ReportRepository) CountByAuthor(ctx context.Context, userID uint64) (ReportCounts, error) {
	var rows []statusCount
	var out ReportCounts
	if err := r.DB.WithContext(ctx).Table("reports").
		Select("reports.status AS status, COUNT(*) AS n").
		Joins("JOIN title_suggestions ON title_suggestions.id = reports.suggestion_id").
		Where("title_suggestions.created_by = ?", userID).
		Group("reports.status").
		Scan(&rows).Error; err != nil {
		return out, err
	}
	for _, row := range rows {
		out.add(row.Status, row.N)
	}
	return out, nil
}

// Reject moves a pending report to rejected. ErrStateChanged means it was
// no longer pending.
func (r *ReportRepository) Reject(ctx context.Context, id, adminID uint64, note string, at time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := review(tx, id, adminID, model.ReportRejected, note, at); err != nil {
			return err
		}
		return writeOutbox(tx, "report.rejected", id, map[string]any{"reviewed_by": adminID})
	})
}

// Approve archives the reported suggestion, runs the deletion cascade and
// closes the report, all in one transaction. It returns the archive row and
// the movie as committed.
func (r *ReportRepository) Approve(ctx context.Context, id, adminID uint64, note string, at time.Time) (*model.RemovedSuggestion, *model.Movie, error) {
	var (
		archived model.RemovedSuggestion
		m        model.Movie
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rp model.Report
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rp, id).Error; err != nil {
			return err
		}
		if rp.Status != model.ReportPending {
			return ErrStateChanged
		}
		var s model.TitleSuggestion
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, rp.SuggestionID).Error; err != nil {
			return err
		}
		archived = model.RemovedSuggestion{
			OriginalSuggestionID: s.ID,
			MovieID:              s.MovieID,
			UserID:               s.CreatedBy,
			Title:                s.Title,
			Votes:                s.VotesCount,
			CreatedAt:            s.CreatedAt,
			RemovedAt:            at,
			RemovedBy:            adminID,
			RemovalReason:        rp.Reason,
			ReportID:             rp.ID,
		}
		if err := tx.Create(&archived).Error; err != nil {
			return err
		}
		if err := removeSuggestion(tx, &s); err != nil {
			return err
		}
		if err := review(tx, id, adminID, model.ReportApproved, note, at); err != nil {
			return err
		}
		if err := writeOutbox(tx, "suggestion.removed", s.ID, map[string]any{
			"movie_id":  s.MovieID,
			"report_id": rp.ID,
			"votes":     s.VotesCount,
			"author":    s.CreatedBy,
		}); err != nil {
			return err
		}
		return tx.First(&m, s.MovieID).Error
	})
	if err != nil {
		return nil, nil, translate(err)
	}
	return &archived, &m, nil
}

func review(tx *gorm.DB, id, adminID uint64, status, note string, at time.Time) error {
	res := tx.Model(&model.Report{}).
		Where("id = ? AND status = ?", id, model.ReportPending).
		Updates(map[string]any{
			"status":      status,
			"reviewed_by": adminID,
			"reviewed_at": at,
			"admin_note":  note,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStateChanged
	}
	return nil
}
