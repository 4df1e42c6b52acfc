package mysql

import (
	"context"

	"Title_Vote/internal/model"

	"gorm.io/gorm"
)

type BanRepository struct {
	DB *gorm.DB
}

// ActiveBan returns the most recent ban still flagged active, or ErrNotFound.
// Expiry is left to the caller.
func (r *BanRepository) ActiveBan(ctx context.Context, userID uint64) (*model.UserBan, error) {
	var b model.UserBan
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("banned_at DESC").Order("id DESC").
		First(&b).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *BanRepository) CountRemoved(ctx context.Context, userID uint64) (int64, error) {
	return countRemoved(r.DB.WithContext(ctx), userID)
}

func countRemoved(db *gorm.DB, userID uint64) (int64, error) {
	var n int64
	err := db.Model(&model.RemovedSuggestion{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// Ban deactivates every active ban of the user and inserts b, keeping at
// most one active ban per user.
func (r *BanRepository) Ban(ctx context.Context, b *model.UserBan) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.UserBan{}).
			Where("user_id = ? AND is_active = ?", b.UserID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		n, err := countRemoved(tx, b.UserID)
		if err != nil {
			return err
		}
		b.RemovedSuggestionsCount = n
		b.IsActive = true
		if err = tx.Create(b).Error; err != nil {
			return err
		}
		return writeOutbox(tx, "user.banned", b.UserID, map[string]any{
			"ban_id":     b.ID,
			"banned_by":  b.BannedBy,
			"expires_at": b.ExpiresAt,
		})
	})
}

// Unban deactivates every active ban of the user and reports how many there were.
func (r *BanRepository) Unban(ctx context.Context, userID, adminID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.UserBan{}).
			Where("user_id = ? AND is_active = ?", userID, true).
			Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		n = res.RowsAffected
		return writeOutbox(tx, "user.unbanned", userID, map[string]any{
			"unbanned_by": adminID,
			"deactivated": n,
		})
	})
	return n, err
}

// ListByUser returns the ban history, newest first.
func (r *BanRepository) ListByUser(ctx context.Context, userID uint64) ([]model.UserBan, error) {
	var rows []model.UserBan
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
