package model

import "time"

const (
	ReportPending  = "pending"
	ReportApproved = "approved"
	ReportRejected = "rejected"
)

type Report struct {
	ID           uint64     `gorm:"primaryKey" json:"id"`
	SuggestionID uint64     `gorm:"not null;uniqueIndex:uk_suggestion_reporter" json:"suggestion_id"`
	ReportedBy   uint64     `gorm:"not null;uniqueIndex:uk_suggestion_reporter" json:"reported_by"`
	Reason       string     `gorm:"size:500;not null" json:"reason"`
	Status       string     `gorm:"size:16;not null;default:pending;index" json:"status"`
	ReportedAt   time.Time  `gorm:"not null" json:"reported_at"`
	ReviewedBy   *uint64    `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	AdminNote    string     `gorm:"size:500" json:"admin_note,omitempty"`
}

// UserBan with a nil ExpiresAt is permanent. IsActive alone does not mean
// the ban is enforced; see Enforced.
type UserBan struct {
	ID                      uint64     `gorm:"primaryKey" json:"id"`
	UserID                  uint64     `gorm:"not null;index:idx_user_active,priority:1" json:"user_id"`
	BannedBy                uint64     `gorm:"not null" json:"banned_by"`
	BannedAt                time.Time  `gorm:"not null" json:"banned_at"`
	Reason                  string     `gorm:"size:500;not null" json:"reason"`
	ExpiresAt               *time.Time `json:"expires_at,omitempty"`
	IsActive                bool       `gorm:"not null;index:idx_user_active,priority:2" json:"is_active"`
	RemovedSuggestionsCount int64      `gorm:"not null;default:0" json:"removed_suggestions_count"`
	AdminNote               string     `gorm:"size:500" json:"admin_note,omitempty"`
}

func (b *UserBan) Enforced(now time.Time) bool {
	if b == nil || !b.IsActive {
		return false
	}
	return b.ExpiresAt == nil || !b.ExpiresAt.Before(now)
}
