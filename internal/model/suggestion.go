package model

import "time"

type TitleSuggestion struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	MovieID     uint64    `gorm:"not null;index:idx_movie_votes,priority:1" json:"movie_id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	VotesCount  int64     `gorm:"not null;default:0;index:idx_movie_votes,priority:2" json:"votes_count"`
	IsOfficial  bool      `gorm:"not null;default:false" json:"is_official"`
	CreatedBy   *uint64   `gorm:"index" json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Comment hangs off a suggestion and only goes away with it.
type Comment struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	SuggestionID uint64    `gorm:"not null;index" json:"suggestion_id"`
	UserID       uint64    `gorm:"not null" json:"user_id"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}

// RemovedSuggestion is the archive row written when a report is approved.
type RemovedSuggestion struct {
	ID                   uint64    `gorm:"primaryKey" json:"id"`
	OriginalSuggestionID uint64    `gorm:"not null" json:"original_suggestion_id"`
	MovieID              uint64    `gorm:"not null;index" json:"movie_id"`
	UserID               *uint64   `gorm:"index" json:"user_id,omitempty"`
	Title                string    `gorm:"size:200;not null" json:"title"`
	Votes                int64     `gorm:"not null" json:"votes"`
	CreatedAt            time.Time `json:"created_at"`
	RemovedAt            time.Time `gorm:"not null" json:"removed_at"`
	RemovedBy            uint64    `gorm:"not null" json:"removed_by"`
	RemovalReason        string    `gorm:"size:500" json:"removal_reason"`
	ReportID             uint64    `gorm:"not null" json:"report_id"`
}
