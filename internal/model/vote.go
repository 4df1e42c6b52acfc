package model

import "time"

// Vote carries the owning movie so one vote per (user, movie) can be a unique key.
type Vote struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint64    `gorm:"not null;uniqueIndex:uk_user_movie" json:"user_id"`
	MovieID      uint64    `gorm:"not null;uniqueIndex:uk_user_movie" json:"movie_id"`
	SuggestionID uint64    `gorm:"not null;index" json:"suggestion_id"`
	CreatedAt    time.Time `json:"created_at"`
}
