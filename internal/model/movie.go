package model

import "time"

type Movie struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	ShortID        string    `gorm:"uniqueIndex;size:16;not null" json:"short_id"`
	OriginalTitle  string    `gorm:"size:255;not null" json:"original_title"`
	EnglishTitle   string    `gorm:"size:255" json:"english_title,omitempty"`
	KoreanTitle    string    `gorm:"size:255" json:"korean_title,omitempty"`
	ReleaseDate    string    `gorm:"size:16" json:"release_date,omitempty"`
	Year           int       `json:"year,omitempty"`
	Directors      string    `gorm:"size:255" json:"directors,omitempty"`
	AdditionalInfo string    `gorm:"size:255" json:"additional_info,omitempty"`
	KobisMovieCode *string   `gorm:"uniqueIndex;size:32" json:"kobis_movie_code,omitempty"`
	ViewCount      int64     `gorm:"not null;default:0" json:"view_count"`
	TotalVotes     int64     `gorm:"not null;default:0" json:"total_votes"`
	CreatedBy      *uint64   `json:"created_by,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"-"`
}

// Code returns the registry code or "" for manually added movies.
func (m *Movie) Code() string {
	if m.KobisMovieCode == nil {
		return ""
	}
	return *m.KobisMovieCode
}
