package model

import "time"

// User is the local profile linked to an external identity subject.
type User struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Subject   string    `gorm:"uniqueIndex;size:191;not null" json:"-"`
	Email     string    `gorm:"size:191" json:"email"`
	Name      string    `gorm:"size:128" json:"name"`
	IsAdmin   bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
