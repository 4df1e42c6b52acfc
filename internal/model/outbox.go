package model

import "time"

const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

// EventOutbox rows are written in the same transaction as the change they describe.
type EventOutbox struct {
	ID          uint64 `gorm:"primaryKey"`
	EventID     string `gorm:"size:36;uniqueIndex;not null"`
	EventType   string `gorm:"size:32;not null"` // vote.cast / suggestion.removed / ...
	AggregateID uint64 `gorm:"not null"`
	Payload     string `gorm:"type:text;not null"`
	Status      int8   `gorm:"not null;default:0;index;comment:'0=pending,1=sent,2=failed'"`
	Retry       int    `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (EventOutbox) TableName() string { return "event_outbox" }
