package mysql

import (
	"context"
	"encoding/json"
	"time"

	"Title_Vote/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OutboxRepository struct {
	DB *gorm.DB
}

// writeOutbox must be called with the business transaction so the event and
// the change it describes commit together.
func writeOutbox(tx *gorm.DB, event string, aggregateID uint64, data map[string]any) error {
	eventID := uuid.NewString()
	body := map[string]any{
		"event_id":   eventID,
		"event_type": event,
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
		"data":       data,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return tx.Create(&model.EventOutbox{
		EventID:     eventID,
		EventType:   event,
		AggregateID: aggregateID,
		Payload:     string(payload),
		Status:      model.OutboxPending,
	}).Error
}

// List returns pending rows and failed rows that still have retries left, oldest first.
func (r *OutboxRepository) List(ctx context.Context, batchSize, maxRetry int) ([]model.EventOutbox, error) {
	var list []model.EventOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = ? OR (status = ? AND retry < ?)", model.OutboxPending, model.OutboxFailed, maxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.EventOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.EventOutbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}
