package service

import (
	"context"
	"time"

	"Title_Vote/internal/model"
	"Title_Vote/internal/pkg"
	"Title_Vote/internal/repository/mysql"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	DefaultOutboxBatch    = 200
	DefaultOutboxInterval = time.Second
	MaxOutboxRetry        = 10
)

// Sender delivers one outbox row. A returned error leaves the row for retry.
type Sender func(ctx context.Context, ob *model.EventOutbox) error

// OutboxRelayer drains the event outbox to a broker.
type OutboxRelayer struct {
	repo      *mysql.OutboxRepository
	batchSize int
	interval  time.Duration
	sender    Sender
	log       *log.Helper
}

func NewOutboxRelayer(repo *mysql.OutboxRepository, sender Sender, batchSize int, interval time.Duration, logger log.Logger) *OutboxRelayer {
	if batchSize <= 0 {
		batchSize = DefaultOutboxBatch
	}
	if interval <= 0 {
		interval = DefaultOutboxInterval
	}
	return &OutboxRelayer{
		repo:      repo,
		batchSize: batchSize,
		interval:  interval,
		sender:    sender,
		log:       log.NewHelper(log.With(logger, "module", "service/outbox")),
	}
}

func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.DrainOnce(ctx)
		}
	}
}

// DrainOnce sends one batch and returns how many rows were delivered.
func (r *OutboxRelayer) DrainOnce(ctx context.Context) int {
	rows, err := r.repo.List(ctx, r.batchSize, MaxOutboxRetry)
	if err != nil {
		r.log.Errorf("outbox query: %v", err)
		return 0
	}
	sent := 0
	for i := range rows {
		ob := &rows[i]
		if err = r.sender(ctx, ob); err != nil {
			r.log.Warnf("outbox send %s id=%d retry=%d: %v", ob.EventType, ob.ID, ob.Retry, err)
			if err = r.repo.MarkFailed(ctx, ob.ID); err != nil {
				r.log.Errorf("outbox mark failed id=%d: %v", ob.ID, err)
			}
			continue
		}
		if err = r.repo.MarkSent(ctx, ob.ID); err != nil {
			r.log.Errorf("outbox mark sent id=%d: %v", ob.ID, err)
			continue
		}
		sent++
	}
	return sent
}

// LogSender only logs the event. It is used when no broker is configured.
func LogSender(logger log.Logger) Sender {
	h := log.NewHelper(log.With(logger, "module", "outbox/log"))
	return func(ctx context.Context, ob *model.EventOutbox) error {
		h.Infof("OUTBOX SEND type=%s aggregate=%d payload=%s", ob.EventType, ob.AggregateID, ob.Payload)
		return nil
	}
}

func KafkaSender(p *pkg.KafkaPublisher) Sender {
	return func(ctx context.Context, ob *model.EventOutbox) error {
		return p.Publish(ctx, ob.AggregateID, ob.EventType, []byte(ob.Payload))
	}
}

func AMQPSender(p *pkg.AMQPPublisher) Sender {
	return func(ctx context.Context, ob *model.EventOutbox) error {
		return p.Publish(ctx, ob.EventID, ob.EventType, []byte(ob.Payload))
	}
}
