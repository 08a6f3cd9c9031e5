package outbox

import (
	"context"
	"errors"
	"time"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const defaultBatchSize = 100

// Poller publishes pending outbox events in id order. Delivery is at least
// once: an event is marked only after the publisher accepted it.
type Poller struct {
	repo      Repository
	q         db.Querier
	publisher Publisher
	interval  time.Duration
	batchSize int
}

func NewPoller(repo Repository, q db.Querier, publisher Publisher, interval time.Duration) *Poller {
	return &Poller{
		repo:      repo,
		q:         q,
		publisher: publisher,
		interval:  interval,
		batchSize: defaultBatchSize,
	}
}

func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.ProcessOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// ProcessOnce returns the number of events published. It stops at the first
// failure so later events never overtake an earlier one.
func (p *Poller) ProcessOnce(ctx context.Context) int {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "outbox"),
		zap.String("method", "ProcessOnce"),
	)

	events, err := p.repo.FetchPending(ctx, p.q, p.batchSize)
	if err != nil {
		log.Error("failed to fetch pending events", zap.Error(err))
		return 0
	}

	published := 0
	for _, e := range events {
		if err := p.publisher.Publish(ctx, e); err != nil {
			result := "failed"
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				result = "breaker_open"
			}
			metrics.OutboxPublished.WithLabelValues(result).Inc()
			log.Warn("failed to publish event",
				zap.Int64("id", e.ID),
				zap.String("event_type", e.EventType),
				zap.Error(err),
			)
			return published
		}

		if err := p.repo.MarkPublished(ctx, p.q, e.ID); err != nil {
			log.Error("failed to mark event as published", zap.Int64("id", e.ID), zap.Error(err))
			return published
		}

		metrics.OutboxPublished.WithLabelValues("published").Inc()
		published++
	}

	if published > 0 {
		log.Debug("outbox events published", zap.Int("count", published))
	}
	return published
}
