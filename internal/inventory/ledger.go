package inventory

import (
	"context"
	"time"

	"storefront-be/internal/apperror"
	"storefront-be/internal/db"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"

	"go.uber.org/zap"
)

// Ledger answers how much of a variant can still be reserved.
type Ledger struct {
	repo Repository
}

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// AvailableStock is stock - sold - active reservations, clamped at zero.
// Expired reservations are ignored whether or not the reaper has run.
// Callers must not reserve based on this value alone; Reserve re-reads it
// under the variant lock.
func (l *Ledger) AvailableStock(ctx context.Context, q db.Querier, variantID string, now time.Time) (int64, error) {
	v, err := l.repo.GetVariant(ctx, q, variantID)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, apperror.UnknownVariant(variantID)
	}
	return l.available(ctx, q, v, "", now)
}

func (l *Ledger) available(ctx context.Context, q db.Querier, v *Variant, excludeCartID string, now time.Time) (int64, error) {
	reserved, err := l.repo.SumActiveReservations(ctx, q, v.ID, excludeCartID, now)
	if err != nil {
		return 0, err
	}

	raw := v.Stock - v.Sold - reserved
	if raw < 0 {
		metrics.StockIntegrityViolations.Inc()
		logger.FromCtx(ctx).Warn("negative available stock",
			zap.String("layer", "inventory"),
			zap.String("variant_id", v.ID),
			zap.Int64("stock", v.Stock),
			zap.Int64("sold", v.Sold),
			zap.Int64("reserved", reserved),
			zap.Int64("raw_available", raw),
		)
		return 0, nil
	}
	return raw, nil
}
