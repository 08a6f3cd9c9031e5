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

// ReservationManager owns the time-bounded stock holds of carts. Every method
// runs on the caller's transaction; atomicity comes from that transaction.
type ReservationManager struct {
	repo   Repository
	ledger *Ledger
	now    func() time.Time
}

func NewReservationManager(repo Repository, now func() time.Time) *ReservationManager {
	if now == nil {
		now = time.Now
	}
	return &ReservationManager{
		repo:   repo,
		ledger: NewLedger(repo),
		now:    func() time.Time { return now().UTC() },
	}
}

func (m *ReservationManager) Ledger() *Ledger {
	return m.ledger
}

// Reserve sets the cart's hold on variantID to quantity. The availability
// check runs strictly after the variant row lock is taken, so two carts
// racing for the last units cannot both pass it.
func (m *ReservationManager) Reserve(
	ctx context.Context,
	q db.Querier,
	variantID, cartID string,
	quantity int64,
	ttl time.Duration,
) (*Reservation, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "inventory"),
		zap.String("method", "Reserve"),
		zap.String("variant_id", variantID),
		zap.String("cart_id", cartID),
		zap.Int64("quantity", quantity),
	)

	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	v, err := m.repo.LockVariant(ctx, q, variantID)
	if err != nil {
		log.Error("failed to lock variant", zap.Error(err))
		return nil, err
	}
	if v == nil {
		metrics.Reservations.WithLabelValues("unknown_variant").Inc()
		return nil, apperror.UnknownVariant(variantID)
	}

	now := m.now()
	available, err := m.ledger.available(ctx, q, v, cartID, now)
	if err != nil {
		log.Error("failed to compute availability", zap.Error(err))
		return nil, err
	}

	if quantity > available {
		metrics.Reservations.WithLabelValues("insufficient_stock").Inc()
		log.Info("insufficient stock", zap.Int64("available", available))
		return nil, apperror.InsufficientStock(variantID, quantity, available)
	}

	res := Reservation{
		VariantID: variantID,
		CartID:    cartID,
		Quantity:  quantity,
		ExpiresAt: now.Add(ttl),
	}
	if err := m.repo.UpsertReservation(ctx, q, res); err != nil {
		log.Error("failed to upsert reservation", zap.Error(err))
		return nil, err
	}

	metrics.Reservations.WithLabelValues("reserved").Inc()
	log.Debug("stock reserved", zap.Time("expires_at", res.ExpiresAt))

	return &res, nil
}

// Release drops the hold. Releasing a missing reservation is not an error.
func (m *ReservationManager) Release(ctx context.Context, q db.Querier, variantID, cartID string) error {
	if err := m.repo.DeleteReservation(ctx, q, variantID, cartID); err != nil {
		logger.FromCtx(ctx).Error("failed to release reservation",
			zap.String("layer", "inventory"),
			zap.String("variant_id", variantID),
			zap.String("cart_id", cartID),
			zap.Error(err),
		)
		return err
	}
	metrics.Reservations.WithLabelValues("released").Inc()
	return nil
}

// RenewAll pushes the expiry of every hold of the cart to now + ttl.
func (m *ReservationManager) RenewAll(ctx context.Context, q db.Querier, cartID string, ttl time.Duration) error {
	now := m.now()
	n, err := m.repo.RenewReservations(ctx, q, cartID, now, now.Add(ttl))
	if err != nil {
		return err
	}
	logger.FromCtx(ctx).Debug("reservations renewed",
		zap.String("cart_id", cartID),
		zap.Int64("count", n),
	)
	return nil
}

// Finalize turns every hold of the cart into a permanent stock decrement.
// One expired hold rejects the whole cart; the caller's rollback undoes any
// work already done.
func (m *ReservationManager) Finalize(ctx context.Context, q db.Querier, cartID string) ([]Reservation, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "inventory"),
		zap.String("method", "Finalize"),
		zap.String("cart_id", cartID),
	)

	reservations, err := m.repo.LockCartReservations(ctx, q, cartID)
	if err != nil {
		log.Error("failed to lock reservations", zap.Error(err))
		return nil, err
	}

	now := m.now()
	for _, r := range reservations {
		if r.ExpiredAt(now) {
			metrics.Reservations.WithLabelValues("expired").Inc()
			log.Info("reservation expired",
				zap.String("variant_id", r.VariantID),
				zap.Time("expires_at", r.ExpiresAt),
			)
			return nil, apperror.ReservationExpired(r.VariantID)
		}
	}

	for _, r := range reservations {
		if err := m.repo.CommitSold(ctx, q, r.VariantID, r.Quantity); err != nil {
			log.Error("failed to commit sold stock", zap.String("variant_id", r.VariantID), zap.Error(err))
			return nil, err
		}
	}

	if err := m.repo.DeleteCartReservations(ctx, q, cartID); err != nil {
		log.Error("failed to delete finalized reservations", zap.Error(err))
		return nil, err
	}

	metrics.Reservations.WithLabelValues("finalized").Add(float64(len(reservations)))
	log.Info("reservations finalized", zap.Int("count", len(reservations)))

	return reservations, nil
}
