package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront-be/internal/apperror"
	"storefront-be/internal/cart"
	"storefront-be/internal/db"
	"storefront-be/internal/inventory"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/outbox"
	"storefront-be/internal/pricing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CartStore interface {
	LockCart(ctx context.Context, q db.Querier, cartID string) (*cart.Cart, error)
	ListItems(ctx context.Context, q db.Querier, cartID string) ([]cart.ItemRow, error)
	MarkCompleted(ctx context.Context, q db.Querier, cartID string) error
}

type Finalizer interface {
	Finalize(ctx context.Context, q db.Querier, cartID string) ([]inventory.Reservation, error)
}

type Pricer interface {
	Calculate(ctx context.Context, q db.Querier, lines []pricing.Line, couponCode, shippingMethodID string) pricing.Snapshot
}

type EventWriter interface {
	Insert(ctx context.Context, q db.Querier, e *outbox.Event) error
}

// IdempotencyStore caches the order id of a completed checkout per owner and key.
type IdempotencyStore interface {
	Get(ctx context.Context, scope, key string) (string, bool, error)
	Save(ctx context.Context, scope, key, result string) error
}

type CheckoutService struct {
	tx        db.TxRunner
	reader    db.Querier
	carts     CartStore
	finalizer Finalizer
	pricer    Pricer
	orders    Repository
	events    EventWriter
	idem      IdempotencyStore
	now       func() time.Time
}

type CheckoutDeps struct {
	Tx          db.TxRunner
	Reader      db.Querier
	Carts       CartStore
	Finalizer   Finalizer
	Pricer      Pricer
	Orders      Repository
	Events      EventWriter
	Idempotency IdempotencyStore
	Now         func() time.Time
}

func NewCheckoutService(d CheckoutDeps) *CheckoutService {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &CheckoutService{
		tx:        d.Tx,
		reader:    d.Reader,
		carts:     d.Carts,
		finalizer: d.Finalizer,
		pricer:    d.Pricer,
		orders:    d.Orders,
		events:    d.Events,
		idem:      d.Idempotency,
		now:       func() time.Time { return now().UTC() },
	}
}

// Checkout turns the cart into an order in a single transaction. Any
// rejection leaves stock, reservations and the cart exactly as they were.
func (s *CheckoutService) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
		zap.String("cart_id", in.CartID),
	)
	in.CouponCode = pricing.NormalizeCouponCode(in.CouponCode)

	state := StatePending
	log.Info("checkout state", zap.String("state", string(state)))

	if err := validateInput(in); err != nil {
		return nil, s.reject(log, err)
	}

	if replay, err := s.lookupReplay(ctx, in); err != nil {
		log.Warn("idempotency lookup failed", zap.Error(err))
	} else if replay != nil {
		log.Info("checkout replayed", zap.String("order_id", replay.OrderID))
		return replay, nil
	}

	state = StateValidating
	log.Info("checkout state", zap.String("state", string(state)))

	var placed *Order
	err := s.tx.WithTx(ctx, func(q db.Querier) error {
		o, err := s.validateAndCommit(ctx, q, in)
		placed = o
		return err
	})
	if err != nil {
		// A concurrent request with the same key may have completed the cart
		// while this one waited on its lock.
		if errors.Is(err, cart.ErrCartNotActive) && in.IdempotencyKey != "" {
			if orderID, lookupErr := s.orders.GetOrderIDByIdempotencyKey(ctx, s.reader, in.OwnerID, in.IdempotencyKey); lookupErr == nil && orderID != "" {
				log.Info("checkout replayed", zap.String("order_id", orderID))
				return &CheckoutResult{OrderID: orderID, Replayed: true}, nil
			}
		}
		return nil, s.reject(log, err)
	}

	state = StateCommitted
	metrics.Checkouts.WithLabelValues(string(state), "").Inc()
	log.Info("checkout state",
		zap.String("state", string(state)),
		zap.String("order_id", placed.ID),
		zap.Int64("total", placed.Total),
	)

	if s.idem != nil && in.IdempotencyKey != "" {
		if err := s.idem.Save(ctx, in.OwnerID, in.IdempotencyKey, placed.ID); err != nil {
			log.Warn("failed to store idempotency key", zap.Error(err))
		}
	}

	return &CheckoutResult{OrderID: placed.ID, Total: placed.Total}, nil
}

func (s *CheckoutService) validateAndCommit(ctx context.Context, q db.Querier, in CheckoutInput) (*Order, error) {
	c, err := s.carts.LockCart(ctx, q, in.CartID)
	if err != nil {
		return nil, err
	}
	if c == nil || c.OwnerID != in.OwnerID {
		return nil, apperror.UnknownCart(in.CartID)
	}
	if c.Status != cart.StatusActive {
		return nil, cart.ErrCartNotActive
	}

	items, err := s.carts.ListItems(ctx, q, in.CartID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	// A failed coupon or shipping lookup must not abort the checkout
	// transaction; it only leaves the discount or fee unapplied.
	var snap pricing.Snapshot
	if err := db.IsolateReads(ctx, q, "pricing_lookup", func(q db.Querier) {
		snap = s.pricer.Calculate(ctx, q, cart.ToLines(items), in.CouponCode, in.ShippingMethodID)
	}); err != nil {
		return nil, err
	}
	if snap.Total != in.ExpectedTotal {
		return nil, apperror.PriceMismatch(in.ExpectedTotal, snap.Total)
	}

	reservations, err := s.finalizer.Finalize(ctx, q, in.CartID)
	if err != nil {
		return nil, err
	}
	if err := checkCoverage(items, reservations); err != nil {
		return nil, err
	}

	o := newOrder(in, snap, s.now())
	if err := s.orders.CreateOrder(ctx, q, o); err != nil {
		return nil, err
	}

	ev, err := outbox.NewEvent(o.ID, outbox.EventOrderPlaced, toPlacedEvent(o))
	if err != nil {
		return nil, err
	}
	if err := s.events.Insert(ctx, q, ev); err != nil {
		return nil, err
	}

	if err := s.carts.MarkCompleted(ctx, q, in.CartID); err != nil {
		return nil, err
	}
	return o, nil
}

// checkCoverage requires exactly one live hold per item with the item's
// quantity. A missing or short hold means it lapsed and was not renewed.
func checkCoverage(items []cart.ItemRow, reservations []inventory.Reservation) error {
	held := make(map[string]int64, len(reservations))
	for _, r := range reservations {
		held[r.VariantID] = r.Quantity
	}
	for _, it := range items {
		if held[it.VariantID] != it.Quantity {
			return apperror.ReservationExpired(it.VariantID)
		}
		delete(held, it.VariantID)
	}
	for variantID, qty := range held {
		if qty > 0 {
			return apperror.ReservationExpired(variantID)
		}
	}
	return nil
}

func (s *CheckoutService) lookupReplay(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	if in.IdempotencyKey == "" {
		return nil, nil
	}

	if s.idem != nil {
		orderID, ok, err := s.idem.Get(ctx, in.OwnerID, in.IdempotencyKey)
		switch {
		case err != nil:
			logger.FromCtx(ctx).Warn("idempotency cache unavailable", zap.Error(err))
		case ok:
			return &CheckoutResult{OrderID: orderID, Replayed: true}, nil
		}
	}

	// The cache may have been evicted; the order row is authoritative.
	orderID, err := s.orders.GetOrderIDByIdempotencyKey(ctx, s.reader, in.OwnerID, in.IdempotencyKey)
	if err != nil || orderID == "" {
		return nil, err
	}
	return &CheckoutResult{OrderID: orderID, Replayed: true}, nil
}

func (s *CheckoutService) reject(log *zap.Logger, err error) error {
	code := apperror.As(err).Code
	metrics.Checkouts.WithLabelValues(string(StateRejected), string(code)).Inc()
	if code == apperror.CodeInternal {
		log.Error("checkout failed", zap.String("state", string(StateRejected)), zap.Error(err))
	} else {
		log.Info("checkout state",
			zap.String("state", string(StateRejected)),
			zap.String("code", string(code)),
			zap.Error(err),
		)
	}
	return err
}

func validateInput(in CheckoutInput) error {
	var missing []string
	if in.OwnerID == "" {
		missing = append(missing, "owner")
	}
	if in.CartID == "" {
		missing = append(missing, "cart_id")
	}
	if in.AddressID == "" {
		missing = append(missing, "address_id")
	}
	if in.ShippingMethodID == "" {
		missing = append(missing, "shipping_method_id")
	}
	if in.PaymentMethodID == "" {
		missing = append(missing, "payment_method_id")
	}
	if len(missing) > 0 {
		e := apperror.Wrap(apperror.CodeInvalidRequest, "missing "+strings.Join(missing, ", "), ErrInvalidCheckout)
		e.Details = map[string]any{"missing": missing}
		return e
	}
	if in.ExpectedTotal < 0 {
		return apperror.Wrap(apperror.CodeInvalidRequest, "expected_total must not be negative", ErrInvalidCheckout)
	}
	if _, err := uuid.Parse(in.CartID); err != nil {
		return apperror.UnknownCart(in.CartID)
	}
	return nil
}
