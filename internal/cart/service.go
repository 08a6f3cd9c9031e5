package cart

import (
	"context"
	"time"

	"storefront-be/internal/apperror"
	"storefront-be/internal/db"
	"storefront-be/internal/inventory"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/pricing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reserver is the slice of inventory.ReservationManager the cart needs.
type Reserver interface {
	Reserve(ctx context.Context, q db.Querier, variantID, cartID string, quantity int64, ttl time.Duration) (*inventory.Reservation, error)
	Release(ctx context.Context, q db.Querier, variantID, cartID string) error
	RenewAll(ctx context.Context, q db.Querier, cartID string, ttl time.Duration) error
}

type VariantReader interface {
	GetVariant(ctx context.Context, q db.Querier, variantID string) (*inventory.Variant, error)
}

type Pricer interface {
	Calculate(ctx context.Context, q db.Querier, lines []pricing.Line, couponCode, shippingMethodID string) pricing.Snapshot
}

// Service defines the business logic for carts.
type Service interface {
	OpenCart(ctx context.Context, ownerID string) (*Cart, error)
	ApplyActions(ctx context.Context, in ApplyActionsInput) (*pricing.Snapshot, error)
	GetPricedSnapshot(ctx context.Context, in SnapshotInput) (*pricing.Snapshot, error)
}

type service struct {
	tx       db.TxRunner
	reader   db.Querier
	repo     Repository
	variants VariantReader
	reserver Reserver
	pricer   Pricer
	ttl      time.Duration
}

// NewService wires the cart service. reader serves queries that run outside
// a write transaction; coupon and shipping lookups use it so that a failed
// lookup can never abort the mutation.
func NewService(
	tx db.TxRunner,
	reader db.Querier,
	repo Repository,
	variants VariantReader,
	reserver Reserver,
	pricer Pricer,
	ttl time.Duration,
) Service {
	return &service{
		tx:       tx,
		reader:   reader,
		repo:     repo,
		variants: variants,
		reserver: reserver,
		pricer:   pricer,
		ttl:      ttl,
	}
}

// OpenCart returns the owner's active cart, creating it on first visit.
func (s *service) OpenCart(ctx context.Context, ownerID string) (*Cart, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}

	var result *Cart
	err := s.tx.WithTx(ctx, func(q db.Querier) error {
		existing, err := s.repo.GetActiveCartForOwner(ctx, q, ownerID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		c := &Cart{ID: uuid.NewString(), OwnerID: ownerID}
		created, err := s.repo.CreateCart(ctx, q, c)
		if err != nil {
			return err
		}
		if created {
			result = c
			return nil
		}

		// Lost the race against a concurrent open for the same owner.
		result, err = s.repo.GetActiveCartForOwner(ctx, q, ownerID)
		if err != nil {
			return err
		}
		if result == nil {
			return ErrUnknownCart
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyActions runs the whole batch in one transaction. The first failing
// action aborts the batch and nothing of it is persisted.
func (s *service) ApplyActions(ctx context.Context, in ApplyActionsInput) (*pricing.Snapshot, error) {
	if in.CartID == "" {
		return pricing.Empty(), nil
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ApplyActions"),
		zap.String("cart_id", in.CartID),
		zap.Int("actions", len(in.Actions)),
	)

	if err := ValidateActions(in.Actions); err != nil {
		metrics.CartMutations.WithLabelValues(string(apperror.CodeInvalidAction)).Inc()
		return nil, err
	}
	if _, err := uuid.Parse(in.CartID); err != nil {
		metrics.CartMutations.WithLabelValues(string(apperror.CodeUnknownCart)).Inc()
		return nil, apperror.UnknownCart(in.CartID)
	}

	var items []ItemRow
	err := s.tx.WithTx(ctx, func(q db.Querier) error {
		c, err := s.repo.LockCart(ctx, q, in.CartID)
		if err != nil {
			return err
		}
		if err := checkOwnership(c, in.CartID, in.OwnerID); err != nil {
			return err
		}

		for i, a := range in.Actions {
			if err := s.apply(ctx, q, in.CartID, i, a); err != nil {
				return err
			}
		}

		if err := s.reserver.RenewAll(ctx, q, in.CartID, s.ttl); err != nil {
			return err
		}

		items, err = s.repo.ListItems(ctx, q, in.CartID)
		return err
	})
	if err != nil {
		code := apperror.As(err).Code
		metrics.CartMutations.WithLabelValues(string(code)).Inc()
		if code == apperror.CodeInternal {
			log.Error("cart mutation failed", zap.Error(err))
		} else {
			log.Info("cart mutation rejected", zap.String("code", string(code)), zap.Error(err))
		}
		return nil, err
	}

	metrics.CartMutations.WithLabelValues("ok").Inc()
	log.Info("cart mutation applied", zap.Int("items", len(items)))

	return s.price(ctx, in.CartID, items, in.CouponCode, in.ShippingMethodID), nil
}

func (s *service) apply(ctx context.Context, q db.Querier, cartID string, index int, a Action) error {
	switch a.Type {
	case ActionAddItem:
		return s.addItem(ctx, q, cartID, a.VariantID, *a.Quantity)
	case ActionUpdateItemQuantity:
		return s.updateItemQuantity(ctx, q, cartID, index, a.ItemID, *a.Quantity)
	case ActionRemoveItem:
		return s.removeItem(ctx, q, cartID, index, a.ItemID)
	default:
		return apperror.InvalidAction(index, "unknown action type "+string(a.Type))
	}
}

// addItem raises the reservation to the new cumulative quantity before the
// item row changes, then refreshes the price snapshot from the variant.
func (s *service) addItem(ctx context.Context, q db.Querier, cartID, variantID string, quantity int64) error {
	existing, err := s.repo.GetItemByVariant(ctx, q, cartID, variantID)
	if err != nil {
		return err
	}

	total := quantity
	if existing != nil {
		total += existing.Quantity
	}

	if _, err := s.reserver.Reserve(ctx, q, variantID, cartID, total, s.ttl); err != nil {
		return err
	}

	// Read under the variant lock Reserve just took.
	v, err := s.variants.GetVariant(ctx, q, variantID)
	if err != nil {
		return err
	}
	if v == nil {
		return apperror.UnknownVariant(variantID)
	}

	item := &CartItem{
		ID:            uuid.NewString(),
		CartID:        cartID,
		VariantID:     variantID,
		Quantity:      total,
		PriceSnapshot: v.EffectivePrice(),
	}
	return s.repo.UpsertItem(ctx, q, item)
}

func (s *service) updateItemQuantity(ctx context.Context, q db.Querier, cartID string, index int, itemID string, quantity int64) error {
	item, err := s.repo.GetItem(ctx, q, cartID, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return apperror.InvalidAction(index, "item "+itemID+" is not in the cart")
	}

	if quantity <= 0 {
		if err := s.reserver.Release(ctx, q, item.VariantID, cartID); err != nil {
			return err
		}
		return s.repo.RemoveItem(ctx, q, item.ID)
	}

	if _, err := s.reserver.Reserve(ctx, q, item.VariantID, cartID, quantity, s.ttl); err != nil {
		return err
	}
	return s.repo.SetQuantity(ctx, q, item.ID, quantity)
}

func (s *service) removeItem(ctx context.Context, q db.Querier, cartID string, index int, itemID string) error {
	item, err := s.repo.GetItem(ctx, q, cartID, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return apperror.InvalidAction(index, "item "+itemID+" is not in the cart")
	}

	if err := s.reserver.Release(ctx, q, item.VariantID, cartID); err != nil {
		return err
	}
	return s.repo.RemoveItem(ctx, q, item.ID)
}

// GetPricedSnapshot is the read-only path: no locks, no reservation changes.
func (s *service) GetPricedSnapshot(ctx context.Context, in SnapshotInput) (*pricing.Snapshot, error) {
	if in.CartID == "" {
		return pricing.Empty(), nil
	}
	if _, err := uuid.Parse(in.CartID); err != nil {
		return nil, apperror.UnknownCart(in.CartID)
	}

	c, err := s.repo.GetCart(ctx, s.reader, in.CartID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to load cart",
			zap.String("layer", "service"),
			zap.String("method", "GetPricedSnapshot"),
			zap.String("cart_id", in.CartID),
			zap.Error(err),
		)
		return nil, err
	}
	if c == nil || (in.OwnerID != "" && c.OwnerID != in.OwnerID) {
		return nil, apperror.UnknownCart(in.CartID)
	}

	items, err := s.repo.ListItems(ctx, s.reader, in.CartID)
	if err != nil {
		return nil, err
	}

	return s.price(ctx, in.CartID, items, in.CouponCode, in.ShippingMethodID), nil
}

func (s *service) price(ctx context.Context, cartID string, items []ItemRow, couponCode, shippingMethodID string) *pricing.Snapshot {
	snap := s.pricer.Calculate(ctx, s.reader, ToLines(items), couponCode, shippingMethodID)
	snap.CartID = cartID
	return &snap
}

// checkOwnership hides carts of other owners behind UnknownCart so cart ids
// cannot be probed.
func checkOwnership(c *Cart, cartID, ownerID string) error {
	if c == nil || (ownerID != "" && c.OwnerID != ownerID) {
		return apperror.UnknownCart(cartID)
	}
	if c.Status != StatusActive {
		return ErrCartNotActive
	}
	return nil
}
