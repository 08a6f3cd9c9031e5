package pricing

import (
	"context"
	"database/sql"
	"errors"

	"storefront-be/internal/db"
)

type Repository interface {
	// GetCoupon returns nil, nil when the code does not exist.
	GetCoupon(ctx context.Context, q db.Querier, code string) (*Coupon, error)
	// GetShippingRate returns nil, nil when the id does not exist.
	GetShippingRate(ctx context.Context, q db.Querier, id string) (*ShippingRate, error)
}

type repository struct{}

func NewRepository() Repository {
	return &repository{}
}

func (r *repository) GetCoupon(ctx context.Context, q db.Querier, code string) (*Coupon, error) {
	query := `
	SELECT
		code,
		discount_type,
		percentage,
		fixed_amount,
		min_purchase_amount,
		active
	FROM coupons
	WHERE code = $1
	`

	var c Coupon
	err := q.QueryRowContext(ctx, query, code).Scan(
		&c.Code,
		&c.Type,
		&c.Percentage,
		&c.FixedAmount,
		&c.MinPurchaseAmount,
		&c.Active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *repository) GetShippingRate(ctx context.Context, q db.Querier, id string) (*ShippingRate, error) {
	query := `
	SELECT
		id,
		name,
		rate,
		free_shipping_threshold,
		active
	FROM shipping_rates
	WHERE id = $1
	`

	var s ShippingRate
	err := q.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.Name,
		&s.Rate,
		&s.FreeShippingThreshold,
		&s.Active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}
