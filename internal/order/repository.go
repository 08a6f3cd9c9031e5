package order

import (
	"context"
	"database/sql"
	"errors"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	CreateOrder(ctx context.Context, q db.Querier, o *Order) error
	// GetOrderIDByIdempotencyKey returns "" when no order carries the key.
	GetOrderIDByIdempotencyKey(ctx context.Context, q db.Querier, ownerID, key string) (string, error)
}

type repository struct{}

func NewRepository() Repository {
	return &repository{}
}

func (r *repository) CreateOrder(ctx context.Context, q db.Querier, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrder"),
		zap.String("order_id", o.ID),
	)

	err := q.QueryRowContext(ctx, `
		INSERT INTO orders (
			id, cart_id, owner_id, address_id,
			shipping_method_id, payment_method_id, coupon_code,
			subtotal, discount, shipping_fee, total, idempotency_key
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at
	`,
		o.ID,
		o.CartID,
		o.OwnerID,
		o.AddressID,
		o.ShippingMethodID,
		o.PaymentMethodID,
		o.CouponCode,
		o.Subtotal,
		o.Discount,
		o.ShippingFee,
		o.Total,
		o.IdempotencyKey,
	).Scan(&o.CreatedAt)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return err
	}

	for _, item := range o.Items {
		_, err = q.ExecContext(ctx, `
			INSERT INTO order_items (
				id, order_id, variant_id, variant_name,
				product_name, unit_price, quantity, line_total
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			item.ID,
			o.ID,
			item.VariantID,
			item.VariantName,
			item.ProductName,
			item.UnitPrice,
			item.Quantity,
			item.LineTotal,
		)
		if err != nil {
			log.Error("failed to insert order item", zap.String("variant_id", item.VariantID), zap.Error(err))
			return err
		}
	}

	return nil
}

func (r *repository) GetOrderIDByIdempotencyKey(ctx context.Context, q db.Querier, ownerID, key string) (string, error) {
	var id string
	err := q.QueryRowContext(ctx, `
		SELECT id FROM orders WHERE owner_id = $1 AND idempotency_key = $2
	`, ownerID, key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}
