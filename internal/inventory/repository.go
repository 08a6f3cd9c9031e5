package inventory

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	// GetVariant returns nil, nil when the variant does not exist.
	GetVariant(ctx context.Context, q db.Querier, variantID string) (*Variant, error)
	// LockVariant is GetVariant with a row lock held until the transaction ends.
	LockVariant(ctx context.Context, q db.Querier, variantID string) (*Variant, error)
	// SumActiveReservations sums reservations expiring after now, skipping
	// excludeCartID when it is non-empty.
	SumActiveReservations(ctx context.Context, q db.Querier, variantID, excludeCartID string, now time.Time) (int64, error)
	UpsertReservation(ctx context.Context, q db.Querier, r Reservation) error
	DeleteReservation(ctx context.Context, q db.Querier, variantID, cartID string) error
	RenewReservations(ctx context.Context, q db.Querier, cartID string, now, expiresAt time.Time) (int64, error)
	LockCartReservations(ctx context.Context, q db.Querier, cartID string) ([]Reservation, error)
	CommitSold(ctx context.Context, q db.Querier, variantID string, quantity int64) error
	DeleteCartReservations(ctx context.Context, q db.Querier, cartID string) error
}

type repository struct{}

func NewRepository() Repository {
	return &repository{}
}

const selectVariant = `
	SELECT
		v.id,
		v.product_id,
		v.name,
		p.name,
		v.image_url,
		v.price,
		v.sale_price,
		v.stock,
		v.sold
	FROM variants v
	JOIN products p ON p.id = v.product_id
	WHERE v.id = $1
	`

func (r *repository) GetVariant(ctx context.Context, q db.Querier, variantID string) (*Variant, error) {
	return r.scanVariant(ctx, q, selectVariant, variantID)
}

func (r *repository) LockVariant(ctx context.Context, q db.Querier, variantID string) (*Variant, error) {
	return r.scanVariant(ctx, q, selectVariant+` FOR UPDATE OF v`, variantID)
}

func (r *repository) scanVariant(ctx context.Context, q db.Querier, query, variantID string) (*Variant, error) {
	var v Variant
	err := q.QueryRowContext(ctx, query, variantID).Scan(
		&v.ID,
		&v.ProductID,
		&v.Name,
		&v.ProductName,
		&v.ImageURL,
		&v.Price,
		&v.SalePrice,
		&v.Stock,
		&v.Sold,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repository) SumActiveReservations(
	ctx context.Context,
	q db.Querier,
	variantID, excludeCartID string,
	now time.Time,
) (int64, error) {
	query := `
	SELECT COALESCE(SUM(quantity), 0)
	FROM stock_reservations
	WHERE variant_id = $1
	  AND expires_at > $2
	  AND ($3 = '' OR cart_id::text <> $3)
	`

	var sum int64
	if err := q.QueryRowContext(ctx, query, variantID, now, excludeCartID).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

func (r *repository) UpsertReservation(ctx context.Context, q db.Querier, res Reservation) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO stock_reservations (variant_id, cart_id, quantity, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (variant_id, cart_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, expires_at = EXCLUDED.expires_at
	`, res.VariantID, res.CartID, res.Quantity, res.ExpiresAt)
	return err
}

func (r *repository) DeleteReservation(ctx context.Context, q db.Querier, variantID, cartID string) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM stock_reservations
		WHERE variant_id = $1 AND cart_id = $2
	`, variantID, cartID)
	return err
}

// RenewReservations extends only holds that are still live. A lapsed hold
// may already have been handed to another cart, so reviving it would
// oversell; the cart has to reserve again.
func (r *repository) RenewReservations(ctx context.Context, q db.Querier, cartID string, now, expiresAt time.Time) (int64, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE stock_reservations
		SET expires_at = $1
		WHERE cart_id = $2 AND expires_at > $3
	`, expiresAt, cartID, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) LockCartReservations(ctx context.Context, q db.Querier, cartID string) ([]Reservation, error) {
	// Ordered by variant so concurrent finalizers lock rows in the same order.
	rows, err := q.QueryContext(ctx, `
		SELECT variant_id, cart_id, quantity, expires_at
		FROM stock_reservations
		WHERE cart_id = $1
		ORDER BY variant_id
		FOR UPDATE
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Reservation
	for rows.Next() {
		var res Reservation
		if err := rows.Scan(&res.VariantID, &res.CartID, &res.Quantity, &res.ExpiresAt); err != nil {
			return nil, err
		}
		result = append(result, res)
	}
	return result, rows.Err()
}

func (r *repository) CommitSold(ctx context.Context, q db.Querier, variantID string, quantity int64) error {
	res, err := q.ExecContext(ctx, `
		UPDATE variants
		SET sold = sold + $1, updated_at = NOW()
		WHERE id = $2 AND sold + $1 <= stock
	`, quantity, variantID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		logger.FromCtx(ctx).Error("stock commit rejected",
			zap.String("layer", "repository"),
			zap.String("method", "CommitSold"),
			zap.String("variant_id", variantID),
			zap.Int64("quantity", quantity),
		)
		return ErrStockIntegrity
	}
	return nil
}

func (r *repository) DeleteCartReservations(ctx context.Context, q db.Querier, cartID string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM stock_reservations WHERE cart_id = $1`, cartID)
	return err
}
