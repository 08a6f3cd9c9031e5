package cart

import (
	"context"
	"database/sql"
	"errors"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	// GetCart and LockCart return nil, nil when the cart does not exist.
	GetCart(ctx context.Context, q db.Querier, cartID string) (*Cart, error)
	LockCart(ctx context.Context, q db.Querier, cartID string) (*Cart, error)
	GetActiveCartForOwner(ctx context.Context, q db.Querier, ownerID string) (*Cart, error)
	// CreateCart returns false when the owner already has an active cart.
	CreateCart(ctx context.Context, q db.Querier, c *Cart) (bool, error)
	// GetItem and GetItemByVariant return nil, nil when nothing matches.
	GetItem(ctx context.Context, q db.Querier, cartID, itemID string) (*CartItem, error)
	GetItemByVariant(ctx context.Context, q db.Querier, cartID, variantID string) (*CartItem, error)
	UpsertItem(ctx context.Context, q db.Querier, item *CartItem) error
	SetQuantity(ctx context.Context, q db.Querier, itemID string, quantity int64) error
	RemoveItem(ctx context.Context, q db.Querier, itemID string) error
	ListItems(ctx context.Context, q db.Querier, cartID string) ([]ItemRow, error)
	MarkCompleted(ctx context.Context, q db.Querier, cartID string) error
}

type repository struct{}

func NewRepository() Repository {
	return &repository{}
}

const selectCart = `
	SELECT
		id,
		owner_id,
		status,
		created_at,
		updated_at,
		completed_at
	FROM carts
	`

func (r *repository) GetCart(ctx context.Context, q db.Querier, cartID string) (*Cart, error) {
	return scanCart(q.QueryRowContext(ctx, selectCart+`WHERE id = $1`, cartID))
}

func (r *repository) LockCart(ctx context.Context, q db.Querier, cartID string) (*Cart, error) {
	return scanCart(q.QueryRowContext(ctx, selectCart+`WHERE id = $1 FOR UPDATE`, cartID))
}

func (r *repository) GetActiveCartForOwner(ctx context.Context, q db.Querier, ownerID string) (*Cart, error) {
	return scanCart(q.QueryRowContext(ctx, selectCart+`WHERE owner_id = $1 AND status = 'active'`, ownerID))
}

func scanCart(row *sql.Row) (*Cart, error) {
	var c Cart
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.CompletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) CreateCart(ctx context.Context, q db.Querier, c *Cart) (bool, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateCart"),
		zap.String("cart_id", c.ID),
	)

	err := q.QueryRowContext(ctx, `
		INSERT INTO carts (id, owner_id, status)
		VALUES ($1, $2, 'active')
		ON CONFLICT (owner_id) WHERE status = 'active' DO NOTHING
		RETURNING status, created_at, updated_at
	`, c.ID, c.OwnerID).Scan(&c.Status, &c.CreatedAt, &c.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("owner already has an active cart")
		return false, nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == PgUniqueViolation {
		return false, nil
	}
	if err != nil {
		log.Error("failed to create cart", zap.Error(err))
		return false, err
	}

	log.Info("cart created")
	return true, nil
}

const selectItem = `
	SELECT
		id,
		cart_id,
		variant_id,
		quantity,
		price_snapshot,
		created_at,
		updated_at
	FROM cart_items
	`

func (r *repository) GetItem(ctx context.Context, q db.Querier, cartID, itemID string) (*CartItem, error) {
	return scanItem(q.QueryRowContext(ctx, selectItem+`WHERE cart_id = $1 AND id = $2`, cartID, itemID))
}

func (r *repository) GetItemByVariant(ctx context.Context, q db.Querier, cartID, variantID string) (*CartItem, error) {
	return scanItem(q.QueryRowContext(ctx, selectItem+`WHERE cart_id = $1 AND variant_id = $2`, cartID, variantID))
}

func scanItem(row *sql.Row) (*CartItem, error) {
	var item CartItem
	err := row.Scan(
		&item.ID,
		&item.CartID,
		&item.VariantID,
		&item.Quantity,
		&item.PriceSnapshot,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpsertItem keys on (cart, variant): a repeated add overwrites quantity and
// refreshes the price snapshot. item.ID is only used for a fresh row.
func (r *repository) UpsertItem(ctx context.Context, q db.Querier, item *CartItem) error {
	query := `
	INSERT INTO cart_items (
		id,
		cart_id,
		variant_id,
		quantity,
		price_snapshot
	)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (cart_id, variant_id)
	DO UPDATE SET
		quantity = EXCLUDED.quantity,
		price_snapshot = EXCLUDED.price_snapshot,
		updated_at = NOW()
	RETURNING
		id,
		created_at,
		updated_at
	`

	err := q.QueryRowContext(ctx, query,
		item.ID,
		item.CartID,
		item.VariantID,
		item.Quantity,
		item.PriceSnapshot,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to upsert cart item",
			zap.String("layer", "repository"),
			zap.String("method", "UpsertItem"),
			zap.String("cart_id", item.CartID),
			zap.String("variant_id", item.VariantID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (r *repository) SetQuantity(ctx context.Context, q db.Querier, itemID string, quantity int64) error {
	if quantity <= 0 {
		return r.RemoveItem(ctx, q, itemID)
	}

	_, err := q.ExecContext(ctx, `
		UPDATE cart_items
		SET quantity = $1, updated_at = NOW()
		WHERE id = $2
	`, quantity, itemID)
	return err
}

func (r *repository) RemoveItem(ctx context.Context, q db.Querier, itemID string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	return err
}

func (r *repository) ListItems(ctx context.Context, q db.Querier, cartID string) ([]ItemRow, error) {
	query := `
	SELECT
		ci.id,
		ci.cart_id,
		ci.variant_id,
		ci.quantity,
		ci.price_snapshot,
		ci.created_at,
		ci.updated_at,
		v.name,
		p.name,
		v.image_url
	FROM cart_items ci
	JOIN variants v ON v.id = ci.variant_id
	JOIN products p ON p.id = v.product_id
	WHERE ci.cart_id = $1
	ORDER BY ci.created_at, ci.id
	`

	rows, err := q.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []ItemRow{}
	for rows.Next() {
		var it ItemRow
		if err := rows.Scan(
			&it.ID,
			&it.CartID,
			&it.VariantID,
			&it.Quantity,
			&it.PriceSnapshot,
			&it.CreatedAt,
			&it.UpdatedAt,
			&it.VariantName,
			&it.ProductName,
			&it.ImageURL,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) MarkCompleted(ctx context.Context, q db.Querier, cartID string) error {
	res, err := q.ExecContext(ctx, `
		UPDATE carts
		SET status = 'completed', completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`, cartID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartNotActive
	}
	return nil
}
