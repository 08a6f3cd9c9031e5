package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Cart belongs to exactly one owner: "user:<id>" or "anon:<session>".
type Cart struct {
	ID          string     `json:"cart_id"`
	OwnerID     string     `json:"owner_id"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CartItem holds at most one row per variant. PriceSnapshot is the variant
// price at the last ADD_ITEM of that variant.
type CartItem struct {
	ID            string
	CartID        string
	VariantID     string
	Quantity      int64
	PriceSnapshot decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ItemRow is a cart item joined with the variant's display data.
type ItemRow struct {
	CartItem
	VariantName string
	ProductName string
	ImageURL    *string
}

type ApplyActionsInput struct {
	CartID           string
	OwnerID          string
	Actions          []Action
	CouponCode       string
	ShippingMethodID string
}

type SnapshotInput struct {
	CartID           string
	OwnerID          string
	CouponCode       string
	ShippingMethodID string
}
