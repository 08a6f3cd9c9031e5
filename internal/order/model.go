package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutState is the lifecycle of one checkout attempt. Rejected and
// Committed are terminal.
type CheckoutState string

const (
	StatePending    CheckoutState = "PENDING"
	StateValidating CheckoutState = "VALIDATING"
	StateCommitted  CheckoutState = "COMMITTED"
	StateRejected   CheckoutState = "REJECTED"
)

type CheckoutInput struct {
	CartID           string
	OwnerID          string
	AddressID        string
	ShippingMethodID string
	PaymentMethodID  string
	CouponCode       string
	ExpectedTotal    int64
	IdempotencyKey   string
}

type CheckoutResult struct {
	OrderID  string `json:"order_id"`
	Total    int64  `json:"total"`
	Replayed bool   `json:"replayed"`
}

// Order is the immutable record of a committed checkout.
type Order struct {
	ID               string
	CartID           string
	OwnerID          string
	AddressID        string
	ShippingMethodID string
	PaymentMethodID  string
	CouponCode       *string
	Subtotal         int64
	Discount         int64
	ShippingFee      int64
	Total            int64
	IdempotencyKey   *string
	CreatedAt        time.Time
	Items            []OrderItem
}

type OrderItem struct {
	ID          string
	OrderID     string
	VariantID   string
	VariantName string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int64
	LineTotal   int64
}

// PlacedEvent is the payload of the order.placed outbox event.
type PlacedEvent struct {
	OrderID     string            `json:"order_id"`
	CartID      string            `json:"cart_id"`
	OwnerID     string            `json:"owner_id"`
	Subtotal    int64             `json:"subtotal"`
	Discount    int64             `json:"discount"`
	ShippingFee int64             `json:"shipping_fee"`
	Total       int64             `json:"total"`
	Items       []PlacedEventItem `json:"items"`
	PlacedAt    time.Time         `json:"placed_at"`
}

type PlacedEventItem struct {
	VariantID string `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}
