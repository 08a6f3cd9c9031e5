package pricing

import (
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is read-only to the engine.
type Coupon struct {
	Code              string
	Type              DiscountType
	Percentage        decimal.NullDecimal
	FixedAmount       decimal.NullDecimal
	MinPurchaseAmount decimal.Decimal
	Active            bool
}

// ShippingRate is a flat rate with an optional free-shipping threshold.
type ShippingRate struct {
	ID                    string
	Name                  string
	Rate                  decimal.Decimal
	FreeShippingThreshold decimal.NullDecimal
	Active                bool
}

// Line is one cart item as the calculator sees it.
type Line struct {
	ItemID      string
	VariantID   string
	VariantName string
	ProductName string
	ImageURL    *string
	UnitPrice   decimal.Decimal
	Quantity    int64
}

type LineItem struct {
	ItemID      string          `json:"item_id"`
	VariantID   string          `json:"variant_id"`
	VariantName string          `json:"variant_name"`
	ProductName string          `json:"product_name"`
	ImageURL    *string         `json:"image_url,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int64           `json:"quantity"`
	LineTotal   int64           `json:"line_total"`
}

type AppliedCoupon struct {
	Code     string       `json:"code"`
	Type     DiscountType `json:"type"`
	Discount int64        `json:"discount"`
}

// Snapshot is recomputed on every read and never cached.
type Snapshot struct {
	CartID         string         `json:"cart_id,omitempty"`
	Items          []LineItem     `json:"items"`
	ItemCount      int64          `json:"item_count"`
	Subtotal       int64          `json:"subtotal"`
	Discount       int64          `json:"discount"`
	ShippingFee    int64          `json:"shipping_fee"`
	Total          int64          `json:"total"`
	AppliedCoupon  *AppliedCoupon `json:"applied_coupon"`
	ShippingMethod *string        `json:"shipping_method_id"`
}

// Empty is the snapshot of a cart that does not exist yet.
func Empty() *Snapshot {
	return &Snapshot{Items: []LineItem{}}
}
