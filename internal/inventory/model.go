package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Variant is a sellable SKU. Stock is total physical stock, Sold the
// quantity already committed to orders.
type Variant struct {
	ID          string
	ProductID   string
	Name        string
	ProductName string
	ImageURL    *string
	Price       decimal.Decimal
	SalePrice   decimal.NullDecimal
	Stock       int64
	Sold        int64
}

// EffectivePrice is the sale price when one is set and positive, else the list price.
func (v *Variant) EffectivePrice() decimal.Decimal {
	if v.SalePrice.Valid && v.SalePrice.Decimal.IsPositive() {
		return v.SalePrice.Decimal
	}
	return v.Price
}

type Reservation struct {
	VariantID string
	CartID    string
	Quantity  int64
	ExpiresAt time.Time
}

func (r *Reservation) ExpiredAt(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
