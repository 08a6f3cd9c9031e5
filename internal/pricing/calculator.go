package pricing

import (
	"context"
	"strings"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// RoundUnits rounds half away from zero to whole currency units.
func RoundUnits(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// Price is the pure pricing function. Rounding happens per line so the
// displayed line totals always add up to the subtotal.
func Price(lines []Line, coupon *Coupon, rate *ShippingRate) Snapshot {
	snap := Snapshot{Items: make([]LineItem, 0, len(lines))}

	for _, l := range lines {
		lineTotal := RoundUnits(l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity)))
		snap.Items = append(snap.Items, LineItem{
			ItemID:      l.ItemID,
			VariantID:   l.VariantID,
			VariantName: l.VariantName,
			ProductName: l.ProductName,
			ImageURL:    l.ImageURL,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
			LineTotal:   lineTotal,
		})
		snap.ItemCount += l.Quantity
		snap.Subtotal += lineTotal
	}

	if discount, ok := coupon.discountFor(snap.Subtotal); ok {
		snap.Discount = discount
		snap.AppliedCoupon = &AppliedCoupon{
			Code:     coupon.Code,
			Type:     coupon.Type,
			Discount: discount,
		}
	}

	if rate != nil && rate.Active {
		snap.ShippingFee = rate.feeFor(snap.Subtotal - snap.Discount)
		id := rate.ID
		snap.ShippingMethod = &id
	}

	snap.Total = snap.Subtotal - snap.Discount + snap.ShippingFee
	if snap.Total < 0 {
		snap.Total = 0
	}

	return snap
}

func (c *Coupon) discountFor(subtotal int64) (int64, bool) {
	if c == nil || !c.Active {
		return 0, false
	}
	if decimal.NewFromInt(subtotal).LessThan(c.MinPurchaseAmount) {
		return 0, false
	}

	var discount int64
	switch c.Type {
	case DiscountPercentage:
		if !c.Percentage.Valid {
			return 0, false
		}
		discount = RoundUnits(decimal.NewFromInt(subtotal).Mul(c.Percentage.Decimal).Div(hundred))
	case DiscountFixed:
		if !c.FixedAmount.Valid {
			return 0, false
		}
		discount = RoundUnits(c.FixedAmount.Decimal)
	default:
		return 0, false
	}

	if discount < 0 {
		return 0, false
	}
	return discount, true
}

func (r *ShippingRate) feeFor(discountedSubtotal int64) int64 {
	if r.FreeShippingThreshold.Valid &&
		decimal.NewFromInt(discountedSubtotal).GreaterThanOrEqual(r.FreeShippingThreshold.Decimal) {
		return 0
	}
	return RoundUnits(r.Rate)
}

// Calculator resolves coupon and shipping method before calling Price.
type Calculator struct {
	repo Repository
}

func NewCalculator(repo Repository) *Calculator {
	return &Calculator{repo: repo}
}

// Calculate never fails: unknown, inactive or unreadable coupons and shipping
// methods are simply not applied.
func (c *Calculator) Calculate(
	ctx context.Context,
	q db.Querier,
	lines []Line,
	couponCode string,
	shippingMethodID string,
) Snapshot {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "pricing"),
		zap.String("method", "Calculate"),
	)

	var coupon *Coupon
	if code := NormalizeCouponCode(couponCode); code != "" {
		found, err := c.repo.GetCoupon(ctx, q, code)
		if err != nil {
			log.Warn("coupon lookup failed, not applied", zap.String("coupon_code", code), zap.Error(err))
		} else {
			coupon = found
		}
	}

	var rate *ShippingRate
	if id := strings.TrimSpace(shippingMethodID); id != "" {
		found, err := c.repo.GetShippingRate(ctx, q, id)
		if err != nil {
			log.Warn("shipping rate lookup failed, not applied", zap.String("shipping_method_id", id), zap.Error(err))
		} else {
			rate = found
		}
	}

	snap := Price(lines, coupon, rate)

	log.Debug("snapshot priced",
		zap.Int("lines", len(lines)),
		zap.Int64("subtotal", snap.Subtotal),
		zap.Int64("discount", snap.Discount),
		zap.Int64("shipping_fee", snap.ShippingFee),
		zap.Int64("total", snap.Total),
	)

	return snap
}

func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
