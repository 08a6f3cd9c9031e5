package order

import (
	"time"

	"storefront-be/internal/pricing"

	"github.com/google/uuid"
)

// newOrder freezes a priced snapshot into an order.
func newOrder(in CheckoutInput, snap pricing.Snapshot, now time.Time) *Order {
	o := &Order{
		ID:               uuid.NewString(),
		CartID:           in.CartID,
		OwnerID:          in.OwnerID,
		AddressID:        in.AddressID,
		ShippingMethodID: in.ShippingMethodID,
		PaymentMethodID:  in.PaymentMethodID,
		Subtotal:         snap.Subtotal,
		Discount:         snap.Discount,
		ShippingFee:      snap.ShippingFee,
		Total:            snap.Total,
		CreatedAt:        now,
		Items:            make([]OrderItem, 0, len(snap.Items)),
	}
	if snap.AppliedCoupon != nil {
		code := snap.AppliedCoupon.Code
		o.CouponCode = &code
	}
	if in.IdempotencyKey != "" {
		key := in.IdempotencyKey
		o.IdempotencyKey = &key
	}

	for _, li := range snap.Items {
		o.Items = append(o.Items, OrderItem{
			ID:          uuid.NewString(),
			OrderID:     o.ID,
			VariantID:   li.VariantID,
			VariantName: li.VariantName,
			ProductName: li.ProductName,
			UnitPrice:   li.UnitPrice,
			Quantity:    li.Quantity,
			LineTotal:   li.LineTotal,
		})
	}
	return o
}

func toPlacedEvent(o *Order) PlacedEvent {
	ev := PlacedEvent{
		OrderID:     o.ID,
		CartID:      o.CartID,
		OwnerID:     o.OwnerID,
		Subtotal:    o.Subtotal,
		Discount:    o.Discount,
		ShippingFee: o.ShippingFee,
		Total:       o.Total,
		Items:       make([]PlacedEventItem, 0, len(o.Items)),
		PlacedAt:    o.CreatedAt,
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, PlacedEventItem{
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal,
		})
	}
	return ev
}
