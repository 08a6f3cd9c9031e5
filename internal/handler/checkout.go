package handler

import (
	"net/http"

	"storefront-be/internal/apperror"
	"storefront-be/internal/auth"
	"storefront-be/internal/idempotency"
	"storefront-be/internal/order"
	"storefront-be/internal/utils"
)

type checkoutRequest struct {
	CartID           string `json:"cart_id"`
	AddressID        string `json:"address_id"`
	ShippingMethodID string `json:"shipping_method_id"`
	PaymentMethodID  string `json:"payment_method_id"`
	CouponCode       string `json:"coupon_code"`
	ExpectedTotal    *int64 `json:"expected_total"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	key := idempotency.Key(r)
	if err := idempotency.Validate(key); err != nil {
		utils.WriteError(r.Context(), w, apperror.Wrap(apperror.CodeInvalidRequest, "invalid idempotency key", err))
		return
	}

	var req checkoutRequest
	if err := decodeBody(w, r, &req); err != nil {
		utils.WriteError(r.Context(), w, err)
		return
	}
	if req.ExpectedTotal == nil {
		err := apperror.New(apperror.CodeInvalidRequest, "expected_total is required")
		err.Details = map[string]any{"missing": []string{"expected_total"}}
		utils.WriteError(r.Context(), w, err)
		return
	}

	res, err := h.checkout.Checkout(r.Context(), order.CheckoutInput{
		CartID:           req.CartID,
		OwnerID:          auth.OwnerFrom(r.Context()),
		AddressID:        req.AddressID,
		ShippingMethodID: req.ShippingMethodID,
		PaymentMethodID:  req.PaymentMethodID,
		CouponCode:       req.CouponCode,
		ExpectedTotal:    *req.ExpectedTotal,
		IdempotencyKey:   key,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	utils.WriteJSON(w, status, res)
}
