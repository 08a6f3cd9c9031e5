package handler

import (
	"encoding/json"
	"net/http"

	"storefront-be/internal/auth"
	"storefront-be/internal/cart"
	"storefront-be/internal/utils"
)

type applyActionsRequest struct {
	CartID           string            `json:"cart_id"`
	Actions          []json.RawMessage `json:"actions"`
	CouponCode       string            `json:"coupon_code"`
	ShippingMethodID string            `json:"shipping_method_id"`
}

func (h *Handler) openCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.OpenCart(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) applyActions(w http.ResponseWriter, r *http.Request) {
	var req applyActionsRequest
	if err := decodeBody(w, r, &req); err != nil {
		utils.WriteError(r.Context(), w, err)
		return
	}

	actions, err := cart.DecodeActions(req.Actions)
	if err != nil {
		utils.WriteError(r.Context(), w, err)
		return
	}

	snap, err := h.carts.ApplyActions(r.Context(), cart.ApplyActionsInput{
		CartID:           req.CartID,
		OwnerID:          auth.OwnerFrom(r.Context()),
		Actions:          actions,
		CouponCode:       req.CouponCode,
		ShippingMethodID: req.ShippingMethodID,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	snap, err := h.carts.GetPricedSnapshot(r.Context(), cart.SnapshotInput{
		CartID:           q.Get("cart_id"),
		OwnerID:          auth.OwnerFrom(r.Context()),
		CouponCode:       q.Get("coupon_code"),
		ShippingMethodID: q.Get("shipping_method_id"),
	})
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, snap)
}
