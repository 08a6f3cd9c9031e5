package order

import "storefront-be/internal/apperror"

var (
	// -- Validation & Input --
	ErrInvalidCheckout = apperror.New(apperror.CodeInvalidRequest, "invalid checkout request")

	// -- Resource State --
	ErrEmptyCart = apperror.New(apperror.CodeEmptyCart, "cart has no items")
)
