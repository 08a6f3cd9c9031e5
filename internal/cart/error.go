package cart

import "storefront-be/internal/apperror"

var (
	// -- Authentication/Authorization --
	ErrOwnerRequired = apperror.New(apperror.CodeInvalidRequest, "cart owner is required")

	// -- Resource State --
	ErrUnknownCart   = apperror.New(apperror.CodeUnknownCart, "cart not found")
	ErrCartNotActive = apperror.New(apperror.CodeCartNotActive, "cart is no longer active")

	// -- Validation & Input --
	ErrInvalidAction = apperror.New(apperror.CodeInvalidAction, "invalid cart action")

	// -- Constants (External Systems) --
	PgUniqueViolation = "23505"
)
