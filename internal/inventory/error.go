package inventory

import (
	"errors"

	"storefront-be/internal/apperror"
)

var (
	// -- Validation --
	ErrInvalidQuantity = apperror.New(apperror.CodeInvalidRequest, "reservation quantity must be positive")

	// -- Domain --
	ErrInsufficientStock  = apperror.New(apperror.CodeInsufficientStock, "insufficient stock")
	ErrReservationExpired = apperror.New(apperror.CodeReservationExpired, "reservation expired")
	ErrUnknownVariant     = apperror.New(apperror.CodeUnknownVariant, "variant not found")

	// -- Data integrity --
	ErrStockIntegrity = errors.New("committing reservation would exceed physical stock")
)
