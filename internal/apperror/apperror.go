package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine readable error kind returned to API callers.
type Code string

const (
	CodeInsufficientStock  Code = "INSUFFICIENT_STOCK"
	CodePriceMismatch      Code = "PRICE_MISMATCH"
	CodeReservationExpired Code = "RESERVATION_EXPIRED"
	CodeUnknownVariant     Code = "UNKNOWN_VARIANT"
	CodeUnknownCart        Code = "UNKNOWN_CART"
	CodeInvalidAction      Code = "INVALID_ACTION"

	CodeCartNotActive  Code = "CART_NOT_ACTIVE"
	CodeEmptyCart      Code = "EMPTY_CART"
	CodeInvalidRequest Code = "INVALID_REQUEST"
	CodeConflict       Code = "CONFLICT"
	CodeRateLimited    Code = "RATE_LIMITED"
	CodeInternal       Code = "INTERNAL"
)

// Error carries a Code, a human readable message and structured details.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any *Error with the same code, so package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

func New(code Code, message string) *Error {
	if message == "" {
		message = string(code)
	}
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, err error) *Error {
	e := New(code, message)
	e.Err = err
	return e
}

func InsufficientStock(variantID string, requested, available int64) *Error {
	return &Error{
		Code:    CodeInsufficientStock,
		Message: fmt.Sprintf("insufficient stock for variant %s: requested %d, available %d", variantID, requested, available),
		Details: map[string]any{
			"variant_id": variantID,
			"requested":  requested,
			"available":  available,
		},
	}
}

func PriceMismatch(expected, actual int64) *Error {
	return &Error{
		Code:    CodePriceMismatch,
		Message: fmt.Sprintf("price changed: expected %d, actual %d", expected, actual),
		Details: map[string]any{
			"expected": expected,
			"actual":   actual,
		},
	}
}

func ReservationExpired(variantID string) *Error {
	return &Error{
		Code:    CodeReservationExpired,
		Message: fmt.Sprintf("stock reservation for variant %s has expired", variantID),
		Details: map[string]any{"variant_id": variantID},
	}
}

func UnknownVariant(variantID string) *Error {
	return &Error{
		Code:    CodeUnknownVariant,
		Message: fmt.Sprintf("variant %s not found", variantID),
		Details: map[string]any{"variant_id": variantID},
	}
}

func UnknownCart(cartID string) *Error {
	return &Error{
		Code:    CodeUnknownCart,
		Message: fmt.Sprintf("cart %s not found", cartID),
		Details: map[string]any{"cart_id": cartID},
	}
}

func InvalidAction(index int, reason string) *Error {
	return &Error{
		Code:    CodeInvalidAction,
		Message: fmt.Sprintf("action %d: %s", index, reason),
		Details: map[string]any{"index": index, "reason": reason},
	}
}

// As extracts an *Error from err. Anything else is reported as INTERNAL.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(CodeInternal, "internal error", err)
}

func HTTPStatus(code Code) int {
	switch code {
	case CodeInsufficientStock, CodePriceMismatch, CodeReservationExpired,
		CodeCartNotActive, CodeConflict:
		return http.StatusConflict
	case CodeUnknownVariant, CodeUnknownCart:
		return http.StatusNotFound
	case CodeInvalidAction, CodeInvalidRequest, CodeEmptyCart:
		return http.StatusUnprocessableEntity
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
