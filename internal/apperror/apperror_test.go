package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("reserve: %w", InsufficientStock("v-1", 3, 2))

	assert.True(t, errors.Is(err, New(CodeInsufficientStock, "")))
	assert.False(t, errors.Is(err, New(CodePriceMismatch, "")))
}

func TestInsufficientStock_Details(t *testing.T) {
	err := InsufficientStock("v-1", 3, 2)

	assert.Equal(t, CodeInsufficientStock, err.Code)
	assert.Equal(t, int64(3), err.Details["requested"])
	assert.Equal(t, int64(2), err.Details["available"])
	assert.Contains(t, err.Error(), "requested 3, available 2")
}

func TestAs(t *testing.T) {
	t.Run("Typed", func(t *testing.T) {
		src := PriceMismatch(900, 901)
		got := As(fmt.Errorf("checkout: %w", src))
		assert.Same(t, src, got)
	})

	t.Run("Raw storage error", func(t *testing.T) {
		got := As(errors.New("pq: connection reset"))
		assert.Equal(t, CodeInternal, got.Code)
		assert.Equal(t, "internal error", got.Message)
	})

	t.Run("Nil", func(t *testing.T) {
		assert.Nil(t, As(nil))
	})
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusConflict, HTTPStatus(CodeInsufficientStock))
	assert.Equal(t, http.StatusConflict, HTTPStatus(CodeReservationExpired))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(CodeUnknownCart))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(CodeInvalidAction))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(CodeRateLimited))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(CodeInternal))
}
