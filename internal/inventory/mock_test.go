package inventory

import (
	"context"
	"time"

	"storefront-be/internal/db"

	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetVariant(ctx context.Context, q db.Querier, variantID string) (*Variant, error) {
	args := m.Called(ctx, q, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Variant), args.Error(1)
}

func (m *MockRepository) LockVariant(ctx context.Context, q db.Querier, variantID string) (*Variant, error) {
	args := m.Called(ctx, q, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Variant), args.Error(1)
}

func (m *MockRepository) SumActiveReservations(ctx context.Context, q db.Querier, variantID, excludeCartID string, now time.Time) (int64, error) {
	args := m.Called(ctx, q, variantID, excludeCartID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) UpsertReservation(ctx context.Context, q db.Querier, r Reservation) error {
	args := m.Called(ctx, q, r)
	return args.Error(0)
}

func (m *MockRepository) DeleteReservation(ctx context.Context, q db.Querier, variantID, cartID string) error {
	args := m.Called(ctx, q, variantID, cartID)
	return args.Error(0)
}

func (m *MockRepository) RenewReservations(ctx context.Context, q db.Querier, cartID string, now, expiresAt time.Time) (int64, error) {
	args := m.Called(ctx, q, cartID, now, expiresAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) LockCartReservations(ctx context.Context, q db.Querier, cartID string) ([]Reservation, error) {
	args := m.Called(ctx, q, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Reservation), args.Error(1)
}

func (m *MockRepository) CommitSold(ctx context.Context, q db.Querier, variantID string, quantity int64) error {
	args := m.Called(ctx, q, variantID, quantity)
	return args.Error(0)
}

func (m *MockRepository) DeleteCartReservations(ctx context.Context, q db.Querier, cartID string) error {
	args := m.Called(ctx, q, cartID)
	return args.Error(0)
}
