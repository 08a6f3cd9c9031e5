package cart

import (
	"context"
	"time"

	"storefront-be/internal/db"
	"storefront-be/internal/inventory"
	"storefront-be/internal/pricing"

	"github.com/stretchr/testify/mock"
)

// fakeTx runs fn directly and records the outcome.
type fakeTx struct {
	calls int
	err   error
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(q db.Querier) error) error {
	f.calls++
	f.err = fn(nil)
	return f.err
}

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetCart(ctx context.Context, q db.Querier, cartID string) (*Cart, error) {
	args := m.Called(ctx, q, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Cart), args.Error(1)
}

func (m *MockRepository) LockCart(ctx context.Context, q db.Querier, cartID string) (*Cart, error) {
	args := m.Called(ctx, q, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Cart), args.Error(1)
}

func (m *MockRepository) GetActiveCartForOwner(ctx context.Context, q db.Querier, ownerID string) (*Cart, error) {
	args := m.Called(ctx, q, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Cart), args.Error(1)
}

func (m *MockRepository) CreateCart(ctx context.Context, q db.Querier, c *Cart) (bool, error) {
	args := m.Called(ctx, q, c)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) GetItem(ctx context.Context, q db.Querier, cartID, itemID string) (*CartItem, error) {
	args := m.Called(ctx, q, cartID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CartItem), args.Error(1)
}

func (m *MockRepository) GetItemByVariant(ctx context.Context, q db.Querier, cartID, variantID string) (*CartItem, error) {
	args := m.Called(ctx, q, cartID, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CartItem), args.Error(1)
}

func (m *MockRepository) UpsertItem(ctx context.Context, q db.Querier, item *CartItem) error {
	args := m.Called(ctx, q, item)
	return args.Error(0)
}

func (m *MockRepository) SetQuantity(ctx context.Context, q db.Querier, itemID string, quantity int64) error {
	args := m.Called(ctx, q, itemID, quantity)
	return args.Error(0)
}

func (m *MockRepository) RemoveItem(ctx context.Context, q db.Querier, itemID string) error {
	args := m.Called(ctx, q, itemID)
	return args.Error(0)
}

func (m *MockRepository) ListItems(ctx context.Context, q db.Querier, cartID string) ([]ItemRow, error) {
	args := m.Called(ctx, q, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ItemRow), args.Error(1)
}

func (m *MockRepository) MarkCompleted(ctx context.Context, q db.Querier, cartID string) error {
	args := m.Called(ctx, q, cartID)
	return args.Error(0)
}

type MockReserver struct {
	mock.Mock
}

func (m *MockReserver) Reserve(ctx context.Context, q db.Querier, variantID, cartID string, quantity int64, ttl time.Duration) (*inventory.Reservation, error) {
	args := m.Called(ctx, q, variantID, cartID, quantity, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Reservation), args.Error(1)
}

func (m *MockReserver) Release(ctx context.Context, q db.Querier, variantID, cartID string) error {
	args := m.Called(ctx, q, variantID, cartID)
	return args.Error(0)
}

func (m *MockReserver) RenewAll(ctx context.Context, q db.Querier, cartID string, ttl time.Duration) error {
	args := m.Called(ctx, q, cartID, ttl)
	return args.Error(0)
}

type MockVariantReader struct {
	mock.Mock
}

func (m *MockVariantReader) GetVariant(ctx context.Context, q db.Querier, variantID string) (*inventory.Variant, error) {
	args := m.Called(ctx, q, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Variant), args.Error(1)
}

// realPricer runs the pure calculator with no coupon or shipping lookups.
type realPricer struct {
	coupon *pricing.Coupon
	rate   *pricing.ShippingRate
}

func (p realPricer) Calculate(ctx context.Context, q db.Querier, lines []pricing.Line, couponCode, shippingMethodID string) pricing.Snapshot {
	return pricing.Price(lines, p.coupon, p.rate)
}
