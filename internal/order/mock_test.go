package order

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"

	"storefront-be/internal/cart"
	"storefront-be/internal/db"
	"storefront-be/internal/inventory"
	"storefront-be/internal/outbox"
	"storefront-be/internal/pricing"

	"github.com/stretchr/testify/mock"
)

type fakeTx struct {
	calls int
	q     *txQuerier
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(q db.Querier) error) error {
	f.calls++
	return fn(f.q)
}

// txQuerier stands in for the open transaction. Repositories are mocked, so
// only savepoint statements reach it.
type txQuerier struct {
	stmts []string
}

func (q *txQuerier) ExecContext(_ context.Context, query string, _ ...any) (sql.Result, error) {
	q.stmts = append(q.stmts, query)
	return driver.RowsAffected(0), nil
}

func (q *txQuerier) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (q *txQuerier) QueryRowContext(context.Context, string, ...any) *sql.Row {
	return nil
}

type MockCartStore struct {
	mock.Mock
}

func (m *MockCartStore) LockCart(ctx context.Context, q db.Querier, cartID string) (*cart.Cart, error) {
	args := m.Called(ctx, q, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartStore) ListItems(ctx context.Context, q db.Querier, cartID string) ([]cart.ItemRow, error) {
	args := m.Called(ctx, q, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cart.ItemRow), args.Error(1)
}

func (m *MockCartStore) MarkCompleted(ctx context.Context, q db.Querier, cartID string) error {
	args := m.Called(ctx, q, cartID)
	return args.Error(0)
}

type MockFinalizer struct {
	mock.Mock
}

func (m *MockFinalizer) Finalize(ctx context.Context, q db.Querier, cartID string) ([]inventory.Reservation, error) {
	args := m.Called(ctx, q, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.Reservation), args.Error(1)
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateOrder(ctx context.Context, q db.Querier, o *Order) error {
	args := m.Called(ctx, q, o)
	return args.Error(0)
}

func (m *MockRepository) GetOrderIDByIdempotencyKey(ctx context.Context, q db.Querier, ownerID, key string) (string, error) {
	args := m.Called(ctx, q, ownerID, key)
	return args.String(0), args.Error(1)
}

type MockEventWriter struct {
	mock.Mock
}

func (m *MockEventWriter) Insert(ctx context.Context, q db.Querier, e *outbox.Event) error {
	args := m.Called(ctx, q, e)
	return args.Error(0)
}

type memIdempotency struct {
	values map[string]string
	getErr error
}

func (m *memIdempotency) Get(_ context.Context, scope, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.values[scope+"/"+key]
	return v, ok, nil
}

func (m *memIdempotency) Save(_ context.Context, scope, key, result string) error {
	if m.values == nil {
		m.values = map[string]string{}
	}
	if _, ok := m.values[scope+"/"+key]; !ok {
		m.values[scope+"/"+key] = result
	}
	return nil
}

type staticPricer struct {
	coupon *pricing.Coupon
	rate   *pricing.ShippingRate
}

func (p staticPricer) Calculate(_ context.Context, _ db.Querier, lines []pricing.Line, _, _ string) pricing.Snapshot {
	return pricing.Price(lines, p.coupon, p.rate)
}
