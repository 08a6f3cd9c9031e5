package handler

import (
	"context"

	"storefront-be/internal/cart"
	"storefront-be/internal/order"
	"storefront-be/internal/pricing"

	"github.com/stretchr/testify/mock"
)

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) OpenCart(ctx context.Context, ownerID string) (*cart.Cart, error) {
	args := m.Called(ctx, ownerID)
	if c := args.Get(0); c != nil {
		return c.(*cart.Cart), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCartService) ApplyActions(ctx context.Context, in cart.ApplyActionsInput) (*pricing.Snapshot, error) {
	args := m.Called(ctx, in)
	if s := args.Get(0); s != nil {
		return s.(*pricing.Snapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCartService) GetPricedSnapshot(ctx context.Context, in cart.SnapshotInput) (*pricing.Snapshot, error) {
	args := m.Called(ctx, in)
	if s := args.Get(0); s != nil {
		return s.(*pricing.Snapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockCheckouter struct {
	mock.Mock
}

func (m *MockCheckouter) Checkout(ctx context.Context, in order.CheckoutInput) (*order.CheckoutResult, error) {
	args := m.Called(ctx, in)
	if r := args.Get(0); r != nil {
		return r.(*order.CheckoutResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) PingContext(context.Context) error {
	return p.err
}
