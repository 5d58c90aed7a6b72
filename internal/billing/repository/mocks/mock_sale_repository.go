package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"shoppos/internal/billing/domain"
)

type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) CreateSaleWithItems(ctx context.Context, sale *domain.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

func (m *MockSaleRepository) ListSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	args := m.Called(ctx, limit)
	if sales := args.Get(0); sales != nil {
		return sales.([]domain.Sale), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSaleRepository) EnqueuePendingDecrement(ctx context.Context, pd *domain.PendingDecrement) error {
	args := m.Called(ctx, pd)
	return args.Error(0)
}

func (m *MockSaleRepository) ListPendingDecrements(ctx context.Context) ([]domain.PendingDecrement, error) {
	args := m.Called(ctx)
	if pending := args.Get(0); pending != nil {
		return pending.([]domain.PendingDecrement), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSaleRepository) DeletePendingDecrement(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSaleRepository) MarkDecrementAttempt(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
