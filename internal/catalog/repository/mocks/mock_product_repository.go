package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"shoppos/internal/catalog/domain"
)

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	args := m.Called(ctx, barcode)
	if p := args.Get(0); p != nil {
		return p.(*domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductRepository) Search(ctx context.Context, query string) ([]domain.Product, error) {
	args := m.Called(ctx, query)
	if ps := args.Get(0); ps != nil {
		return ps.([]domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductRepository) Insert(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	if product != nil && args.Error(0) == nil {
		product.ID = 101 // id assigned by the store
	}
	return args.Error(0)
}

func (m *MockProductRepository) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

func (m *MockProductRepository) DecrementQuantity(ctx context.Context, id int64, amount int) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}
