package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"shoppos/internal/catalog/domain"
	"shoppos/internal/catalog/repository/mocks"
)

func TestAddProduct_RequiredFields(t *testing.T) {
	mockRepo := new(mocks.MockProductRepository)
	service := NewCatalogService(mockRepo)
	ctx := context.TODO()

	t.Run("all required fields missing", func(t *testing.T) {
		_, err := service.AddProduct(ctx, domain.CreateProductRequest{})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "name")
		assert.Contains(t, err.Error(), "barcode")
		assert.Contains(t, err.Error(), "selling_price")
		mockRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("selling price missing", func(t *testing.T) {
		_, err := service.AddProduct(ctx, domain.CreateProductRequest{
			Name:    "Rice 1kg",
			Barcode: "123",
		})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "selling_price")
	})

	t.Run("negative quantity rejected", func(t *testing.T) {
		_, err := service.AddProduct(ctx, domain.CreateProductRequest{
			Name:         "Rice 1kg",
			Barcode:      "123",
			SellingPrice: decimal.NewFromInt(60),
			Quantity:     -1,
		})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestAddProduct_Success(t *testing.T) {
	mockRepo := new(mocks.MockProductRepository)
	service := NewCatalogService(mockRepo)
	ctx := context.TODO()

	mockRepo.On("Insert", ctx, mock.MatchedBy(func(p *domain.Product) bool {
		return p.Name == "Rice 1kg" && p.Barcode == "123"
	})).Return(nil).Once()

	product, err := service.AddProduct(ctx, domain.CreateProductRequest{
		Name:         "  Rice 1kg  ",
		Barcode:      " 123 ",
		SellingPrice: decimal.NewFromInt(60),
		Quantity:     10,
	})
	assert.NoError(t, err)
	assert.Equal(t, "Rice 1kg", product.Name)
	assert.Equal(t, "123", product.Barcode)
	assert.Equal(t, int64(101), product.ID, "id assigned by the store")
	mockRepo.AssertExpectations(t)
}

func TestSearch_TrimsQuery(t *testing.T) {
	mockRepo := new(mocks.MockProductRepository)
	service := NewCatalogService(mockRepo)
	ctx := context.TODO()

	mockRepo.On("Search", ctx, "rice").Return([]domain.Product{{ID: 1, Name: "Rice 1kg"}}, nil).Once()

	products, err := service.Search(ctx, "  rice  ")
	assert.NoError(t, err)
	assert.Len(t, products, 1)
	mockRepo.AssertExpectations(t)
}

func TestSetQuantity(t *testing.T) {
	mockRepo := new(mocks.MockProductRepository)
	service := NewCatalogService(mockRepo)
	ctx := context.TODO()

	t.Run("negative rejected before hitting the store", func(t *testing.T) {
		err := service.SetQuantity(ctx, 1, -5)
		assert.ErrorIs(t, err, ErrValidation)
		mockRepo.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("absolute set forwarded", func(t *testing.T) {
		mockRepo.On("UpdateQuantity", ctx, int64(1), 25).Return(nil).Once()
		assert.NoError(t, service.SetQuantity(ctx, 1, 25))
		mockRepo.AssertExpectations(t)
	})
}
