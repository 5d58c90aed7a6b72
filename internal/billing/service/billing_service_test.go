package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	billingDomain "shoppos/internal/billing/domain"
	saleMocks "shoppos/internal/billing/repository/mocks"
	catalogDomain "shoppos/internal/catalog/domain"
	catalogMocks "shoppos/internal/catalog/repository/mocks"
)

func riceProduct() catalogDomain.Product {
	return catalogDomain.Product{
		ID:           1,
		Barcode:      "123",
		Name:         "Rice 1kg",
		SellingPrice: decimal.NewFromInt(60),
		Quantity:     10,
	}
}

func newTestBillingService() (BillingService, *saleMocks.MockSaleRepository, *catalogMocks.MockProductRepository) {
	mockSaleRepo := new(saleMocks.MockSaleRepository)
	mockStock := new(catalogMocks.MockProductRepository)
	// the retry scheduler may tick during a slow test run; an empty queue
	// keeps that harmless
	mockSaleRepo.On("ListPendingDecrements", mock.Anything).Return([]billingDomain.PendingDecrement{}, nil).Maybe()
	return NewBillingService(mockSaleRepo, mockStock), mockSaleRepo, mockStock
}

func TestCheckout_EmptyBillIsANoOp(t *testing.T) {
	service, mockSaleRepo, mockStock := newTestBillingService()

	_, err := service.Checkout(context.TODO())
	assert.ErrorIs(t, err, ErrEmptyBill)

	mockSaleRepo.AssertNotCalled(t, "CreateSaleWithItems", mock.Anything, mock.Anything)
	mockStock.AssertNotCalled(t, "DecrementQuantity", mock.Anything, mock.Anything, mock.Anything)
	assert.True(t, service.CartView().Empty)
}

func TestCheckout_DecrementsStockPerLine(t *testing.T) {
	service, mockSaleRepo, mockStock := newTestBillingService()
	ctx := context.TODO()

	service.AddToCart(riceProduct())

	mockSaleRepo.On("CreateSaleWithItems", ctx, mock.AnythingOfType("*domain.Sale")).Return(nil).Once()
	mockStock.On("DecrementQuantity", ctx, int64(1), 1).Return(nil).Once()

	result, err := service.Checkout(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.True(t, result.Total.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, 1, result.LineCount)
	assert.Empty(t, result.Failed)
	assert.True(t, service.CartView().Empty, "cart returns to idle after finalize")

	mockSaleRepo.AssertExpectations(t)
	mockStock.AssertExpectations(t)
}

func TestCheckout_PartialDecrementFailureIsReportedAndQueued(t *testing.T) {
	service, mockSaleRepo, mockStock := newTestBillingService()
	ctx := context.TODO()

	dal := catalogDomain.Product{ID: 2, Barcode: "456", Name: "Dal 500g", SellingPrice: decimal.NewFromInt(80), Quantity: 5}
	service.AddToCart(riceProduct())
	service.AddToCart(dal)

	mockSaleRepo.On("CreateSaleWithItems", ctx, mock.AnythingOfType("*domain.Sale")).Return(nil).Once()
	mockStock.On("DecrementQuantity", ctx, int64(1), 1).Return(nil).Once()
	mockStock.On("DecrementQuantity", ctx, int64(2), 1).Return(errors.New("row missing")).Once()
	mockSaleRepo.On("EnqueuePendingDecrement", ctx, mock.MatchedBy(func(pd *billingDomain.PendingDecrement) bool {
		return pd.ProductID == 2 && pd.Amount == 1
	})).Return(nil).Once()

	result, err := service.Checkout(ctx)
	assert.NoError(t, err, "sale is recorded even when a decrement fails")
	assert.Len(t, result.Failed, 1)
	assert.Equal(t, int64(2), result.Failed[0].ProductID)
	assert.Equal(t, "Dal 500g", result.Failed[0].Name)
	assert.True(t, service.CartView().Empty, "cart is already cleared when decrements run")

	mockSaleRepo.AssertExpectations(t)
	mockStock.AssertExpectations(t)
}

func TestCheckout_SalePersistFailureKeepsBillOpen(t *testing.T) {
	service, mockSaleRepo, mockStock := newTestBillingService()
	ctx := context.TODO()

	service.AddToCart(riceProduct())

	mockSaleRepo.On("CreateSaleWithItems", ctx, mock.AnythingOfType("*domain.Sale")).
		Return(errors.New("connection refused")).Once()

	_, err := service.Checkout(ctx)
	assert.ErrorIs(t, err, ErrSalePersistError)
	assert.False(t, service.CartView().Empty, "cart stays intact so the operator can retry")
	mockStock.AssertNotCalled(t, "DecrementQuantity", mock.Anything, mock.Anything, mock.Anything)
}

func TestRetryPendingDecrements_DrainsQueue(t *testing.T) {
	mockSaleRepo := new(saleMocks.MockSaleRepository)
	mockStock := new(catalogMocks.MockProductRepository)
	ctx := context.TODO()

	ok := billingDomain.PendingDecrement{ID: uuid.New(), ProductID: 1, Amount: 1}
	stuck := billingDomain.PendingDecrement{ID: uuid.New(), ProductID: 2, Amount: 1, Attempts: 3}

	mockSaleRepo.On("ListPendingDecrements", ctx).Return([]billingDomain.PendingDecrement{ok, stuck}, nil).Once()
	mockSaleRepo.On("ListPendingDecrements", mock.Anything).Return([]billingDomain.PendingDecrement{}, nil).Maybe()
	service := NewBillingService(mockSaleRepo, mockStock)
	mockStock.On("DecrementQuantity", ctx, int64(1), 1).Return(nil).Once()
	mockSaleRepo.On("DeletePendingDecrement", ctx, ok.ID.String()).Return(nil).Once()
	mockStock.On("DecrementQuantity", ctx, int64(2), 1).Return(errors.New("still down")).Once()
	mockSaleRepo.On("MarkDecrementAttempt", ctx, stuck.ID.String()).Return(nil).Once()

	service.RetryPendingDecrements(ctx)

	mockSaleRepo.AssertExpectations(t)
	mockStock.AssertExpectations(t)
}
