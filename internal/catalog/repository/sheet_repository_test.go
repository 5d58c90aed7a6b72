package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoppos/internal/catalog/domain"
)

func newTestSheetRepo(t *testing.T) (ProductRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	repo, err := NewSheetProductRepository(path)
	require.NoError(t, err)
	return repo, path
}

func TestSheetRepository_InsertAndGet(t *testing.T) {
	repo, _ := newTestSheetRepo(t)
	ctx := context.TODO()

	product := &domain.Product{
		Barcode:      "8901030875278",
		Name:         "Rice 1kg",
		Quantity:     10,
		SellingPrice: decimal.NewFromInt(60),
		MRP:          decimal.NewFromInt(65),
	}
	require.NoError(t, repo.Insert(ctx, product))
	assert.Equal(t, int64(1), product.ID)

	got, err := repo.GetByBarcode(ctx, "8901030875278")
	require.NoError(t, err)
	assert.Equal(t, "Rice 1kg", got.Name)
	assert.Equal(t, 10, got.Quantity)
	assert.True(t, got.SellingPrice.Equal(decimal.NewFromInt(60)))

	_, err = repo.GetByBarcode(ctx, "0000000000000")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestSheetRepository_DuplicateBarcodeLowestIDWins(t *testing.T) {
	repo, _ := newTestSheetRepo(t)
	ctx := context.TODO()

	first := &domain.Product{Barcode: "123", Name: "Old batch", SellingPrice: decimal.NewFromInt(40)}
	second := &domain.Product{Barcode: "123", Name: "New batch", SellingPrice: decimal.NewFromInt(45)}
	require.NoError(t, repo.Insert(ctx, first))
	require.NoError(t, repo.Insert(ctx, second))

	got, err := repo.GetByBarcode(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "Old batch", got.Name)
}

func TestSheetRepository_QuantityUpdates(t *testing.T) {
	repo, _ := newTestSheetRepo(t)
	ctx := context.TODO()

	product := &domain.Product{Barcode: "123", Name: "Soap", Quantity: 5, SellingPrice: decimal.NewFromInt(30)}
	require.NoError(t, repo.Insert(ctx, product))

	require.NoError(t, repo.UpdateQuantity(ctx, product.ID, 20))
	got, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.Quantity)

	require.NoError(t, repo.DecrementQuantity(ctx, product.ID, 3))
	got, err = repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 17, got.Quantity)

	// no floor clamp: an oversold line goes negative so the operator can see it
	require.NoError(t, repo.DecrementQuantity(ctx, product.ID, 25))
	got, err = repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, -8, got.Quantity)

	assert.ErrorIs(t, repo.UpdateQuantity(ctx, 999, 1), ErrProductNotFound)
	assert.ErrorIs(t, repo.DecrementQuantity(ctx, 999, 1), ErrProductNotFound)
}

func TestSheetRepository_Search(t *testing.T) {
	repo, _ := newTestSheetRepo(t)
	ctx := context.TODO()

	require.NoError(t, repo.Insert(ctx, &domain.Product{Barcode: "111", Name: "Rice 1kg", SellingPrice: decimal.NewFromInt(60)}))
	require.NoError(t, repo.Insert(ctx, &domain.Product{Barcode: "222", Name: "Rice 5kg", SellingPrice: decimal.NewFromInt(280)}))
	require.NoError(t, repo.Insert(ctx, &domain.Product{Barcode: "333", Name: "Soap", SellingPrice: decimal.NewFromInt(30)}))

	results, err := repo.Search(ctx, "rice")
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = repo.Search(ctx, "222")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Rice 5kg", results[0].Name)

	results, err = repo.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSheetRepository_SurvivesReopen(t *testing.T) {
	repo, path := newTestSheetRepo(t)
	ctx := context.TODO()

	taxRate := decimal.NewFromFloat(5)
	category := "Grocery"
	require.NoError(t, repo.Insert(ctx, &domain.Product{
		Barcode:      "8901030875278",
		Name:         "Rice 1kg",
		Quantity:     10,
		SellingPrice: decimal.NewFromInt(60),
		TaxRate:      &taxRate,
		Category:     &category,
	}))

	reopened, err := NewSheetProductRepository(path)
	require.NoError(t, err)

	got, err := reopened.GetByBarcode(ctx, "8901030875278")
	require.NoError(t, err)
	assert.Equal(t, "Rice 1kg", got.Name)
	assert.Equal(t, 10, got.Quantity)
	require.NotNil(t, got.TaxRate)
	assert.True(t, got.TaxRate.Equal(taxRate))
	require.NotNil(t, got.Category)
	assert.Equal(t, "Grocery", *got.Category)

	// ids keep counting from where the previous process stopped
	next := &domain.Product{Barcode: "999", Name: "Salt", SellingPrice: decimal.NewFromInt(20)}
	require.NoError(t, reopened.Insert(ctx, next))
	assert.Equal(t, int64(2), next.ID)
}
