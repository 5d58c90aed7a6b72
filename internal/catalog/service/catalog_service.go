package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shoppos/internal/catalog/domain"
	"shoppos/internal/catalog/repository"
	"shoppos/internal/platform/logger"
)

var ErrValidation = errors.New("validation failed")

type CatalogService interface {
	Search(ctx context.Context, query string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	AddProduct(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error)
	SetQuantity(ctx context.Context, id int64, quantity int) error
}

type catalogServiceImpl struct {
	repo repository.ProductRepository
}

func NewCatalogService(repo repository.ProductRepository) CatalogService {
	return &catalogServiceImpl{repo: repo}
}

func (s *catalogServiceImpl) Search(ctx context.Context, query string) ([]domain.Product, error) {
	return s.repo.Search(ctx, strings.TrimSpace(query))
}

func (s *catalogServiceImpl) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *catalogServiceImpl) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	return s.repo.GetByBarcode(ctx, strings.TrimSpace(barcode))
}

// AddProduct validates the required fields and inserts the row. Barcode
// uniqueness is NOT checked here; the store is the authority and duplicate
// symbols resolve lowest-id-first on later lookups.
func (s *catalogServiceImpl) AddProduct(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
	missing := []string{}
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(req.Barcode) == "" {
		missing = append(missing, "barcode")
	}
	if req.SellingPrice.IsZero() {
		missing = append(missing, "selling_price")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}
	if req.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}

	product := &domain.Product{
		Barcode:       strings.TrimSpace(req.Barcode),
		Name:          strings.TrimSpace(req.Name),
		Quantity:      req.Quantity,
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
		MRP:           req.MRP,
		Category:      req.Category,
		TaxRate:       req.TaxRate,
		HSNCode:       req.HSNCode,
		Batch:         req.Batch,
		MfgDate:       req.MfgDate,
		ExpDate:       req.ExpDate,
	}
	if err := s.repo.Insert(ctx, product); err != nil {
		logger.Error("AddProduct: repo insert failed", err, nil)
		return nil, err
	}
	return product, nil
}

func (s *catalogServiceImpl) SetQuantity(ctx context.Context, id int64, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}
	return s.repo.UpdateQuantity(ctx, id, quantity)
}
