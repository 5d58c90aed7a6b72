package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"shoppos/internal/billing/domain"
	"shoppos/internal/billing/repository"
	catalogDomain "shoppos/internal/catalog/domain"
	"shoppos/internal/platform/logger"
)

var (
	ErrEmptyBill        = errors.New("bill is empty, nothing to finalize")
	ErrSalePersistError = errors.New("could not record the sale")
)

// StockDecrementer is the slice of the catalog gateway the finalizer needs.
type StockDecrementer interface {
	DecrementQuantity(ctx context.Context, id int64, amount int) error
}

type BillingService interface {
	AddToCart(product catalogDomain.Product) domain.CartLine
	CartView() domain.CartView
	ClearCart()
	// Checkout finalizes the open bill: records the sale, clears the cart
	// and decrements stock per line, best effort.
	Checkout(ctx context.Context) (*domain.CheckoutResult, error)
	ListSales(ctx context.Context, limit int) ([]domain.Sale, error)
	// RetryPendingDecrements drains the queue of stock decrements that
	// failed during an earlier finalize. Also run by the scheduler.
	RetryPendingDecrements(ctx context.Context)
}

type billingServiceImpl struct {
	cart      *domain.Cart
	saleRepo  repository.SaleRepository
	stock     StockDecrementer
	scheduler *cron.Cron
}

func NewBillingService(saleRepo repository.SaleRepository, stock StockDecrementer) BillingService {
	s := &billingServiceImpl{
		cart:      domain.NewCart(),
		saleRepo:  saleRepo,
		stock:     stock,
		scheduler: cron.New(cron.WithSeconds()),
	}
	s.initScheduler()
	return s
}

func (s *billingServiceImpl) initScheduler() {
	spec := "0 * * * * *" // every minute
	s.scheduler.AddFunc(spec, func() {
		s.RetryPendingDecrements(context.Background())
	})
	s.scheduler.Start()
	logger.Info("Pending decrement retry scheduler initialized with spec '%s'", spec)
}

func (s *billingServiceImpl) AddToCart(product catalogDomain.Product) domain.CartLine {
	return s.cart.AddLine(product)
}

func (s *billingServiceImpl) CartView() domain.CartView {
	lines := s.cart.Lines()
	return domain.CartView{
		Lines: lines,
		Total: s.cart.Total(),
		Empty: len(lines) == 0,
	}
}

func (s *billingServiceImpl) ClearCart() {
	s.cart.Clear()
}

func (s *billingServiceImpl) Checkout(ctx context.Context) (*domain.CheckoutResult, error) {
	lines := s.cart.Lines()
	if len(lines) == 0 {
		// no-op: no store calls are issued for an empty bill
		return nil, ErrEmptyBill
	}

	sale := domain.NewSale(lines)

	// Persist the sale first. If the store is down the cart stays intact
	// and the operator can retry the whole finalize.
	if err := s.saleRepo.CreateSaleWithItems(ctx, sale); err != nil {
		logger.Error("Checkout: failed to persist sale", err, nil)
		return nil, fmt.Errorf("%w: %v", ErrSalePersistError, err)
	}

	s.cart.Clear()

	// Best-effort sequential decrement loop, no cross-row transaction. A
	// failure partway leaves earlier decrements applied; the failed ones
	// are queued for retry and reported back to the operator.
	result := &domain.CheckoutResult{
		SaleID:    sale.ID,
		Total:     sale.Total,
		LineCount: len(sale.Items),
		CreatedAt: sale.CreatedAt,
	}
	for _, item := range sale.Items {
		err := s.stock.DecrementQuantity(ctx, item.ProductID, item.Quantity)
		if err == nil {
			continue
		}
		logger.Error(fmt.Sprintf("Checkout: stock decrement failed for product %d (sale %s)", item.ProductID, sale.ID), err, nil)
		result.Failed = append(result.Failed, domain.FailedDecrement{
			ProductID: item.ProductID,
			Barcode:   item.Barcode,
			Name:      item.ProductName,
			Amount:    item.Quantity,
			Reason:    err.Error(),
		})
		pd := &domain.PendingDecrement{
			ID:        uuid.New(),
			SaleID:    sale.ID,
			ProductID: item.ProductID,
			Amount:    item.Quantity,
		}
		if qErr := s.saleRepo.EnqueuePendingDecrement(ctx, pd); qErr != nil {
			// Queueing also failed; the operator report is now the only
			// record of this decrement.
			logger.Error(fmt.Sprintf("CRITICAL: failed to queue pending decrement for product %d (sale %s)", item.ProductID, sale.ID), qErr, nil)
		}
	}

	return result, nil
}

func (s *billingServiceImpl) ListSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.saleRepo.ListSales(ctx, limit)
}

func (s *billingServiceImpl) RetryPendingDecrements(ctx context.Context) {
	pending, err := s.saleRepo.ListPendingDecrements(ctx)
	if err != nil {
		logger.Error("RetryPendingDecrements: failed to list queue", err, nil)
		return
	}
	if len(pending) == 0 {
		return
	}
	logger.Info("RetryPendingDecrements: retrying %d failed stock decrements", len(pending))

	for _, pd := range pending {
		err := s.stock.DecrementQuantity(ctx, pd.ProductID, pd.Amount)
		if err != nil {
			logger.Warn("RetryPendingDecrements: product %d still failing (attempt %d): %v", pd.ProductID, pd.Attempts+1, err)
			if mErr := s.saleRepo.MarkDecrementAttempt(ctx, pd.ID.String()); mErr != nil {
				logger.Error("RetryPendingDecrements: failed to mark attempt", mErr, nil)
			}
			continue
		}
		// Applied; delete the row so the retry stays idempotent per sale.
		if dErr := s.saleRepo.DeletePendingDecrement(ctx, pd.ID.String()); dErr != nil {
			logger.Error(fmt.Sprintf("CRITICAL: decrement applied but queue row %s not deleted, may double-apply", pd.ID), dErr, nil)
		}
	}
}
