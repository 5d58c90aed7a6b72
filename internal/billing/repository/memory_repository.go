package repository

import (
	"context"
	"sync"
	"time"

	"shoppos/internal/billing/domain"
)

// memorySaleRepository keeps the sales ledger in memory. Used with the
// spreadsheet catalog backend, where there is no relational store to put
// the ledger in. Sales history then only survives for the process
// lifetime, which matches how those shops operate (the xlsx is the one
// durable artifact they care about).
type memorySaleRepository struct {
	mu      sync.Mutex
	sales   []domain.Sale
	pending []domain.PendingDecrement
}

func NewMemorySaleRepository() SaleRepository {
	return &memorySaleRepository{}
}

func (r *memorySaleRepository) CreateSaleWithItems(ctx context.Context, sale *domain.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales = append(r.sales, *sale)
	return nil
}

func (r *memorySaleRepository) ListSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// newest first
	out := []domain.Sale{}
	for i := len(r.sales) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.sales[i])
	}
	return out, nil
}

func (r *memorySaleRepository) EnqueuePendingDecrement(ctx context.Context, pd *domain.PendingDecrement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pd.CreatedAt = time.Now()
	r.pending = append(r.pending, *pd)
	return nil
}

func (r *memorySaleRepository) ListPendingDecrements(ctx context.Context) ([]domain.PendingDecrement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.PendingDecrement, len(r.pending))
	copy(out, r.pending)
	return out, nil
}

func (r *memorySaleRepository) DeletePendingDecrement(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.pending {
		if r.pending[i].ID.String() == id {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *memorySaleRepository) MarkDecrementAttempt(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.pending {
		if r.pending[i].ID.String() == id {
			r.pending[i].Attempts++
			return nil
		}
	}
	return nil
}
