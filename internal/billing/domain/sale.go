package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is a finalized bill. Its durable side effect is the per-line stock
// decrement; the sale row itself exists so partial decrement failures can
// be retried instead of silently lost.
type Sale struct {
	ID        uuid.UUID       `json:"id"`
	Total     decimal.Decimal `json:"total"`
	Items     []SaleItem      `json:"items,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type SaleItem struct {
	ID          uuid.UUID       `json:"id"`
	SaleID      uuid.UUID       `json:"-"`
	ProductID   int64           `json:"product_id"`
	Barcode     string          `json:"barcode"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"` // price captured at scan time
	CreatedAt   time.Time       `json:"created_at"`
}

// NewSale builds the sale record from the cart lines at finalize time.
func NewSale(lines []CartLine) *Sale {
	sale := &Sale{
		ID:        uuid.New(),
		Total:     decimal.Zero,
		CreatedAt: time.Now(),
	}
	for _, line := range lines {
		item := SaleItem{
			ID:          uuid.New(),
			SaleID:      sale.ID,
			ProductID:   line.Product.ID,
			Barcode:     line.Product.Barcode,
			ProductName: line.Product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			CreatedAt:   sale.CreatedAt,
		}
		sale.Items = append(sale.Items, item)
		sale.Total = sale.Total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return sale
}

// PendingDecrement is a stock decrement that failed during finalize and is
// waiting to be retried. One row per (sale, product); retrying an applied
// row is prevented by deleting it on success.
type PendingDecrement struct {
	ID        uuid.UUID `json:"id"`
	SaleID    uuid.UUID `json:"sale_id"`
	ProductID int64     `json:"product_id"`
	Amount    int       `json:"amount"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

// FailedDecrement reports one line whose stock update did not apply during
// finalize. Surfaced to the operator, never silently dropped.
type FailedDecrement struct {
	ProductID int64  `json:"product_id"`
	Barcode   string `json:"barcode"`
	Name      string `json:"name"`
	Amount    int    `json:"amount"`
	Reason    string `json:"reason"`
}

// CheckoutResult is what finalize hands back to the UI host.
type CheckoutResult struct {
	SaleID    uuid.UUID         `json:"sale_id"`
	Total     decimal.Decimal   `json:"total"`
	LineCount int               `json:"line_count"`
	Failed    []FailedDecrement `json:"failed_decrements,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
