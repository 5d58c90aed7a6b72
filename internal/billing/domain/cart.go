package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogDomain "shoppos/internal/catalog/domain"
)

// CartLine is one scanned-product entry in the open bill. Product is a
// snapshot taken at scan time; later catalog edits never change an open
// bill retroactively.
type CartLine struct {
	ID        uuid.UUID             `json:"id"`
	Product   catalogDomain.Product `json:"product"`
	Quantity  int                   `json:"quantity"`
	UnitPrice decimal.Decimal       `json:"unit_price"`
	AddedAt   time.Time             `json:"added_at"`
}

// Cart is the running bill of the active register session. One operator,
// one cart: mutations come from the scan worker and HTTP handlers, so every
// method takes the lock.
type Cart struct {
	mu    sync.Mutex
	lines []CartLine
}

func NewCart() *Cart {
	return &Cart{}
}

// AddLine appends a snapshot of the product as a new line with quantity 1.
// Scanning the same item again (after the scan cooldown) appends another
// line rather than bumping a quantity; the bill mirrors the scan sequence.
func (c *Cart) AddLine(p catalogDomain.Product) CartLine {
	line := CartLine{
		ID:        uuid.New(),
		Product:   p,
		Quantity:  1,
		UnitPrice: p.SellingPrice,
		AddedAt:   time.Now(),
	}
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
	return line
}

// Lines returns a copy of the current lines in scan order.
func (c *Cart) Lines() []CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Total is the sum of captured unit prices, never recomputed from live
// catalog prices.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// Clear discards all lines without touching the catalog.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

// CartView is the JSON projection rendered by the UI host.
type CartView struct {
	Lines []CartLine      `json:"lines"`
	Total decimal.Decimal `json:"total"`
	Empty bool            `json:"empty"`
}
