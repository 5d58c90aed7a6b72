package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is one row of the shop catalog. Barcode is the external symbol
// printed on the label; the store does not enforce its uniqueness, only ID
// is guaranteed unique.
type Product struct {
	ID            int64            `json:"id"`
	Barcode       string           `json:"barcode"`
	Name          string           `json:"name"`
	Quantity      int              `json:"quantity"`
	PurchasePrice decimal.Decimal  `json:"purchase_price"`
	SellingPrice  decimal.Decimal  `json:"selling_price"`
	MRP           decimal.Decimal  `json:"mrp"`
	Category      *string          `json:"category,omitempty"`
	TaxRate       *decimal.Decimal `json:"tax_rate,omitempty"`
	HSNCode       *string          `json:"hsn_code,omitempty"`
	Batch         *string          `json:"batch,omitempty"`
	MfgDate       *time.Time       `json:"mfg_date,omitempty"`
	ExpDate       *time.Time       `json:"exp_date,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type CreateProductRequest struct {
	Barcode       string           `json:"barcode" binding:"required"`
	Name          string           `json:"name" binding:"required"`
	Quantity      int              `json:"quantity"`
	PurchasePrice decimal.Decimal  `json:"purchase_price"`
	SellingPrice  decimal.Decimal  `json:"selling_price"`
	MRP           decimal.Decimal  `json:"mrp"`
	Category      *string          `json:"category,omitempty"`
	TaxRate       *decimal.Decimal `json:"tax_rate,omitempty"`
	HSNCode       *string          `json:"hsn_code,omitempty"`
	Batch         *string          `json:"batch,omitempty"`
	MfgDate       *time.Time       `json:"mfg_date,omitempty"`
	ExpDate       *time.Time       `json:"exp_date,omitempty"`
}

type UpdateQuantityRequest struct {
	// Absolute stock level, not a delta.
	Quantity int `json:"quantity" binding:"gte=0"`
}
