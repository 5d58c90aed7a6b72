package repository

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"shoppos/internal/catalog/domain"
	"shoppos/internal/platform/logger"
)

// sheetProductRepository keeps the catalog in an xlsx workbook. Some shops
// run their whole inventory out of a spreadsheet that gets edited by hand,
// so this backend has to tolerate concurrent external edits the same way
// the hosted table does: last write wins, every call re-reads nothing (the
// in-memory rows are the workbook loaded at open plus our own writes).
type sheetProductRepository struct {
	mu       sync.Mutex
	path     string
	products []domain.Product
	nextID   int64
}

const (
	sheetName      = "products"
	dateLayout     = "2006-01-02"
	dateTimeLayout = time.RFC3339
)

var sheetHeader = []string{
	"id", "barcode", "name", "quantity", "purchase_price", "selling_price", "mrp",
	"category", "tax_rate", "hsn_code", "batch", "mfg_date", "exp_date",
	"created_at", "updated_at",
}

// NewSheetProductRepository opens (or creates) the workbook at path and
// loads the products worksheet into memory.
func NewSheetProductRepository(path string) (ProductRepository, error) {
	r := &sheetProductRepository{path: path, nextID: 1}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := r.createWorkbook(); err != nil {
			return nil, err
		}
		return r, nil
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *sheetProductRepository) createWorkbook() error {
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create products sheet: %w", err)
	}
	for i, col := range sheetHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return err
		}
	}
	if err := f.SaveAs(r.path); err != nil {
		return fmt.Errorf("failed to save new workbook: %w", err)
	}
	logger.Info("Created new catalog workbook at %s", r.path)
	return nil
}

func (r *sheetProductRepository) load() error {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return fmt.Errorf("failed to open catalog workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return fmt.Errorf("failed to read products sheet: %w", err)
	}

	for i, row := range rows {
		if i == 0 { // header
			continue
		}
		p, err := parseSheetRow(row)
		if err != nil {
			logger.Warn("Skipping malformed sheet row %d: %v", i+1, err)
			continue
		}
		r.products = append(r.products, *p)
		if p.ID >= r.nextID {
			r.nextID = p.ID + 1
		}
	}
	sort.Slice(r.products, func(a, b int) bool { return r.products[a].ID < r.products[b].ID })
	logger.Info("Loaded %d products from %s", len(r.products), r.path)
	return nil
}

func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func parseSheetRow(row []string) (*domain.Product, error) {
	id, err := strconv.ParseInt(cellAt(row, 0), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad id %q: %w", cellAt(row, 0), err)
	}
	qty, err := strconv.Atoi(cellAt(row, 3))
	if err != nil {
		qty = 0
	}
	p := &domain.Product{
		ID:       id,
		Barcode:  cellAt(row, 1),
		Name:     cellAt(row, 2),
		Quantity: qty,
	}
	p.PurchasePrice = parseDecimalCell(cellAt(row, 4))
	p.SellingPrice = parseDecimalCell(cellAt(row, 5))
	p.MRP = parseDecimalCell(cellAt(row, 6))
	if v := cellAt(row, 7); v != "" {
		p.Category = &v
	}
	if v := cellAt(row, 8); v != "" {
		d, err := decimal.NewFromString(v)
		if err == nil {
			p.TaxRate = &d
		}
	}
	if v := cellAt(row, 9); v != "" {
		p.HSNCode = &v
	}
	if v := cellAt(row, 10); v != "" {
		p.Batch = &v
	}
	if v := cellAt(row, 11); v != "" {
		if t, err := time.Parse(dateLayout, v); err == nil {
			p.MfgDate = &t
		}
	}
	if v := cellAt(row, 12); v != "" {
		if t, err := time.Parse(dateLayout, v); err == nil {
			p.ExpDate = &t
		}
	}
	if v := cellAt(row, 13); v != "" {
		if t, err := time.Parse(dateTimeLayout, v); err == nil {
			p.CreatedAt = t
		}
	}
	if v := cellAt(row, 14); v != "" {
		if t, err := time.Parse(dateTimeLayout, v); err == nil {
			p.UpdatedAt = t
		}
	}
	return p, nil
}

func parseDecimalCell(v string) decimal.Decimal {
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// save rewrites the whole products sheet. The catalog of a small shop is a
// few hundred rows, rewriting is cheaper than tracking dirty cells.
func (r *sheetProductRepository) save() error {
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}
	for i, col := range sheetHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return err
		}
	}
	for rowIdx, p := range r.products {
		values := []interface{}{
			p.ID, p.Barcode, p.Name, p.Quantity,
			p.PurchasePrice.String(), p.SellingPrice.String(), p.MRP.String(),
			strOrEmpty(p.Category), taxOrEmpty(p.TaxRate), strOrEmpty(p.HSNCode), strOrEmpty(p.Batch),
			dateOrEmpty(p.MfgDate), dateOrEmpty(p.ExpDate),
			p.CreatedAt.Format(dateTimeLayout), p.UpdatedAt.Format(dateTimeLayout),
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
		}
	}
	if err := f.SaveAs(r.path); err != nil {
		return fmt.Errorf("failed to save catalog workbook: %w", err)
	}
	return nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func taxOrEmpty(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func (r *sheetProductRepository) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// products are kept sorted by id, so the first hit is the lowest id
	for i := range r.products {
		if r.products[i].Barcode == barcode {
			p := r.products[i]
			return &p, nil
		}
	}
	return nil, ErrProductNotFound
}

func (r *sheetProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.products {
		if r.products[i].ID == id {
			p := r.products[i]
			return &p, nil
		}
	}
	return nil, ErrProductNotFound
}

func (r *sheetProductRepository) Search(ctx context.Context, query string) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	results := []domain.Product{}
	q := strings.ToLower(query)
	for _, p := range r.products {
		if q == "" ||
			strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Barcode), q) {
			results = append(results, p)
		}
	}
	return results, nil
}

func (r *sheetProductRepository) Insert(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	product.ID = r.nextID
	r.nextID++
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()
	r.products = append(r.products, *product)
	if err := r.save(); err != nil {
		// roll the in-memory state back so a failed save is not half-applied
		r.products = r.products[:len(r.products)-1]
		r.nextID--
		logger.Error("Insert: failed to save workbook", err, nil)
		return err
	}
	return nil
}

func (r *sheetProductRepository) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	return r.setQuantity(id, func(current int) int { return quantity })
}

func (r *sheetProductRepository) DecrementQuantity(ctx context.Context, id int64, amount int) error {
	return r.setQuantity(id, func(current int) int { return current - amount })
}

func (r *sheetProductRepository) setQuantity(id int64, apply func(int) int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.products {
		if r.products[i].ID == id {
			prev := r.products[i]
			r.products[i].Quantity = apply(r.products[i].Quantity)
			r.products[i].UpdatedAt = time.Now()
			if err := r.save(); err != nil {
				r.products[i] = prev
				logger.Error("setQuantity: failed to save workbook", err, nil)
				return err
			}
			return nil
		}
	}
	return ErrProductNotFound
}
