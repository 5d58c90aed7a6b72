package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq" // for pq.Error codes
	"github.com/shopspring/decimal"

	"shoppos/internal/catalog/domain"
	"shoppos/internal/platform/logger"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductConflict = errors.New("product conflict, possibly unique constraint violation")
)

type ProductRepository interface {
	// GetByBarcode resolves a scanned symbol to a product. Barcodes are not
	// unique-enforced by the store; when several rows share one symbol the
	// lowest id wins so lookups stay deterministic.
	GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	// Search does a case-insensitive substring match on name and barcode.
	// An empty query returns the full catalog ordered by id ascending.
	Search(ctx context.Context, query string) ([]domain.Product, error)
	Insert(ctx context.Context, product *domain.Product) error
	// UpdateQuantity sets the absolute stock level.
	UpdateQuantity(ctx context.Context, id int64, quantity int) error
	// DecrementQuantity subtracts amount from the current stock. No floor
	// clamp is applied; a negative result is passed through to the store.
	DecrementQuantity(ctx context.Context, id int64, amount int) error
}

const productColumns = `id, barcode, name, quantity, purchase_price, selling_price, mrp,
	category, tax_rate, hsn_code, batch, mfg_date, exp_date, created_at, updated_at`

type postgresProductRepository struct {
	db *sql.DB
}

func NewPostgresProductRepository(db *sql.DB) ProductRepository {
	return &postgresProductRepository{db: db}
}

func scanProduct(row interface{ Scan(dest ...interface{}) error }) (*domain.Product, error) {
	var p domain.Product
	var category, hsnCode, batch sql.NullString
	var taxRate decimal.NullDecimal
	var mfgDate, expDate sql.NullTime
	err := row.Scan(&p.ID, &p.Barcode, &p.Name, &p.Quantity, &p.PurchasePrice,
		&p.SellingPrice, &p.MRP, &category, &taxRate, &hsnCode, &batch,
		&mfgDate, &expDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if category.Valid {
		p.Category = &category.String
	}
	if taxRate.Valid {
		p.TaxRate = &taxRate.Decimal
	}
	if hsnCode.Valid {
		p.HSNCode = &hsnCode.String
	}
	if batch.Valid {
		p.Batch = &batch.String
	}
	if mfgDate.Valid {
		p.MfgDate = &mfgDate.Time
	}
	if expDate.Valid {
		p.ExpDate = &expDate.Time
	}
	return &p, nil
}

func (r *postgresProductRepository) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE barcode = $1 ORDER BY id ASC LIMIT 1`
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, barcode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		logger.Error("GetByBarcode: query failed", err, nil)
		return nil, err
	}
	return p, nil
}

func (r *postgresProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		logger.Error("GetByID: query failed", err, nil)
		return nil, err
	}
	return p, nil
}

func (r *postgresProductRepository) Search(ctx context.Context, query string) ([]domain.Product, error) {
	var rows *sql.Rows
	var err error
	if query == "" {
		q := `SELECT ` + productColumns + ` FROM products ORDER BY id ASC`
		rows, err = r.db.QueryContext(ctx, q)
	} else {
		q := `SELECT ` + productColumns + ` FROM products
              WHERE name ILIKE '%' || $1 || '%' OR barcode ILIKE '%' || $1 || '%'
              ORDER BY id ASC`
		rows, err = r.db.QueryContext(ctx, q, query)
	}
	if err != nil {
		logger.Error("Search: query failed", err, nil)
		return nil, err
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			logger.Error("Search: scan failed", err, nil)
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *postgresProductRepository) Insert(ctx context.Context, product *domain.Product) error {
	query := `INSERT INTO products (barcode, name, quantity, purchase_price, selling_price, mrp,
                  category, tax_rate, hsn_code, batch, mfg_date, exp_date, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
              RETURNING id, created_at, updated_at`
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query, product.Barcode, product.Name, product.Quantity,
		product.PurchasePrice, product.SellingPrice, product.MRP, product.Category,
		product.TaxRate, product.HSNCode, product.Batch, product.MfgDate, product.ExpDate,
		product.CreatedAt, product.UpdatedAt).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return ErrProductConflict
		}
		logger.Error("Insert: failed to insert product", err, nil)
		return err
	}
	return nil
}

func (r *postgresProductRepository) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	query := `UPDATE products SET quantity = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, quantity, time.Now(), id)
	if err != nil {
		logger.Error("UpdateQuantity: exec failed", err, nil)
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *postgresProductRepository) DecrementQuantity(ctx context.Context, id int64, amount int) error {
	query := `UPDATE products SET quantity = quantity - $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, amount, time.Now(), id)
	if err != nil {
		logger.Error("DecrementQuantity: exec failed", err, nil)
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}
