package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"shoppos/internal/billing/domain"
	"shoppos/internal/platform/logger"
)

var ErrSaleNotFound = errors.New("sale not found")

type SaleRepository interface {
	// CreateSaleWithItems stores the sale and its items in one transaction.
	CreateSaleWithItems(ctx context.Context, sale *domain.Sale) error
	ListSales(ctx context.Context, limit int) ([]domain.Sale, error)

	// Pending decrement queue: stock updates that failed during finalize.
	EnqueuePendingDecrement(ctx context.Context, pd *domain.PendingDecrement) error
	ListPendingDecrements(ctx context.Context) ([]domain.PendingDecrement, error)
	DeletePendingDecrement(ctx context.Context, id string) error
	MarkDecrementAttempt(ctx context.Context, id string) error
}

type postgresSaleRepository struct {
	db *sql.DB
}

func NewPostgresSaleRepository(db *sql.DB) SaleRepository {
	return &postgresSaleRepository{db: db}
}

func (r *postgresSaleRepository) CreateSaleWithItems(ctx context.Context, sale *domain.Sale) error {
	tx, err := r.db.Begin()
	if err != nil {
		logger.Error("CreateSaleWithItems: failed to begin tx", err, nil)
		return err
	}
	defer tx.Rollback() // Rollback if not committed

	saleQuery := `INSERT INTO sales (id, total, created_at) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, saleQuery, sale.ID, sale.Total, sale.CreatedAt); err != nil {
		logger.Error("CreateSaleWithItems: failed to insert sale", err, nil)
		return err
	}

	itemStmt, err := tx.PrepareContext(ctx, `INSERT INTO sale_items
            (id, sale_id, product_id, barcode, product_name, quantity, unit_price, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		logger.Error("CreateSaleWithItems: failed to prepare item statement", err, nil)
		return err
	}
	defer itemStmt.Close()

	for _, item := range sale.Items {
		_, err := itemStmt.ExecContext(ctx, item.ID, item.SaleID, item.ProductID,
			item.Barcode, item.ProductName, item.Quantity, item.UnitPrice, item.CreatedAt)
		if err != nil {
			logger.Error("CreateSaleWithItems: failed to insert sale item", err, nil)
			return err
		}
	}

	return tx.Commit()
}

func (r *postgresSaleRepository) ListSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	query := `SELECT id, total, created_at FROM sales ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		logger.Error("ListSales: query failed", err, nil)
		return nil, err
	}
	defer rows.Close()

	sales := []domain.Sale{}
	for rows.Next() {
		var s domain.Sale
		if err := rows.Scan(&s.ID, &s.Total, &s.CreatedAt); err != nil {
			logger.Error("ListSales: scan failed", err, nil)
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func (r *postgresSaleRepository) EnqueuePendingDecrement(ctx context.Context, pd *domain.PendingDecrement) error {
	pd.CreatedAt = time.Now()
	query := `INSERT INTO pending_decrements (id, sale_id, product_id, amount, attempts, created_at)
              VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, pd.ID, pd.SaleID, pd.ProductID, pd.Amount, pd.Attempts, pd.CreatedAt)
	if err != nil {
		logger.Error("EnqueuePendingDecrement: exec failed", err, nil)
	}
	return err
}

func (r *postgresSaleRepository) ListPendingDecrements(ctx context.Context) ([]domain.PendingDecrement, error) {
	query := `SELECT id, sale_id, product_id, amount, attempts, created_at
              FROM pending_decrements ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("ListPendingDecrements: query failed", err, nil)
		return nil, err
	}
	defer rows.Close()

	pending := []domain.PendingDecrement{}
	for rows.Next() {
		var pd domain.PendingDecrement
		if err := rows.Scan(&pd.ID, &pd.SaleID, &pd.ProductID, &pd.Amount, &pd.Attempts, &pd.CreatedAt); err != nil {
			logger.Error("ListPendingDecrements: scan failed", err, nil)
			return nil, err
		}
		pending = append(pending, pd)
	}
	return pending, rows.Err()
}

func (r *postgresSaleRepository) DeletePendingDecrement(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_decrements WHERE id = $1`, id)
	if err != nil {
		logger.Error("DeletePendingDecrement: exec failed", err, nil)
	}
	return err
}

func (r *postgresSaleRepository) MarkDecrementAttempt(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE pending_decrements SET attempts = attempts + 1 WHERE id = $1`, id)
	if err != nil {
		logger.Error("MarkDecrementAttempt: exec failed", err, nil)
	}
	return err
}
