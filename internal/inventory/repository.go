package inventory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/joao-fontenele/posflow/internal/domain"
)

// ProductRepository persists stock records. Reserve and Release recompute the
// derived stock status inside the same conditional UPDATE, so concurrent
// checkouts on one product serialize on the row and can never oversell.
// It satisfies domain.StockLedger.
type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, rec domain.StockRecord) error {
	rec.RefreshStatus()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (product_id, quantity_on_hand, reorder_level, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`, rec.ProductID, rec.QuantityOnHand, rec.ReorderLevel, rec.Status)
	return err
}

func (r *ProductRepository) ListAll(ctx context.Context) ([]domain.StockRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, quantity_on_hand, reorder_level, status
		FROM products
		ORDER BY product_id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []domain.StockRecord
	for rows.Next() {
		var rec domain.StockRecord
		if err := rows.Scan(&rec.ProductID, &rec.QuantityOnHand, &rec.ReorderLevel, &rec.Status); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *ProductRepository) Get(ctx context.Context, productID string) (*domain.StockRecord, error) {
	rec := &domain.StockRecord{}

	err := r.db.QueryRowContext(ctx, `
		SELECT product_id, quantity_on_hand, reorder_level, status
		FROM products
		WHERE product_id = $1
	`, productID).Scan(&rec.ProductID, &rec.QuantityOnHand, &rec.ReorderLevel, &rec.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return rec, nil
}

// Reserve decrements quantity on hand, atomically checking availability and
// recomputing the derived status. DISCONTINUED stays put.
func (r *ProductRepository) Reserve(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return &domain.ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET quantity_on_hand = quantity_on_hand - $2,
		    status = CASE
		        WHEN status = 'DISCONTINUED' THEN status
		        WHEN quantity_on_hand - $2 <= 0 THEN 'OUT_OF_STOCK'
		        WHEN quantity_on_hand - $2 <= reorder_level THEN 'LOW_STOCK'
		        ELSE 'AVAILABLE'
		    END,
		    updated_at = NOW()
		WHERE product_id = $1 AND quantity_on_hand >= $2
	`, productID, quantity)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrInsufficientStock
	}

	return nil
}

// Release increments quantity on hand and recomputes the derived status.
func (r *ProductRepository) Release(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return &domain.ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET quantity_on_hand = quantity_on_hand + $2,
		    status = CASE
		        WHEN status = 'DISCONTINUED' THEN status
		        WHEN quantity_on_hand + $2 <= 0 THEN 'OUT_OF_STOCK'
		        WHEN quantity_on_hand + $2 <= reorder_level THEN 'LOW_STOCK'
		        ELSE 'AVAILABLE'
		    END,
		    updated_at = NOW()
		WHERE product_id = $1
	`, productID, quantity)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return errors.New("product not found")
	}

	return nil
}

// Discontinue sets the sticky DISCONTINUED status.
func (r *ProductRepository) Discontinue(ctx context.Context, productID string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET status = 'DISCONTINUED', updated_at = NOW()
		WHERE product_id = $1
	`, productID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return errors.New("product not found")
	}

	return nil
}
