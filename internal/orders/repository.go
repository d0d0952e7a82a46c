package orders

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/posflow/internal/domain"
)

const orderColumns = `id, order_number, customer_name, customer_email, customer_phone,
	subtotal, tax_amount, discount_amount, total_amount, amount_paid, change_amount,
	payment_method, status, notes, receipt_sent, is_return, original_order_id, created_at, updated_at`

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists a new order with its line items in one transaction,
// assigning row ids and, when missing, an opaque order number.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	order.ID = uuid.New().String()
	if order.OrderNumber == "" {
		ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
		order.OrderNumber = "ORD-" + ts[len(ts)-8:]
	}

	if err := insertOrder(ctx, tx, order); err != nil {
		return err
	}

	return tx.Commit()
}

// Save rewrites the order header and its line items in one transaction.
func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := updateOrder(ctx, tx, order); err != nil {
		return err
	}

	return tx.Commit()
}

// CreateReturn atomically persists the new return order and the updated
// status of the original.
func (r *OrderRepository) CreateReturn(ctx context.Context, original, ret *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ret.ID = uuid.New().String()
	for _, item := range ret.Items {
		item.OrderID = ret.ID
	}
	if ret.OrderNumber == "" {
		ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
		ret.OrderNumber = "RET-" + ts[len(ts)-8:]
	}

	if err := insertOrder(ctx, tx, ret); err != nil {
		return err
	}
	if err := updateOrder(ctx, tx, original); err != nil {
		return err
	}

	return tx.Commit()
}

func insertOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)
	`, order.ID, order.OrderNumber, order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.Subtotal, order.TaxAmount, order.DiscountAmount, order.TotalAmount,
		order.AmountPaid, order.ChangeAmount, order.PaymentMethod, order.Status,
		order.Notes, order.ReceiptSent, order.IsReturn, nullable(order.OriginalOrderID), order.CreatedAt)
	if err != nil {
		return err
	}

	return insertItems(ctx, tx, order)
}

func updateOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET subtotal = $2, tax_amount = $3, discount_amount = $4, total_amount = $5,
		    amount_paid = $6, change_amount = $7, status = $8, notes = $9,
		    receipt_sent = $10, updated_at = NOW()
		WHERE id = $1
	`, order.ID, order.Subtotal, order.TaxAmount, order.DiscountAmount, order.TotalAmount,
		order.AmountPaid, order.ChangeAmount, order.Status, order.Notes, order.ReceiptSent)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID); err != nil {
		return err
	}

	return insertItems(ctx, tx, order)
}

func insertItems(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	for _, item := range order.Items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.OrderID = order.ID
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, discount_amount, subtotal, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice,
			item.DiscountAmount, item.Subtotal, item.Notes)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}
	var originalOrderID sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.OrderNumber, &order.CustomerName, &order.CustomerEmail,
		&order.CustomerPhone, &order.Subtotal, &order.TaxAmount, &order.DiscountAmount,
		&order.TotalAmount, &order.AmountPaid, &order.ChangeAmount, &order.PaymentMethod,
		&order.Status, &order.Notes, &order.ReceiptSent, &order.IsReturn, &originalOrderID,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	order.OriginalOrderID = originalOrderID.String

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, discount_amount, subtotal, notes
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		item := &domain.LineItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity,
			&item.UnitPrice, &item.DiscountAmount, &item.Subtotal, &item.Notes); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// List returns all orders, newest first, batch-loading line items with a
// single ANY query.
func (r *OrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		order := &domain.Order{}
		var originalOrderID sql.NullString
		if err := rows.Scan(&order.ID, &order.OrderNumber, &order.CustomerName, &order.CustomerEmail,
			&order.CustomerPhone, &order.Subtotal, &order.TaxAmount, &order.DiscountAmount,
			&order.TotalAmount, &order.AmountPaid, &order.ChangeAmount, &order.PaymentMethod,
			&order.Status, &order.Notes, &order.ReceiptSent, &order.IsReturn, &originalOrderID,
			&order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, err
		}
		order.OriginalOrderID = originalOrderID.String
		order.Items = []*domain.LineItem{}
		orderMap[order.ID] = order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []*domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, discount_amount, subtotal, notes
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		item := &domain.LineItem{}
		if err := itemRows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity,
			&item.UnitPrice, &item.DiscountAmount, &item.Subtotal, &item.Notes); err != nil {
			return nil, err
		}
		orderMap[item.OrderID].Items = append(orderMap[item.OrderID].Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, orderMap[id])
	}

	return orders, nil
}

// MarkReceiptSent flips the receipt flag and returns the refreshed order.
func (r *OrderRepository) MarkReceiptSent(ctx context.Context, id string) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET receipt_sent = TRUE, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
