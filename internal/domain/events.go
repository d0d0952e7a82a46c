package domain

import (
	"time"

	"github.com/joao-fontenele/posflow/internal/money"
)

type EventItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// OrderCompletedEvent is published after stock has been reserved and the
// order marked COMPLETED.
type OrderCompletedEvent struct {
	OrderID       string      `json:"order_id"`
	OrderNumber   string      `json:"order_number"`
	CustomerEmail string      `json:"customer_email"`
	TotalAmount   money.Money `json:"total_amount"`
	Items         []EventItem `json:"items"`
	Timestamp     time.Time   `json:"timestamp"`
}

// OrderReturnedEvent is published after a return order has been created and
// the returned stock released.
type OrderReturnedEvent struct {
	OrderID         string      `json:"order_id"`
	OriginalOrderID string      `json:"original_order_id"`
	CustomerEmail   string      `json:"customer_email"`
	RefundAmount    money.Money `json:"refund_amount"`
	Partial         bool        `json:"partial"`
	Timestamp       time.Time   `json:"timestamp"`
}
