package domain

import (
	"context"
	"time"

	"github.com/joao-fontenele/posflow/internal/money"
)

type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "PENDING"
	OrderStatusCompleted         OrderStatus = "COMPLETED"
	OrderStatusCancelled         OrderStatus = "CANCELLED"
	OrderStatusRefunded          OrderStatus = "REFUNDED"
	OrderStatusPartiallyRefunded OrderStatus = "PARTIALLY_REFUNDED"
)

type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "CASH"
	PaymentMethodCreditCard    PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard     PaymentMethod = "DEBIT_CARD"
	PaymentMethodMobilePayment PaymentMethod = "MOBILE_PAYMENT"
	PaymentMethodBankTransfer  PaymentMethod = "BANK_TRANSFER"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCreditCard, PaymentMethodDebitCard,
		PaymentMethodMobilePayment, PaymentMethodBankTransfer:
		return true
	}
	return false
}

// TaxRate is the flat sales tax applied to the order subtotal.
var TaxRate = money.MustFromString("0.08")

// Order owns its line items and drives the order status state machine:
// PENDING -> COMPLETED or CANCELLED; COMPLETED -> REFUNDED or
// PARTIALLY_REFUNDED via a separate return order. Every mutating operation
// recomputes the totals as a postcondition.
type Order struct {
	ID              string        `json:"id"`
	OrderNumber     string        `json:"order_number"`
	CustomerName    string        `json:"customer_name"`
	CustomerEmail   string        `json:"customer_email"`
	CustomerPhone   string        `json:"customer_phone,omitempty"`
	Items           []*LineItem   `json:"items"`
	Subtotal        money.Money   `json:"subtotal"`
	TaxAmount       money.Money   `json:"tax_amount"`
	DiscountAmount  money.Money   `json:"discount_amount"`
	TotalAmount     money.Money   `json:"total_amount"`
	AmountPaid      money.Money   `json:"amount_paid"`
	ChangeAmount    money.Money   `json:"change_amount"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	Status          OrderStatus   `json:"status"`
	Notes           string        `json:"notes,omitempty"`
	ReceiptSent     bool          `json:"receipt_sent"`
	IsReturn        bool          `json:"is_return"`
	OriginalOrderID string        `json:"original_order_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// NewOrder creates a PENDING order. Identifiers and order numbers are
// assigned by the persistence layer.
func NewOrder(customerName, customerEmail string, method PaymentMethod, createdAt time.Time) (*Order, error) {
	if !method.Valid() {
		return nil, &ValidationError{Field: "payment_method", Reason: "unknown payment method"}
	}

	return &Order{
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
		PaymentMethod: method,
		Status:        OrderStatusPending,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}, nil
}

// AddItem appends a line item and recomputes totals. Items can only be added
// while the order is PENDING.
func (o *Order) AddItem(item *LineItem) error {
	if o.Status != OrderStatusPending {
		return &StateTransitionError{Status: o.Status, Op: "add item to"}
	}
	item.OrderID = o.ID
	o.Items = append(o.Items, item)
	o.RecalculateTotals()
	return nil
}

// RemoveItem removes the line item with the given id and recomputes totals.
func (o *Order) RemoveItem(itemID string) error {
	if o.Status != OrderStatusPending {
		return &StateTransitionError{Status: o.Status, Op: "remove item from"}
	}
	for i, item := range o.Items {
		if item.ID == itemID {
			item.OrderID = ""
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			o.RecalculateTotals()
			return nil
		}
	}
	return &ValidationError{Field: "item_id", Reason: "no such line item"}
}

// Item returns the line item with the given id, or nil.
func (o *Order) Item(itemID string) *LineItem {
	for _, item := range o.Items {
		if item.ID == itemID {
			return item
		}
	}
	return nil
}

// RecalculateTotals recomputes subtotal, tax, total and change from the line
// items. Idempotent: calling it twice without an intervening change yields
// identical totals.
func (o *Order) RecalculateTotals() {
	subtotal := money.Zero()
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.Subtotal)
	}

	o.Subtotal = subtotal
	o.TaxAmount = subtotal.Mul(TaxRate).Round2()
	o.TotalAmount = money.Max(money.Zero(), subtotal.Add(o.TaxAmount).Sub(o.DiscountAmount))
	o.ChangeAmount = money.Max(money.Zero(), o.AmountPaid.Sub(o.TotalAmount))
}

// SetDiscount sets the order-level discount. A discount exceeding
// subtotal+tax is rejected rather than silently absorbed into a zero total.
func (o *Order) SetDiscount(amount money.Money) error {
	if o.Status != OrderStatusPending {
		return &StateTransitionError{Status: o.Status, Op: "discount"}
	}
	if amount.IsNegative() {
		return &ValidationError{Field: "discount_amount", Reason: "must not be negative"}
	}
	if amount.GreaterThan(o.Subtotal.Add(o.TaxAmount)) {
		return &ValidationError{Field: "discount_amount", Reason: "exceeds subtotal plus tax"}
	}
	o.DiscountAmount = amount
	o.RecalculateTotals()
	return nil
}

// RecordPayment sets the amount paid and recomputes the change due. Like the
// other mutators it only applies to PENDING orders: once an order completes,
// its financials change only through the return path.
func (o *Order) RecordPayment(amount money.Money) error {
	if o.Status != OrderStatusPending {
		return &StateTransitionError{Status: o.Status, Op: "payment"}
	}
	if amount.IsNegative() {
		return &ValidationError{Field: "amount_paid", Reason: "must not be negative"}
	}
	o.AmountPaid = amount
	o.ChangeAmount = money.Max(money.Zero(), amount.Sub(o.TotalAmount))
	return nil
}

func (o *Order) IsFullyPaid() bool {
	return o.AmountPaid.GreaterThanOrEqual(o.TotalAmount)
}

// TotalItems is the summed quantity across all line items.
func (o *Order) TotalItems() int {
	var n int
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// Complete reserves stock for every line item and moves the order to
// COMPLETED. Reservation is all-or-nothing: if any line fails, reservations
// already made in this call are released and the order is left PENDING.
func (o *Order) Complete(ctx context.Context, ledger StockLedger) error {
	if o.Status != OrderStatusPending {
		return &StateTransitionError{Status: o.Status, Op: "complete"}
	}

	reserved := make([]*LineItem, 0, len(o.Items))
	for _, item := range o.Items {
		if err := ledger.Reserve(ctx, item.ProductID, item.Quantity); err != nil {
			for i := len(reserved) - 1; i >= 0; i-- {
				_ = ledger.Release(ctx, reserved[i].ProductID, reserved[i].Quantity)
			}
			return err
		}
		reserved = append(reserved, item)
	}

	o.Status = OrderStatusCompleted
	return nil
}

// Cancel moves a PENDING order to CANCELLED. No stock was reserved, so none
// is released.
func (o *Order) Cancel() error {
	if o.Status != OrderStatusPending {
		return &StateTransitionError{Status: o.Status, Op: "cancel"}
	}
	o.Status = OrderStatusCancelled
	return nil
}
