package domain

import (
	"context"
	"time"

	"github.com/joao-fontenele/posflow/internal/money"
)

// DefaultReturnWindow is the period during which a completed order may be
// returned.
const DefaultReturnWindow = 30 * 24 * time.Hour

// ReturnPolicy decides whether a completed order is still eligible for
// return. CanReturn is a pure predicate and the single gate checked before a
// return is initiated.
type ReturnPolicy struct {
	Window time.Duration
}

func DefaultReturnPolicy() ReturnPolicy {
	return ReturnPolicy{Window: DefaultReturnWindow}
}

func (p ReturnPolicy) CanReturn(o *Order, now time.Time) bool {
	if o.Status != OrderStatusCompleted || o.IsReturn {
		return false
	}
	return now.Sub(o.CreatedAt) <= p.Window
}

// ReturnLine names a line item of the original order and the quantity being
// returned.
type ReturnLine struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// InitiateReturn builds a return order for the given lines, releases the
// returned stock and marks this order REFUNDED (every line returned in full)
// or PARTIALLY_REFUNDED. An empty lines slice returns everything. The refund
// due is the return order's total amount: per-line discounts are prorated by
// returned quantity and the order-level discount by the returned subtotal's
// share, so a full return never refunds more than the original total.
func (o *Order) InitiateReturn(ctx context.Context, ledger StockLedger, lines []ReturnLine, policy ReturnPolicy, now time.Time) (*Order, error) {
	if o.Status != OrderStatusCompleted {
		return nil, &StateTransitionError{Status: o.Status, Op: "return"}
	}
	if !policy.CanReturn(o, now) {
		return nil, &StateTransitionError{Status: o.Status, Op: "return"}
	}

	if len(lines) == 0 {
		lines = make([]ReturnLine, 0, len(o.Items))
		for _, item := range o.Items {
			lines = append(lines, ReturnLine{ItemID: item.ID, Quantity: item.Quantity})
		}
	}

	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		item := o.Item(line.ItemID)
		if item == nil {
			return nil, &ValidationError{Field: "item_id", Reason: "no such line item"}
		}
		if seen[line.ItemID] {
			return nil, &ValidationError{Field: "item_id", Reason: "duplicate line item"}
		}
		seen[line.ItemID] = true
		if line.Quantity <= 0 || line.Quantity > item.Quantity {
			return nil, &ValidationError{Field: "quantity", Reason: "must be between 1 and the ordered quantity"}
		}
	}

	ret := &Order{
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		PaymentMethod:   o.PaymentMethod,
		Status:          OrderStatusPending,
		IsReturn:        true,
		OriginalOrderID: o.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	full := true
	for _, line := range lines {
		item := o.Item(line.ItemID)
		if line.Quantity < item.Quantity {
			full = false
		}

		retItem, err := NewLineItem(item.ProductID, line.Quantity, item.UnitPrice)
		if err != nil {
			return nil, err
		}
		if item.HasDiscount() {
			prorated, err := item.DiscountAmount.MulInt(line.Quantity).
				Div(money.FromInt(int64(item.Quantity)), money.CurrencyScale)
			if err != nil {
				return nil, err
			}
			if err := retItem.ApplyFixedDiscount(prorated); err != nil {
				return nil, err
			}
		}
		if err := ret.AddItem(retItem); err != nil {
			return nil, err
		}
	}
	if len(lines) < len(o.Items) {
		full = false
	}

	if o.DiscountAmount.IsPositive() && o.Subtotal.IsPositive() {
		share, err := o.DiscountAmount.Mul(ret.Subtotal).Div(o.Subtotal, money.CurrencyScale)
		if err != nil {
			return nil, err
		}
		if limit := ret.Subtotal.Add(ret.TaxAmount); share.GreaterThan(limit) {
			share = limit
		}
		ret.DiscountAmount = share
		ret.RecalculateTotals()
	}

	released := make([]ReturnLine, 0, len(lines))
	for _, line := range lines {
		item := o.Item(line.ItemID)
		if err := ledger.Release(ctx, item.ProductID, line.Quantity); err != nil {
			for i := len(released) - 1; i >= 0; i-- {
				prev := o.Item(released[i].ItemID)
				_ = ledger.Reserve(ctx, prev.ProductID, released[i].Quantity)
			}
			return nil, err
		}
		released = append(released, line)
	}

	ret.Status = OrderStatusCompleted
	if full {
		o.Status = OrderStatusRefunded
	} else {
		o.Status = OrderStatusPartiallyRefunded
	}
	return ret, nil
}
