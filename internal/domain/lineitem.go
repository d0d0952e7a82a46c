package domain

import "github.com/joao-fontenele/posflow/internal/money"

var oneHundred = money.MustFromString("100")

// LineItem is one product/quantity/price/discount entry within an order.
// Every mutation recomputes Subtotal, which is always
// max(0, quantity*unitPrice - discountAmount).
type LineItem struct {
	ID             string      `json:"id"`
	OrderID        string      `json:"order_id"`
	ProductID      string      `json:"product_id"`
	Quantity       int         `json:"quantity"`
	UnitPrice      money.Money `json:"unit_price"`
	DiscountAmount money.Money `json:"discount_amount"`
	Subtotal       money.Money `json:"subtotal"`
	Notes          string      `json:"notes,omitempty"`
}

// NewLineItem validates its inputs and returns an item with the subtotal
// computed.
func NewLineItem(productID string, quantity int, unitPrice money.Money) (*LineItem, error) {
	if productID == "" {
		return nil, &ValidationError{Field: "product_id", Reason: "must not be empty"}
	}
	if quantity <= 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if unitPrice.IsNegative() {
		return nil, &ValidationError{Field: "unit_price", Reason: "must not be negative"}
	}

	item := &LineItem{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}
	item.recalculateSubtotal()
	return item, nil
}

// GrossAmount is the pre-discount value, quantity * unit price.
func (li *LineItem) GrossAmount() money.Money {
	return li.UnitPrice.MulInt(li.Quantity)
}

func (li *LineItem) recalculateSubtotal() {
	li.Subtotal = money.Max(money.Zero(), li.GrossAmount().Sub(li.DiscountAmount))
}

func (li *LineItem) UpdateQuantity(quantity int) error {
	if quantity <= 0 {
		return &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	li.Quantity = quantity
	li.recalculateSubtotal()
	return nil
}

func (li *LineItem) UpdateUnitPrice(unitPrice money.Money) error {
	if unitPrice.IsNegative() {
		return &ValidationError{Field: "unit_price", Reason: "must not be negative"}
	}
	li.UnitPrice = unitPrice
	li.recalculateSubtotal()
	return nil
}

// ApplyPercentageDiscount sets the discount to the given percentage of the
// gross amount, rounded half-up to the currency scale. The percentage must be
// within [0, 100].
func (li *LineItem) ApplyPercentageDiscount(percentage money.Money) error {
	if percentage.IsNegative() || percentage.GreaterThan(oneHundred) {
		return &ValidationError{Field: "percentage", Reason: "must be between 0 and 100"}
	}

	discount, err := li.GrossAmount().Mul(percentage).Div(oneHundred, money.CurrencyScale)
	if err != nil {
		return err
	}
	li.DiscountAmount = discount
	li.recalculateSubtotal()
	return nil
}

// ApplyFixedDiscount sets the discount, clamped so it never exceeds the gross
// amount.
func (li *LineItem) ApplyFixedDiscount(amount money.Money) error {
	if amount.IsNegative() {
		return &ValidationError{Field: "discount_amount", Reason: "must not be negative"}
	}

	if gross := li.GrossAmount(); amount.GreaterThan(gross) {
		amount = gross
	}
	li.DiscountAmount = amount
	li.recalculateSubtotal()
	return nil
}

// DiscountPercentage reports the discount as a percentage of the gross
// amount, with the ratio computed at four fractional digits.
func (li *LineItem) DiscountPercentage() money.Money {
	gross := li.GrossAmount()
	if !gross.IsPositive() || !li.DiscountAmount.IsPositive() {
		return money.Zero()
	}
	ratio, err := li.DiscountAmount.Div(gross, money.RatioScale)
	if err != nil {
		return money.Zero()
	}
	return ratio.Mul(oneHundred)
}

func (li *LineItem) HasDiscount() bool {
	return li.DiscountAmount.IsPositive()
}
