// Package money provides fixed-scale decimal arithmetic for currency values.
// Currency-facing results carry 2 fractional digits, percentage ratios 4,
// both rounded half-up.
package money

import (
	"database/sql/driver"
	"errors"

	"github.com/shopspring/decimal"
)

const (
	// CurrencyScale is the number of fractional digits kept on amounts.
	CurrencyScale int32 = 2
	// RatioScale is the number of fractional digits kept on discount ratios.
	RatioScale int32 = 4
)

// ErrDivideByZero is returned by Div when the divisor is zero.
var ErrDivideByZero = errors.New("money: division by zero")

// Money is a decimal amount. The zero value is 0.00.
type Money struct {
	d decimal.Decimal
}

func Zero() Money {
	return Money{}
}

func FromDecimal(d decimal.Decimal) Money {
	return Money{d: d}
}

// FromCents builds an amount from an integer number of cents.
func FromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -CurrencyScale)}
}

func FromInt(n int64) Money {
	return Money{d: decimal.NewFromInt(n)}
}

func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{d: d}, nil
}

// MustFromString is FromString that panics on malformed input. For constants
// and tests only.
func MustFromString(s string) Money {
	return Money{d: decimal.RequireFromString(s)}
}

func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

func (m Money) Sub(o Money) Money {
	return Money{d: m.d.Sub(o.d)}
}

// Mul returns the exact product. Callers producing a currency-facing value
// round explicitly with Round2.
func (m Money) Mul(o Money) Money {
	return Money{d: m.d.Mul(o.d)}
}

func (m Money) MulInt(n int) Money {
	return Money{d: m.d.Mul(decimal.NewFromInt(int64(n)))}
}

// Div divides by o, rounding half-up to the given scale. A zero divisor
// yields ErrDivideByZero.
func (m Money) Div(o Money, scale int32) (Money, error) {
	if o.d.IsZero() {
		return Money{}, ErrDivideByZero
	}
	return Money{d: m.d.DivRound(o.d, scale)}, nil
}

// Round2 rounds half-up to 2 fractional digits.
func (m Money) Round2() Money {
	return Money{d: m.d.Round(CurrencyScale)}
}

// Round4 rounds half-up to 4 fractional digits.
func (m Money) Round4() Money {
	return Money{d: m.d.Round(RatioScale)}
}

// Max returns the larger of a and b.
func Max(a, b Money) Money {
	if a.d.GreaterThanOrEqual(b.d) {
		return a
	}
	return b
}

func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

func (m Money) IsZero() bool {
	return m.d.IsZero()
}

func (m Money) IsPositive() bool {
	return m.d.IsPositive()
}

func (m Money) Cmp(o Money) int {
	return m.d.Cmp(o.d)
}

func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

func (m Money) LessThan(o Money) bool {
	return m.d.LessThan(o.d)
}

func (m Money) GreaterThan(o Money) bool {
	return m.d.GreaterThan(o.d)
}

func (m Money) GreaterThanOrEqual(o Money) bool {
	return m.d.GreaterThanOrEqual(o.d)
}

func (m Money) Decimal() decimal.Decimal {
	return m.d
}

// String renders with the currency scale, e.g. "32.40".
func (m Money) String() string {
	return m.d.StringFixed(CurrencyScale)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return m.d.UnmarshalJSON(data)
}

// Scan implements sql.Scanner for NUMERIC columns.
func (m *Money) Scan(value any) error {
	return m.d.Scan(value)
}

// Value implements driver.Valuer.
func (m Money) Value() (driver.Value, error) {
	return m.d.Value()
}
