package money

import (
	"encoding/json"
	"testing"
)

func TestArithmetic(t *testing.T) {
	t.Run("add and subtract preserve exact values", func(t *testing.T) {
		a := MustFromString("10.10")
		b := MustFromString("0.25")

		if got := a.Add(b).String(); got != "10.35" {
			t.Errorf("expected 10.35, got %s", got)
		}
		if got := a.Sub(b).String(); got != "9.85" {
			t.Errorf("expected 9.85, got %s", got)
		}
	})

	t.Run("multiply by quantity", func(t *testing.T) {
		price := MustFromString("10.00")
		if got := price.MulInt(3).String(); got != "30.00" {
			t.Errorf("expected 30.00, got %s", got)
		}
	})

	t.Run("currency rounding is half-up", func(t *testing.T) {
		// 30.00 * 0.08 = 2.40 exactly; 31.31 * 0.08 = 2.5048 -> 2.50;
		// 31.25 * 0.08 = 2.5000; 0.125 rounds up to 0.13.
		if got := MustFromString("0.125").Round2().String(); got != "0.13" {
			t.Errorf("expected 0.13, got %s", got)
		}
		tax := MustFromString("31.31").Mul(MustFromString("0.08")).Round2()
		if got := tax.String(); got != "2.50" {
			t.Errorf("expected 2.50, got %s", got)
		}
	})

	t.Run("ratio rounding keeps four digits", func(t *testing.T) {
		got := MustFromString("0.33335").Round4()
		if got.Decimal().String() != "0.3334" {
			t.Errorf("expected 0.3334, got %s", got.Decimal().String())
		}
	})
}

func TestDiv(t *testing.T) {
	t.Run("rounds to requested scale", func(t *testing.T) {
		ratio, err := MustFromString("10.00").Div(MustFromString("30.00"), RatioScale)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := ratio.Decimal().String(); got != "0.3333" {
			t.Errorf("expected 0.3333, got %s", got)
		}
	})

	t.Run("zero divisor fails", func(t *testing.T) {
		if _, err := MustFromString("1.00").Div(Zero(), CurrencyScale); err != ErrDivideByZero {
			t.Errorf("expected ErrDivideByZero, got %v", err)
		}
	})
}

func TestMaxAndSigns(t *testing.T) {
	neg := MustFromString("-5.00")

	if got := Max(Zero(), neg); !got.Equal(Zero()) {
		t.Errorf("expected clamp to zero, got %s", got)
	}
	if got := Max(MustFromString("2.00"), MustFromString("1.99")); got.String() != "2.00" {
		t.Errorf("expected 2.00, got %s", got)
	}
	if !neg.IsNegative() {
		t.Error("expected -5.00 to be negative")
	}
	if !Zero().IsZero() {
		t.Error("expected zero value to be zero")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(MustFromString("32.4"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"32.40"` {
		t.Errorf("expected \"32.40\", got %s", data)
	}

	var m Money
	if err := json.Unmarshal([]byte(`"7.60"`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.String() != "7.60" {
		t.Errorf("expected 7.60, got %s", m.String())
	}
}

func TestFromCents(t *testing.T) {
	if got := FromCents(3240).String(); got != "32.40" {
		t.Errorf("expected 32.40, got %s", got)
	}
}
