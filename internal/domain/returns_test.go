package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joao-fontenele/posflow/internal/money"
)

func completedOrder(t *testing.T, age time.Duration) *Order {
	t.Helper()
	o := mustOrder(t)
	o.ID = "order-1"
	a := mustItem(t, "SKU-1", 3, "10.00")
	a.ID = "item-a"
	b := mustItem(t, "SKU-2", 1, "5.00")
	b.ID = "item-b"
	_ = o.AddItem(a)
	_ = o.AddItem(b)
	o.Status = OrderStatusCompleted
	o.CreatedAt = time.Now().UTC().Add(-age)
	return o
}

func TestCanReturn(t *testing.T) {
	policy := DefaultReturnPolicy()
	now := time.Now().UTC()

	t.Run("within the window", func(t *testing.T) {
		o := completedOrder(t, 29*24*time.Hour)
		if !policy.CanReturn(o, now) {
			t.Error("expected 29-day-old order to be returnable")
		}
	})

	t.Run("outside the window", func(t *testing.T) {
		o := completedOrder(t, 31*24*time.Hour)
		if policy.CanReturn(o, now) {
			t.Error("expected 31-day-old order not to be returnable")
		}
	})

	t.Run("never for pending or return orders", func(t *testing.T) {
		o := completedOrder(t, time.Hour)
		o.Status = OrderStatusPending
		if policy.CanReturn(o, now) {
			t.Error("pending order must not be returnable")
		}

		o = completedOrder(t, time.Hour)
		o.IsReturn = true
		if policy.CanReturn(o, now) {
			t.Error("return order must not be returnable")
		}
	})
}

func TestInitiateReturn(t *testing.T) {
	ctx := context.Background()
	policy := DefaultReturnPolicy()
	now := time.Now().UTC()

	t.Run("full return refunds everything", func(t *testing.T) {
		o := completedOrder(t, time.Hour)
		ledger := newFakeLedger()

		ret, err := o.InitiateReturn(ctx, ledger, nil, policy, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if o.Status != OrderStatusRefunded {
			t.Errorf("expected original REFUNDED, got %s", o.Status)
		}
		if !ret.IsReturn || ret.OriginalOrderID != "order-1" {
			t.Errorf("return order not linked to original: %+v", ret)
		}
		if got := ret.TotalAmount.String(); got != "37.80" {
			t.Errorf("expected refund 37.80, got %s", got)
		}
		if ledger.onHand["SKU-1"] != 3 || ledger.onHand["SKU-2"] != 1 {
			t.Errorf("expected stock released, got %v", ledger.onHand)
		}
	})

	t.Run("partial quantity marks partially refunded", func(t *testing.T) {
		o := completedOrder(t, time.Hour)
		ledger := newFakeLedger()

		ret, err := o.InitiateReturn(ctx, ledger, []ReturnLine{{ItemID: "item-a", Quantity: 1}}, policy, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if o.Status != OrderStatusPartiallyRefunded {
			t.Errorf("expected PARTIALLY_REFUNDED, got %s", o.Status)
		}
		// 10.00 + 0.80 tax
		if got := ret.TotalAmount.String(); got != "10.80" {
			t.Errorf("expected refund 10.80, got %s", got)
		}
		if ledger.onHand["SKU-1"] != 1 {
			t.Errorf("expected 1 unit released, got %v", ledger.onHand)
		}
	})

	t.Run("prorates line discounts", func(t *testing.T) {
		o := completedOrder(t, time.Hour)
		if err := o.Item("item-a").ApplyFixedDiscount(money.MustFromString("9.00")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		o.RecalculateTotals()

		ret, err := o.InitiateReturn(ctx, newFakeLedger(), []ReturnLine{{ItemID: "item-a", Quantity: 1}}, policy, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// one of three units carries 9.00/3 = 3.00 discount: 10.00 - 3.00 = 7.00 + 0.56 tax
		if got := ret.TotalAmount.String(); got != "7.56" {
			t.Errorf("expected refund 7.56, got %s", got)
		}
	})

	t.Run("prorates the order discount", func(t *testing.T) {
		o := completedOrder(t, time.Hour)
		o.Status = OrderStatusPending
		if err := o.SetDiscount(money.MustFromString("5.00")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// 35.00 + 2.80 tax - 5.00 discount
		if err := o.RecordPayment(money.MustFromString("32.80")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		o.Status = OrderStatusCompleted

		ret, err := o.InitiateReturn(ctx, newFakeLedger(), nil, policy, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := ret.DiscountAmount.String(); got != "5.00" {
			t.Errorf("expected full discount 5.00 carried, got %s", got)
		}
		if got := ret.TotalAmount.String(); got != "32.80" {
			t.Errorf("expected refund 32.80, got %s", got)
		}
		if ret.TotalAmount.GreaterThan(o.AmountPaid) {
			t.Errorf("refund %s exceeds amount paid %s", ret.TotalAmount, o.AmountPaid)
		}
	})

	t.Run("order discount prorated by returned share", func(t *testing.T) {
		o := completedOrder(t, time.Hour)
		o.Status = OrderStatusPending
		if err := o.SetDiscount(money.MustFromString("5.00")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		o.Status = OrderStatusCompleted

		ret, err := o.InitiateReturn(ctx, newFakeLedger(), []ReturnLine{{ItemID: "item-b", Quantity: 1}}, policy, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// item-b is 5.00 of the 35.00 subtotal: 5.00 * 5/35 = 0.71 discount,
		// refund 5.00 + 0.40 tax - 0.71
		if got := ret.DiscountAmount.String(); got != "0.71" {
			t.Errorf("expected prorated discount 0.71, got %s", got)
		}
		if got := ret.TotalAmount.String(); got != "4.69" {
			t.Errorf("expected refund 4.69, got %s", got)
		}
	})

	t.Run("re-reserves on release failure", func(t *testing.T) {
		o := completedOrder(t, time.Hour)
		ledger := newFakeLedger()
		ledger.failRelease["SKU-2"] = true

		_, err := o.InitiateReturn(ctx, ledger, nil, policy, now)
		if !errors.Is(err, errLedgerDown) {
			t.Fatalf("expected ledger error, got %v", err)
		}

		if o.Status != OrderStatusCompleted {
			t.Errorf("original order mutated by failed return: %s", o.Status)
		}
		if ledger.onHand["SKU-1"] != 0 {
			t.Errorf("expected SKU-1 release rolled back, on hand %d", ledger.onHand["SKU-1"])
		}
	})

	t.Run("gated by the return window", func(t *testing.T) {
		o := completedOrder(t, 31*24*time.Hour)
		_, err := o.InitiateReturn(ctx, newFakeLedger(), nil, policy, now)
		var serr *StateTransitionError
		if !errors.As(err, &serr) {
			t.Fatalf("expected StateTransitionError, got %v", err)
		}
		if o.Status != OrderStatusCompleted {
			t.Errorf("original order mutated by rejected return: %s", o.Status)
		}
	})

	t.Run("rejects bad quantities", func(t *testing.T) {
		o := completedOrder(t, time.Hour)
		var verr *ValidationError

		_, err := o.InitiateReturn(ctx, newFakeLedger(), []ReturnLine{{ItemID: "item-a", Quantity: 4}}, policy, now)
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError for overshoot, got %v", err)
		}

		_, err = o.InitiateReturn(ctx, newFakeLedger(), []ReturnLine{{ItemID: "missing", Quantity: 1}}, policy, now)
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError for unknown item, got %v", err)
		}

		_, err = o.InitiateReturn(ctx, newFakeLedger(), []ReturnLine{
			{ItemID: "item-a", Quantity: 1},
			{ItemID: "item-a", Quantity: 1},
		}, policy, now)
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError for duplicate line, got %v", err)
		}
	})

	t.Run("not legal on a non-completed order", func(t *testing.T) {
		o := mustOrder(t)
		_, err := o.InitiateReturn(ctx, newFakeLedger(), nil, policy, now)
		var serr *StateTransitionError
		if !errors.As(err, &serr) {
			t.Fatalf("expected StateTransitionError, got %v", err)
		}
	})
}
