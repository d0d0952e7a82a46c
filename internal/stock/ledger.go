// Package stock provides an in-memory stock ledger. Each product serializes
// its own reserve/release operations, so concurrent checkouts against the
// same product cannot drive quantity on hand negative.
package stock

import (
	"context"
	"fmt"
	"sync"

	"github.com/joao-fontenele/posflow/internal/domain"
)

type entry struct {
	mu  sync.Mutex
	rec domain.StockRecord
}

type Ledger struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]*entry)}
}

// Add registers a stock record, deriving its status. An existing record for
// the same product is replaced.
func (l *Ledger) Add(rec domain.StockRecord) {
	rec.RefreshStatus()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[rec.ProductID] = &entry{rec: rec}
}

// Get returns a copy of the product's record.
func (l *Ledger) Get(productID string) (domain.StockRecord, bool) {
	l.mu.RLock()
	e, ok := l.entries[productID]
	l.mu.RUnlock()
	if !ok {
		return domain.StockRecord{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec, true
}

func (l *Ledger) lookup(productID string) (*entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[productID]
	if !ok {
		return nil, fmt.Errorf("unknown product %s", productID)
	}
	return e, nil
}

// Reserve decrements quantity on hand by quantity, failing with
// ErrInsufficientStock and leaving the record unchanged when not enough is
// on hand.
func (l *Ledger) Reserve(_ context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return &domain.ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	e, err := l.lookup(productID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if quantity > e.rec.QuantityOnHand {
		return fmt.Errorf("product %s: %w", productID, domain.ErrInsufficientStock)
	}
	e.rec.QuantityOnHand -= quantity
	e.rec.RefreshStatus()
	return nil
}

// Release increments quantity on hand. It fails only for unknown products.
func (l *Ledger) Release(_ context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return &domain.ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	e, err := l.lookup(productID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.rec.QuantityOnHand += quantity
	e.rec.RefreshStatus()
	return nil
}

// Discontinue marks the product DISCONTINUED. The flag is sticky: later
// quantity changes do not overwrite it.
func (l *Ledger) Discontinue(productID string) bool {
	e, err := l.lookup(productID)
	if err != nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rec.Status = domain.StockStatusDiscontinued
	return true
}
