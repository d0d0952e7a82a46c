package domain

import "context"

type StockStatus string

const (
	StockStatusAvailable    StockStatus = "AVAILABLE"
	StockStatusLowStock     StockStatus = "LOW_STOCK"
	StockStatusOutOfStock   StockStatus = "OUT_OF_STOCK"
	StockStatusDiscontinued StockStatus = "DISCONTINUED"
)

// StockRecord tracks a product's on-hand quantity and its derived status.
// Quantity is mutated only through ledger reserve/release operations.
type StockRecord struct {
	ProductID      string      `json:"product_id"`
	QuantityOnHand int         `json:"quantity_on_hand"`
	ReorderLevel   int         `json:"reorder_level"`
	Status         StockStatus `json:"status"`
}

// DeriveStockStatus classifies a quantity. Out-of-stock wins over low-stock,
// which wins over available. DISCONTINUED is a manual override and is never
// overwritten by quantity changes.
func DeriveStockStatus(current StockStatus, quantityOnHand, reorderLevel int) StockStatus {
	if current == StockStatusDiscontinued {
		return StockStatusDiscontinued
	}
	switch {
	case quantityOnHand <= 0:
		return StockStatusOutOfStock
	case quantityOnHand <= reorderLevel:
		return StockStatusLowStock
	default:
		return StockStatusAvailable
	}
}

// RefreshStatus recomputes the derived status after a quantity change.
func (r *StockRecord) RefreshStatus() {
	r.Status = DeriveStockStatus(r.Status, r.QuantityOnHand, r.ReorderLevel)
}

// StockLedger reserves and releases product stock. Reserve is an atomic
// check-then-act: it either decrements quantity on hand by the full amount or
// fails with ErrInsufficientStock leaving the record unchanged. Release
// increments and always succeeds for a known product.
type StockLedger interface {
	Reserve(ctx context.Context, productID string, quantity int) error
	Release(ctx context.Context, productID string, quantity int) error
}
