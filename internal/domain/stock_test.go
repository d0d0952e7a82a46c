package domain

import "testing"

func TestDeriveStockStatus(t *testing.T) {
	tests := []struct {
		name     string
		current  StockStatus
		onHand   int
		reorder  int
		expected StockStatus
	}{
		{"above reorder level", StockStatusAvailable, 50, 10, StockStatusAvailable},
		{"at reorder level", StockStatusAvailable, 10, 10, StockStatusLowStock},
		{"below reorder level", StockStatusAvailable, 8, 10, StockStatusLowStock},
		{"zero on hand", StockStatusLowStock, 0, 10, StockStatusOutOfStock},
		{"out of stock beats low stock", StockStatusAvailable, 0, 0, StockStatusOutOfStock},
		{"discontinued is sticky", StockStatusDiscontinued, 50, 10, StockStatusDiscontinued},
		{"discontinued survives exhaustion", StockStatusDiscontinued, 0, 10, StockStatusDiscontinued},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStockStatus(tt.current, tt.onHand, tt.reorder); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestRefreshStatus(t *testing.T) {
	rec := StockRecord{ProductID: "SKU-1", QuantityOnHand: 8, ReorderLevel: 10, Status: StockStatusAvailable}
	rec.RefreshStatus()
	if rec.Status != StockStatusLowStock {
		t.Errorf("expected LOW_STOCK, got %s", rec.Status)
	}

	rec.QuantityOnHand = 0
	rec.RefreshStatus()
	if rec.Status != StockStatusOutOfStock {
		t.Errorf("expected OUT_OF_STOCK, got %s", rec.Status)
	}
}
