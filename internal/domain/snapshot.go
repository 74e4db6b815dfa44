package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventorySnapshot is the derived per-(product, warehouse) aggregate the
// valuation engine recomputes from the ledger. Current stock equals the sum
// of signed movement quantities; total value is consistent with the valuation
// method recorded on the row.
type InventorySnapshot struct {
	ID             int64           `json:"id" db:"id"`
	ProductID      int64           `json:"product_id" db:"product_id"`
	WarehouseID    int64           `json:"warehouse_id" db:"warehouse_id"`
	Zone           string          `json:"zone,omitempty" db:"zone"`
	CurrentStock   float64         `json:"current_stock" db:"current_stock"`
	MinimumLevel   float64         `json:"minimum_level" db:"minimum_level"`
	MaximumLevel   float64         `json:"maximum_level" db:"maximum_level"`
	ReorderLevel   float64         `json:"reorder_level" db:"reorder_level"`
	UnitCost       decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	TotalValue     decimal.Decimal `json:"total_value" db:"total_value"`
	Method         ValuationMethod `json:"valuation_method" db:"valuation_method"`
	LastMovementAt *time.Time      `json:"last_movement_at,omitempty" db:"last_movement_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// SnapshotKey identifies the single-writer unit for snapshot recomputation.
type SnapshotKey struct {
	ProductID   int64
	WarehouseID int64
}
