package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType distinguishes stock entering or leaving a warehouse.
type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

// MovementCategory records why a movement happened.
type MovementCategory string

const (
	CategorySales      MovementCategory = "sales"
	CategoryPurchase   MovementCategory = "purchase"
	CategoryProduction MovementCategory = "production"
	CategoryAdjustment MovementCategory = "adjustment"
	CategoryTransfer   MovementCategory = "transfer"
)

// StockMovement is a single immutable fact in the append-only stock ledger.
// Rows are created when a physical or financial event occurs and are never
// mutated or deleted afterwards.
type StockMovement struct {
	ID          int64            `json:"id" db:"id"`
	ProductID   int64            `json:"product_id" db:"product_id"`
	WarehouseID int64            `json:"warehouse_id" db:"warehouse_id"`
	Type        MovementType     `json:"movement_type" db:"movement_type"`
	Category    MovementCategory `json:"category" db:"category"`
	Quantity    float64          `json:"quantity" db:"quantity"`
	UnitCost    decimal.Decimal  `json:"unit_cost" db:"unit_cost"`
	MovementAt  time.Time        `json:"movement_at" db:"movement_at"`
	Reference   string           `json:"reference,omitempty" db:"reference"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}

// TotalCost is quantity times unit cost.
func (m StockMovement) TotalCost() decimal.Decimal {
	return m.UnitCost.Mul(decimal.NewFromFloat(m.Quantity))
}

// SignedQuantity returns the quantity with IN positive and OUT negative.
func (m StockMovement) SignedQuantity() float64 {
	if m.Type == MovementOut {
		return -m.Quantity
	}
	return m.Quantity
}

// SortOrder selects the date ordering of a movement listing.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// MovementFilter narrows a ledger scan. A zero WarehouseID means all warehouses.
type MovementFilter struct {
	ProductID   int64
	WarehouseID int64
	Type        MovementType
	Range       DateRange
	Order       SortOrder
}
