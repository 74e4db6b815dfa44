package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ricemill/analytics/internal/domain"
	"github.com/ricemill/analytics/internal/ledger"
)

type snapshotRepository struct {
	db *DB
}

// NewSnapshotRepository builds a SnapshotStore over inventory_snapshots.
func NewSnapshotRepository(db *DB) ledger.SnapshotStore {
	return &snapshotRepository{db: db}
}

const snapshotColumns = `
        id, product_id, warehouse_id, COALESCE(zone, '') AS zone,
        current_stock, minimum_level, maximum_level, reorder_level,
        unit_cost, total_value, valuation_method, last_movement_at, updated_at
`

func (r *snapshotRepository) ListSnapshots(ctx context.Context, warehouseID int64) ([]domain.InventorySnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM inventory_snapshots`

	var args []interface{}
	if warehouseID > 0 {
		query += ` WHERE warehouse_id = $1`
		args = append(args, warehouseID)
	}
	query += ` ORDER BY product_id, warehouse_id`

	var snapshots []domain.InventorySnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, args...); err != nil {
		return nil, fmt.Errorf("error listing inventory snapshots: %w", err)
	}
	return snapshots, nil
}

func (r *snapshotRepository) GetSnapshot(ctx context.Context, key domain.SnapshotKey) (domain.InventorySnapshot, error) {
	var snap domain.InventorySnapshot
	err := r.db.GetContext(ctx, &snap,
		`SELECT `+snapshotColumns+` FROM inventory_snapshots WHERE product_id = $1 AND warehouse_id = $2`,
		key.ProductID, key.WarehouseID)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, fmt.Errorf("product %d warehouse %d: %w", key.ProductID, key.WarehouseID, ledger.ErrSnapshotNotFound)
	}
	if err != nil {
		return snap, fmt.Errorf("error getting inventory snapshot: %w", err)
	}
	return snap, nil
}

// UpsertSnapshot writes back a recomputed snapshot inside a throttled
// transaction. The conflict target is (product_id, warehouse_id), which
// makes the database the single writer per key even when sweeps overlap.
func (r *snapshotRepository) UpsertSnapshot(ctx context.Context, snap domain.InventorySnapshot) error {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
        INSERT INTO inventory_snapshots (
            product_id, warehouse_id, zone, current_stock,
            minimum_level, maximum_level, reorder_level,
            unit_cost, total_value, valuation_method, last_movement_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
        ON CONFLICT (product_id, warehouse_id)
        DO UPDATE SET
            current_stock = EXCLUDED.current_stock,
            unit_cost = EXCLUDED.unit_cost,
            total_value = EXCLUDED.total_value,
            valuation_method = EXCLUDED.valuation_method,
            last_movement_at = EXCLUDED.last_movement_at,
            updated_at = NOW()
    `,
			snap.ProductID, snap.WarehouseID, snap.Zone, snap.CurrentStock,
			snap.MinimumLevel, snap.MaximumLevel, snap.ReorderLevel,
			snap.UnitCost, snap.TotalValue, snap.Method, snap.LastMovementAt,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("error upserting inventory snapshot: %w", err)
	}
	return nil
}
