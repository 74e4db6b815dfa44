// Package ledger defines the read contracts between the analytics core and
// the persistence layer. The analytics components never aggregate in SQL;
// they receive plain in-memory sequences from these readers and do all
// grouping and statistics themselves.
package ledger

import (
	"context"
	"errors"

	"github.com/ricemill/analytics/internal/domain"
)

// ErrSnapshotNotFound is returned by GetSnapshot when no row exists yet for
// the key; callers may treat it as an empty snapshot.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// MovementReader provides read-only access to the append-only stock ledger.
type MovementReader interface {
	// ListMovements returns the movements matching the filter in the
	// caller-specified date order.
	ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.StockMovement, error)
}

// BatchReader provides read-only access to production batch history, with
// Inputs and Outputs populated on every returned batch.
type BatchReader interface {
	ListBatches(ctx context.Context, filter domain.BatchFilter) ([]domain.ProductionBatch, error)
	ListMachines(ctx context.Context) ([]domain.Machine, error)
	GetMachine(ctx context.Context, id int64) (domain.Machine, error)
}

// SnapshotStore reads derived inventory snapshots and accepts the valuation
// engine's write-back. Upserts are keyed on (product, warehouse) so there is
// a single writer per key.
type SnapshotStore interface {
	ListSnapshots(ctx context.Context, warehouseID int64) ([]domain.InventorySnapshot, error)
	GetSnapshot(ctx context.Context, key domain.SnapshotKey) (domain.InventorySnapshot, error)
	UpsertSnapshot(ctx context.Context, snap domain.InventorySnapshot) error
}
