package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/ricemill/analytics/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := Wrap(sqlx.NewDb(raw, "sqlmock"))
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testSnapshot() domain.InventorySnapshot {
	moved := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return domain.InventorySnapshot{
		ProductID:      1,
		WarehouseID:    2,
		Zone:           "dry",
		CurrentStock:   120,
		MinimumLevel:   20,
		MaximumLevel:   500,
		ReorderLevel:   50,
		UnitCost:       decimal.NewFromFloat(10.5),
		TotalValue:     decimal.NewFromInt(1260),
		Method:         domain.ValuationFIFO,
		LastMovementAt: &moved,
	}
}

func TestUpsertSnapshotRunsInTransaction(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO inventory_snapshots").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := NewSnapshotRepository(db)
	err := repo.UpsertSnapshot(context.Background(), testSnapshot())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSnapshotRollsBackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO inventory_snapshots").
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	repo := NewSnapshotRepository(db)
	err := repo.UpsertSnapshot(context.Background(), testSnapshot())
	require.Error(t, err)
	require.Contains(t, err.Error(), "deadlock detected")
	require.NoError(t, mock.ExpectationsWereMet())
}
