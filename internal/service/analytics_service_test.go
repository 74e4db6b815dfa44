package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ricemill/analytics/internal/analytics"
	"github.com/ricemill/analytics/internal/config"
	"github.com/ricemill/analytics/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLedger backs the service with in-memory slices, applying the same
// filter semantics the SQL repositories do.
type fakeLedger struct {
	mu        sync.Mutex
	movements []domain.StockMovement
	batches   []domain.ProductionBatch
	machines  []domain.Machine
	snapshots map[domain.SnapshotKey]domain.InventorySnapshot
	upserts   int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{snapshots: make(map[domain.SnapshotKey]domain.InventorySnapshot)}
}

func (f *fakeLedger) ListMovements(_ context.Context, filter domain.MovementFilter) ([]domain.StockMovement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.StockMovement
	for _, m := range f.movements {
		if filter.ProductID != 0 && m.ProductID != filter.ProductID {
			continue
		}
		if filter.WarehouseID != 0 && m.WarehouseID != filter.WarehouseID {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		if !filter.Range.From.IsZero() && !filter.Range.Contains(m.MovementAt) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if filter.Order == domain.SortDescending {
			return out[i].MovementAt.After(out[j].MovementAt)
		}
		return out[i].MovementAt.Before(out[j].MovementAt)
	})
	return out, nil
}

func (f *fakeLedger) ListBatches(_ context.Context, filter domain.BatchFilter) ([]domain.ProductionBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.ProductionBatch
	for _, b := range f.batches {
		if filter.MachineID != 0 && b.MachineID != filter.MachineID {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, s := range filter.Statuses {
				if b.Status == s {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		if !filter.Range.From.IsZero() && !filter.Range.Contains(b.BatchDate) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeLedger) ListMachines(_ context.Context) ([]domain.Machine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Machine(nil), f.machines...), nil
}

func (f *fakeLedger) GetMachine(_ context.Context, id int64) (domain.Machine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.machines {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.Machine{ID: id}, nil
}

func (f *fakeLedger) ListSnapshots(_ context.Context, warehouseID int64) ([]domain.InventorySnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.InventorySnapshot
	for _, s := range f.snapshots {
		if warehouseID != 0 && s.WarehouseID != warehouseID {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (f *fakeLedger) GetSnapshot(_ context.Context, key domain.SnapshotKey) (domain.InventorySnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.snapshots[key]; ok {
		return s, nil
	}
	return domain.InventorySnapshot{ProductID: key.ProductID, WarehouseID: key.WarehouseID}, nil
}

func (f *fakeLedger) UpsertSnapshot(_ context.Context, snap domain.InventorySnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[domain.SnapshotKey{ProductID: snap.ProductID, WarehouseID: snap.WarehouseID}] = snap
	f.upserts++
	return nil
}

func newTestService(ledger *fakeLedger) *AnalyticsService {
	return NewAnalyticsService(ledger, ledger, ledger, nil, analytics.DefaultParams(), 2)
}

func addSnapshot(f *fakeLedger, productID, warehouseID int64, stock float64) {
	key := domain.SnapshotKey{ProductID: productID, WarehouseID: warehouseID}
	f.snapshots[key] = domain.InventorySnapshot{
		ProductID:    productID,
		WarehouseID:  warehouseID,
		CurrentStock: stock,
		Method:       domain.ValuationFIFO,
	}
}

func addMovement(f *fakeLedger, productID int64, t domain.MovementType, qty, cost float64, at time.Time) {
	f.movements = append(f.movements, domain.StockMovement{
		ID:          int64(len(f.movements) + 1),
		ProductID:   productID,
		WarehouseID: 1,
		Type:        t,
		Quantity:    qty,
		UnitCost:    decimal.NewFromFloat(cost),
		MovementAt:  at,
	})
}

func TestValueStockFIFO(t *testing.T) {
	ledger := newFakeLedger()
	addSnapshot(ledger, 7, 1, 120)
	now := time.Now()
	addMovement(ledger, 7, domain.MovementIn, 100, 10, now.AddDate(0, 0, -10))
	addMovement(ledger, 7, domain.MovementIn, 50, 12, now.AddDate(0, 0, -5))

	svc := newTestService(ledger)
	result, err := svc.ValueStock(context.Background(), 7, 1, 120, domain.ValuationFIFO)
	require.NoError(t, err)

	assert.True(t, result.ValuationAmount.Equal(decimal.NewFromInt(1240)),
		"got %s", result.ValuationAmount)
	assert.False(t, result.ShortLots)
}

func TestValueStockRejectsUnknownMethod(t *testing.T) {
	svc := newTestService(newFakeLedger())
	_, err := svc.ValueStock(context.Background(), 7, 1, 10, "highest_in_first_out")
	assert.ErrorIs(t, err, domain.ErrUnknownMethod)
}

func TestReorderReportSortsByUrgency(t *testing.T) {
	ledger := newFakeLedger()
	addSnapshot(ledger, 1, 1, 100) // slow mover
	addSnapshot(ledger, 2, 1, 4)   // about to run out
	now := time.Now()
	for day := 1; day <= 30; day++ {
		addMovement(ledger, 1, domain.MovementOut, 1, 10, now.AddDate(0, 0, -day))
		addMovement(ledger, 2, domain.MovementOut, 6, 10, now.AddDate(0, 0, -day))
	}

	svc := newTestService(ledger)
	points, err := svc.ReorderReport(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, int64(2), points[0].ProductID)
	assert.Equal(t, domain.UrgencyHigh, points[0].UrgencyLevel)
	assert.True(t, points[0].DaysUntilStockout <= points[1].DaysUntilStockout)
}

func TestReconcileSnapshotsWritesBack(t *testing.T) {
	ledger := newFakeLedger()
	addSnapshot(ledger, 1, 1, 0)
	addSnapshot(ledger, 2, 1, 0)
	now := time.Now()
	addMovement(ledger, 1, domain.MovementIn, 100, 10, now.AddDate(0, 0, -3))
	addMovement(ledger, 1, domain.MovementOut, 40, 10, now.AddDate(0, 0, -1))
	addMovement(ledger, 2, domain.MovementIn, 25, 8, now.AddDate(0, 0, -2))

	svc := newTestService(ledger)
	n, err := svc.ReconcileSnapshots(context.Background(), 1, domain.ValuationFIFO)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	snap, err := ledger.GetSnapshot(context.Background(), domain.SnapshotKey{ProductID: 1, WarehouseID: 1})
	require.NoError(t, err)
	assert.Equal(t, 60.0, snap.CurrentStock)
}

func TestReconcileSnapshotsHonorsCancellation(t *testing.T) {
	ledger := newFakeLedger()
	for i := int64(1); i <= 50; i++ {
		addSnapshot(ledger, i, 1, 10)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newTestService(ledger)
	_, err := svc.ReconcileSnapshots(ctx, 1, domain.ValuationFIFO)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassifyProductsValidatesRange(t *testing.T) {
	svc := newTestService(newFakeLedger())
	rng := domain.DateRange{From: time.Now(), To: time.Now().AddDate(0, 0, -1)}
	_, err := svc.ClassifyProducts(context.Background(), 1, rng)
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestGetDashboardAssemblesSections(t *testing.T) {
	ledger := newFakeLedger()
	addSnapshot(ledger, 1, 1, 2)
	now := time.Now()
	for day := 1; day <= 30; day++ {
		addMovement(ledger, 1, domain.MovementOut, 5, 12, now.AddDate(0, 0, -day))
	}
	ledger.machines = []domain.Machine{{ID: 1, Code: "MILL-01", CapacityPerHour: 500, Active: true}}

	started := now.Add(-8 * time.Hour)
	ended := now.Add(-4 * time.Hour)
	ledger.batches = []domain.ProductionBatch{{
		ID:        1,
		OrderID:   11,
		MachineID: 1,
		BatchDate: now.AddDate(0, 0, -1),
		Status:    domain.BatchCompleted,
		StartedAt: &started,
		EndedAt:   &ended,
		Inputs:    []domain.BatchInput{{ProductID: 1, Quantity: 1000, UnitCost: decimal.NewFromInt(10)}},
		Outputs:   []domain.BatchOutput{{ProductID: 2, Quantity: 650, QualityScore: 95}},
	}}

	svc := newTestService(ledger)
	dashboard, err := svc.GetDashboard(context.Background(), domain.DashboardFilter{
		WarehouseID: 1,
		Range:       domain.DateRange{From: now.AddDate(0, 0, -31), To: now},
		TopN:        5,
	})
	require.NoError(t, err)

	require.Len(t, dashboard.UrgencySummary, 4)
	assert.Equal(t, domain.UrgencyHigh, dashboard.UrgencySummary[1].Urgency)
	assert.Equal(t, 1, dashboard.UrgencySummary[1].Count)

	require.Len(t, dashboard.ReorderItems, 1)
	assert.True(t, dashboard.ReorderItems[0].RequiresReorder)

	// A single product carries all consumption value; its cumulative share
	// is 100%, which lands past the A and B boundaries.
	require.Len(t, dashboard.ABCBreakdown, 3)
	assert.Equal(t, domain.ClassA, dashboard.ABCBreakdown[0].Classification)
	assert.Equal(t, 0, dashboard.ABCBreakdown[0].Count)
	assert.Equal(t, domain.ClassC, dashboard.ABCBreakdown[2].Classification)
	assert.Equal(t, 1, dashboard.ABCBreakdown[2].Count)
	assert.InDelta(t, 100.0, dashboard.ABCBreakdown[2].ValueShare, 1e-9)

	require.Len(t, dashboard.TopWaste, 1)
	assert.InDelta(t, 35.0, dashboard.TopWaste[0].WastePercentage, 0.01)

	require.Len(t, dashboard.Machines, 1)
	assert.Equal(t, int64(1), dashboard.Machines[0].MachineID)
	assert.InDelta(t, 65.0, dashboard.Machines[0].OverallEfficiency, 0.01)
}

func TestParamsFromConfigFallsBackToDefaults(t *testing.T) {
	p := ParamsFromConfig(config.AnalyticsConfig{})
	defaults := analytics.DefaultParams()

	assert.Equal(t, defaults.LeadTimeDays, p.LeadTimeDays)
	assert.Equal(t, defaults.SeasonalityFactors, p.SeasonalityFactors)
	assert.Equal(t, defaults.IdealCycleRate, p.IdealCycleRate)
}

func TestParamsFromConfigOverrides(t *testing.T) {
	cfg := config.AnalyticsConfig{
		LeadTimeDays:          14,
		SafetyStockDays:       5,
		ConsumptionWindowDays: 60,
		WasteThresholdPct:     7.5,
	}
	cfg.SeasonalityFactors[0] = 1.5

	p := ParamsFromConfig(cfg)
	assert.Equal(t, 14, p.LeadTimeDays)
	assert.Equal(t, 5, p.SafetyStockDays)
	assert.Equal(t, 60, p.ConsumptionWindowDays)
	assert.Equal(t, 7.5, p.WasteThresholdPct)
	assert.Equal(t, 1.5, p.SeasonalityFactors[0])
}
