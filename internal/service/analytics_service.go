package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ricemill/analytics/internal/analytics"
	"github.com/ricemill/analytics/internal/cache"
	"github.com/ricemill/analytics/internal/config"
	"github.com/ricemill/analytics/internal/domain"
	"github.com/ricemill/analytics/internal/ledger"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// AnalyticsService is the façade the HTTP and CLI surfaces call. It loads
// ledger slices per unit of work, hands them to the pure calculators and
// merges the results. It holds no state between calls.
type AnalyticsService struct {
	movements ledger.MovementReader
	batches   ledger.BatchReader
	snapshots ledger.SnapshotStore
	cache     cache.DashboardCache

	params     analytics.Params
	reorder    *analytics.ReorderCalculator
	abc        *analytics.ABCClassifier
	forecaster *analytics.Forecaster
	efficiency *analytics.EfficiencyAnalyzer
	waste      *analytics.WasteAnalyzer

	workers int
}

// ParamsFromConfig maps the deployment configuration onto calculator
// parameters, falling back to defaults for unset values.
func ParamsFromConfig(cfg config.AnalyticsConfig) analytics.Params {
	p := analytics.DefaultParams()
	if cfg.LeadTimeDays > 0 {
		p.LeadTimeDays = cfg.LeadTimeDays
	}
	if cfg.SafetyStockDays > 0 {
		p.SafetyStockDays = cfg.SafetyStockDays
	}
	if cfg.ConsumptionWindowDays > 0 {
		p.ConsumptionWindowDays = cfg.ConsumptionWindowDays
	}
	if cfg.HistoryMonths > 0 {
		p.HistoryMonths = cfg.HistoryMonths
	}
	for _, factor := range cfg.SeasonalityFactors {
		if factor > 0 {
			p.SeasonalityFactors = cfg.SeasonalityFactors
			break
		}
	}
	if cfg.IdealCycleRate > 0 {
		p.IdealCycleRate = cfg.IdealCycleRate
	}
	if gap := cfg.MinDowntimeGap(); gap > 0 {
		p.MinDowntimeGap = gap
	}
	if cfg.ScheduledHoursPerDay > 0 {
		p.ScheduledHoursCap = cfg.ScheduledHoursPerDay
	}
	if cfg.WasteThresholdPct > 0 {
		p.WasteThresholdPct = cfg.WasteThresholdPct
	}
	if cfg.WasteReductionPct > 0 {
		p.WasteReductionPct = cfg.WasteReductionPct
	}
	return p
}

// NewAnalyticsService wires the calculators to the ledger readers.
func NewAnalyticsService(
	movements ledger.MovementReader,
	batches ledger.BatchReader,
	snapshots ledger.SnapshotStore,
	cacheImpl cache.DashboardCache,
	params analytics.Params,
	workers int,
) *AnalyticsService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopDashboardCache()
	}
	if workers < 1 {
		workers = 4
	}
	return &AnalyticsService{
		movements:  movements,
		batches:    batches,
		snapshots:  snapshots,
		cache:      cacheImpl,
		params:     params,
		reorder:    analytics.NewReorderCalculator(params),
		abc:        analytics.NewABCClassifier(params),
		forecaster: analytics.NewForecaster(params),
		efficiency: analytics.NewEfficiencyAnalyzer(params),
		waste:      analytics.NewWasteAnalyzer(params),
		workers:    workers,
	}
}

// Snapshot returns the stored snapshot for one product+warehouse.
func (s *AnalyticsService) Snapshot(ctx context.Context, productID, warehouseID int64) (domain.InventorySnapshot, error) {
	return s.snapshots.GetSnapshot(ctx, domain.SnapshotKey{ProductID: productID, WarehouseID: warehouseID})
}

// ValueStock values a quantity of one product+warehouse under the chosen
// costing method.
func (s *AnalyticsService) ValueStock(
	ctx context.Context,
	productID, warehouseID int64,
	quantity float64,
	method domain.ValuationMethod,
) (domain.ValuationResult, error) {
	if !method.IsValid() {
		return domain.ValuationResult{}, fmt.Errorf("%w: %q", domain.ErrUnknownMethod, method)
	}

	snap, err := s.snapshots.GetSnapshot(ctx, domain.SnapshotKey{ProductID: productID, WarehouseID: warehouseID})
	if errors.Is(err, ledger.ErrSnapshotNotFound) {
		// No snapshot yet: value straight off the ledger.
		snap = domain.InventorySnapshot{ProductID: productID, WarehouseID: warehouseID}
	} else if err != nil {
		return domain.ValuationResult{}, fmt.Errorf("load snapshot: %w", err)
	}

	var movements []domain.StockMovement
	if method.UsesLayers() {
		movements, err = s.movements.ListMovements(ctx, domain.MovementFilter{
			ProductID:   productID,
			WarehouseID: warehouseID,
			Type:        domain.MovementIn,
			Order:       domain.SortAscending,
		})
		if err != nil {
			return domain.ValuationResult{}, fmt.Errorf("load movement history: %w", err)
		}
	}

	return analytics.Valuate(movements, snap, quantity, method)
}

// ReconcileSnapshots recomputes every snapshot in a warehouse (all
// warehouses when warehouseID is 0) from the movement ledger and writes the
// results back, one worker per (product, warehouse) key.
func (s *AnalyticsService) ReconcileSnapshots(ctx context.Context, warehouseID int64, method domain.ValuationMethod) (int, error) {
	if !method.IsValid() {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownMethod, method)
	}

	snaps, err := s.snapshots.ListSnapshots(ctx, warehouseID)
	if err != nil {
		return 0, fmt.Errorf("list snapshots: %w", err)
	}

	reconciled := 0
	var mu sync.Mutex

	err = s.forEachSnapshot(ctx, snaps, func(ctx context.Context, snap domain.InventorySnapshot) error {
		movements, err := s.movements.ListMovements(ctx, domain.MovementFilter{
			ProductID:   snap.ProductID,
			WarehouseID: snap.WarehouseID,
			Order:       domain.SortAscending,
		})
		if err != nil {
			return fmt.Errorf("load movements for product %d: %w", snap.ProductID, err)
		}

		next, err := analytics.SnapshotFromMovements(snap, movements, method)
		if err != nil {
			return err
		}
		if err := s.snapshots.UpsertSnapshot(ctx, next); err != nil {
			return err
		}

		mu.Lock()
		reconciled++
		mu.Unlock()
		return nil
	})

	return reconciled, err
}

// ReorderReport computes reorder recommendations for every snapshot in a
// warehouse, most urgent first.
func (s *AnalyticsService) ReorderReport(ctx context.Context, warehouseID int64) ([]domain.ReorderPoint, error) {
	snaps, err := s.snapshots.ListSnapshots(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	points := make([]domain.ReorderPoint, 0, len(snaps))
	var mu sync.Mutex

	window := domain.TrailingDays(s.params.ConsumptionWindowDays)
	err = s.forEachSnapshot(ctx, snaps, func(ctx context.Context, snap domain.InventorySnapshot) error {
		outs, err := s.movements.ListMovements(ctx, domain.MovementFilter{
			ProductID:   snap.ProductID,
			WarehouseID: snap.WarehouseID,
			Type:        domain.MovementOut,
			Range:       window,
			Order:       domain.SortAscending,
		})
		if err != nil {
			return fmt.Errorf("load consumption for product %d: %w", snap.ProductID, err)
		}

		point := s.reorder.Calculate(snap, outs)
		mu.Lock()
		points = append(points, point)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	analytics.SortByUrgency(points)
	return points, nil
}

// ClassifyProducts runs the ABC classification over the consumption in a
// date range, optionally limited to one warehouse.
func (s *AnalyticsService) ClassifyProducts(ctx context.Context, warehouseID int64, rng domain.DateRange) ([]domain.ABCEntry, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	outs, err := s.movements.ListMovements(ctx, domain.MovementFilter{
		WarehouseID: warehouseID,
		Type:        domain.MovementOut,
		Range:       rng,
		Order:       domain.SortAscending,
	})
	if err != nil {
		return nil, fmt.Errorf("load consumption: %w", err)
	}

	return s.abc.Classify(outs), nil
}

// ForecastDemand projects monthly demand for one product.
func (s *AnalyticsService) ForecastDemand(ctx context.Context, productID, warehouseID int64, horizonMonths int) ([]domain.DemandForecastPoint, error) {
	outs, err := s.movements.ListMovements(ctx, domain.MovementFilter{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Type:        domain.MovementOut,
		Range:       domain.TrailingMonths(s.params.HistoryMonths),
		Order:       domain.SortAscending,
	})
	if err != nil {
		return nil, fmt.Errorf("load demand history: %w", err)
	}

	return s.forecaster.Forecast(productID, outs, horizonMonths, time.Now())
}

// MachineEfficiency builds the efficiency report for one machine.
func (s *AnalyticsService) MachineEfficiency(ctx context.Context, machineID int64, rng domain.DateRange) (domain.EfficiencyReport, error) {
	if err := rng.Validate(); err != nil {
		return domain.EfficiencyReport{}, err
	}

	machine, err := s.batches.GetMachine(ctx, machineID)
	if err != nil {
		return domain.EfficiencyReport{}, err
	}

	batches, err := s.batches.ListBatches(ctx, domain.BatchFilter{
		MachineID: machineID,
		Statuses:  []domain.BatchStatus{domain.BatchCompleted, domain.BatchVerified},
		Range:     rng,
	})
	if err != nil {
		return domain.EfficiencyReport{}, fmt.Errorf("load batches for machine %d: %w", machineID, err)
	}

	return s.efficiency.Analyze(machine, batches, rng)
}

// EfficiencySweep analyzes every active machine concurrently and returns
// the reports in machine order.
func (s *AnalyticsService) EfficiencySweep(ctx context.Context, rng domain.DateRange) ([]domain.EfficiencyReport, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	machines, err := s.batches.ListMachines(ctx)
	if err != nil {
		return nil, fmt.Errorf("list machines: %w", err)
	}

	reports := make([]domain.EfficiencyReport, len(machines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, machine := range machines {
		g.Go(func() error {
			report, err := s.MachineEfficiency(gctx, machine.ID, rng)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// WasteByProduct aggregates production waste per output product.
func (s *AnalyticsService) WasteByProduct(ctx context.Context, rng domain.DateRange) ([]domain.WasteReport, error) {
	batches, err := s.loadFinishedBatches(ctx, rng)
	if err != nil {
		return nil, err
	}
	return s.waste.ByProduct(batches, rng)
}

// WasteByProcess aggregates production waste per production order.
func (s *AnalyticsService) WasteByProcess(ctx context.Context, rng domain.DateRange) ([]domain.WasteReport, error) {
	batches, err := s.loadFinishedBatches(ctx, rng)
	if err != nil {
		return nil, err
	}
	return s.waste.ByProcess(batches, rng)
}

func (s *AnalyticsService) loadFinishedBatches(ctx context.Context, rng domain.DateRange) ([]domain.ProductionBatch, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	batches, err := s.batches.ListBatches(ctx, domain.BatchFilter{
		Statuses: []domain.BatchStatus{domain.BatchCompleted, domain.BatchVerified},
		Range:    rng,
	})
	if err != nil {
		return nil, fmt.Errorf("load finished batches: %w", err)
	}
	return batches, nil
}

// GetDashboard assembles the analytics dashboard, serving from cache when
// possible.
func (s *AnalyticsService) GetDashboard(ctx context.Context, filter domain.DashboardFilter) (*domain.AnalyticsDashboard, error) {
	if err := filter.Range.Validate(); err != nil {
		return nil, err
	}
	if filter.TopN <= 0 {
		filter.TopN = 10
	}

	if dashboard, ok, err := s.cache.Get(ctx, filter); err == nil && ok {
		return dashboard, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("dashboard: cache get failed")
	}

	reorderPoints, err := s.ReorderReport(ctx, filter.WarehouseID)
	if err != nil {
		return nil, err
	}

	abcEntries, err := s.ClassifyProducts(ctx, filter.WarehouseID, filter.Range)
	if err != nil {
		return nil, err
	}

	wasteReports, err := s.WasteByProduct(ctx, filter.Range)
	if err != nil {
		return nil, err
	}

	efficiencyReports, err := s.EfficiencySweep(ctx, filter.Range)
	if err != nil {
		return nil, err
	}

	dashboard := assembleDashboard(filter, reorderPoints, abcEntries, wasteReports, efficiencyReports)

	if err := s.cache.Set(ctx, filter, dashboard); err != nil {
		log.Warn().Err(err).Msg("dashboard: cache set failed")
	}

	return dashboard, nil
}

// forEachSnapshot fans the snapshots out over a bounded worker pool. The
// context is checked between units of work so a sweep cancels cooperatively,
// never mid-formula.
func (s *AnalyticsService) forEachSnapshot(
	ctx context.Context,
	snaps []domain.InventorySnapshot,
	fn func(ctx context.Context, snap domain.InventorySnapshot) error,
) error {
	if len(snaps) == 0 {
		return nil
	}

	jobChan := make(chan domain.InventorySnapshot, len(snaps))
	errChan := make(chan error, s.workers)
	var wg sync.WaitGroup

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for snap := range jobChan {
				if ctx.Err() != nil {
					return
				}
				if err := fn(ctx, snap); err != nil {
					log.Warn().Err(err).
						Int("worker", workerID).
						Int64("product_id", snap.ProductID).
						Int64("warehouse_id", snap.WarehouseID).
						Msg("snapshot unit of work failed")
					select {
					case errChan <- err:
					default:
					}
				}
			}
		}(i)
	}

	for _, snap := range snaps {
		select {
		case <-ctx.Done():
			close(jobChan)
			wg.Wait()
			return ctx.Err()
		case jobChan <- snap:
		}
	}
	close(jobChan)

	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return err
	}
	return nil
}
