package analytics

import (
	"testing"
	"time"

	"github.com/ricemill/analytics/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMachine(capacity float64) domain.Machine {
	return domain.Machine{ID: 7, Code: "MILL-01", Name: "Husker line 1", CapacityPerHour: capacity, Active: true}
}

func completedBatch(start, end time.Time, input, output float64) domain.ProductionBatch {
	return domain.ProductionBatch{
		MachineID: 7,
		OrderID:   100,
		BatchDate: start,
		Status:    domain.BatchCompleted,
		StartedAt: &start,
		EndedAt:   &end,
		Inputs: []domain.BatchInput{
			{ProductID: 1, Quantity: input, UnitCost: decimal.RequireFromString("8")},
		},
		Outputs: []domain.BatchOutput{
			{ProductID: 2, Quantity: output, QualityScore: 95},
		},
	}
}

func rangeOver(days int) domain.DateRange {
	return domain.DateRange{From: day(1), To: day(1 + days)}
}

func TestEfficiencyAnalyze(t *testing.T) {
	ea := NewEfficiencyAnalyzer(DefaultParams())

	batches := []domain.ProductionBatch{
		completedBatch(day(1).Add(8*time.Hour), day(1).Add(12*time.Hour), 1000, 650),
		completedBatch(day(2).Add(8*time.Hour), day(2).Add(16*time.Hour), 2000, 1300),
	}

	report, err := ea.Analyze(testMachine(500), batches, rangeOver(3))
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalBatches)
	assert.Equal(t, 3000.0, report.TotalInputQuantity)
	assert.Equal(t, 1950.0, report.TotalOutputQuantity)
	assert.Equal(t, 65.0, report.OverallEfficiency)
	assert.Equal(t, 12.0, report.RunTimeHours)
	// 12 run hours over a 72-hour range
	assert.InDelta(t, 16.67, report.UtilizationPercentage, 0.01)

	assert.GreaterOrEqual(t, report.OEE.OEE, 0.0)
	assert.LessOrEqual(t, report.OEE.OEE, 100.0)
	// availability 12/48, performance 1950/(12*500), quality 1950/3000
	assert.InDelta(t, 0.25, report.OEE.Availability, 1e-4)
	assert.InDelta(t, 0.325, report.OEE.Performance, 1e-4)
	assert.InDelta(t, 0.65, report.OEE.Quality, 1e-4)
	assert.InDelta(t, 5.28, report.OEE.OEE, 0.01)
	assert.False(t, report.OEE.Capped)
}

func TestEfficiencyOEECappedAt100(t *testing.T) {
	params := DefaultParams()
	params.ScheduledHoursCap = 1 // scheduled time far below actual run time
	ea := NewEfficiencyAnalyzer(params)

	batches := []domain.ProductionBatch{
		completedBatch(day(1), day(1).Add(20*time.Hour), 1000, 10500),
	}

	report, err := ea.Analyze(testMachine(500), batches, rangeOver(1))
	require.NoError(t, err)

	assert.Equal(t, 100.0, report.OEE.OEE)
	assert.True(t, report.OEE.Capped)
	assert.Greater(t, report.OEE.RawOEE, 100.0)
}

func TestEfficiencyZeroWidthRange(t *testing.T) {
	ea := NewEfficiencyAnalyzer(DefaultParams())

	start := day(2).Add(6 * time.Hour)
	batches := []domain.ProductionBatch{
		completedBatch(start, start.Add(4*time.Hour), 1000, 650),
	}

	// From == To: zero available hours, but the range still spans one
	// scheduled day, so OEE stays finite.
	report, err := ea.Analyze(testMachine(500), batches, domain.DateRange{From: day(2), To: day(2)})
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalBatches)
	assert.Zero(t, report.UtilizationPercentage)
	assert.InDelta(t, 0.25, report.OEE.Availability, 1e-4)
	assert.InDelta(t, 0.325, report.OEE.Performance, 1e-4)
	assert.InDelta(t, 0.65, report.OEE.Quality, 1e-4)
	assert.InDelta(t, 5.28, report.OEE.OEE, 0.01)
}

func TestEfficiencyNoBatches(t *testing.T) {
	ea := NewEfficiencyAnalyzer(DefaultParams())

	report, err := ea.Analyze(testMachine(500), nil, rangeOver(1))
	require.NoError(t, err)

	assert.Zero(t, report.TotalBatches)
	assert.Zero(t, report.UtilizationPercentage)
	assert.Zero(t, report.OEE.OEE)
}

func TestEfficiencySkipsIncompleteBatches(t *testing.T) {
	ea := NewEfficiencyAnalyzer(DefaultParams())

	start := day(1).Add(8 * time.Hour)
	noEnd := domain.ProductionBatch{
		MachineID: 7,
		Status:    domain.BatchCompleted,
		BatchDate: day(1),
		StartedAt: &start,
		Inputs:    []domain.BatchInput{{ProductID: 1, Quantity: 100}},
	}
	planned := completedBatch(start, start.Add(2*time.Hour), 100, 60)
	planned.Status = domain.BatchPlanned

	report, err := ea.Analyze(testMachine(500), []domain.ProductionBatch{noEnd, planned}, rangeOver(1))
	require.NoError(t, err)

	assert.Zero(t, report.TotalBatches)
	assert.NotEmpty(t, report.Warnings)
}

func TestEfficiencyDowntimeThreshold(t *testing.T) {
	ea := NewEfficiencyAnalyzer(DefaultParams())

	base := day(1).Add(6 * time.Hour)
	batches := []domain.ProductionBatch{
		completedBatch(base, base.Add(2*time.Hour), 100, 60),
		// 5-minute gap: changeover, not downtime
		completedBatch(base.Add(2*time.Hour+5*time.Minute), base.Add(4*time.Hour), 100, 60),
		// 45-minute gap: downtime
		completedBatch(base.Add(4*time.Hour+45*time.Minute), base.Add(6*time.Hour), 100, 60),
	}

	report, err := ea.Analyze(testMachine(500), batches, rangeOver(1))
	require.NoError(t, err)

	require.Len(t, report.Downtimes, 1)
	assert.Equal(t, 45*time.Minute, report.Downtimes[0].Duration)
	assert.InDelta(t, 0.75, report.DowntimeHours, 1e-9)
}

func TestEfficiencyInvalidRange(t *testing.T) {
	ea := NewEfficiencyAnalyzer(DefaultParams())

	_, err := ea.Analyze(testMachine(500), nil, domain.DateRange{From: day(5), To: day(1)})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}
