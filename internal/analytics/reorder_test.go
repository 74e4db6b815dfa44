package analytics

import (
	"testing"

	"github.com/ricemill/analytics/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestReorderCalculate(t *testing.T) {
	rc := NewReorderCalculator(DefaultParams())

	// 180 units over the 90-day window => 2/day
	movements := []domain.StockMovement{
		outMovement(90, "10", day(10)),
		outMovement(90, "10", day(20)),
	}
	snap := testSnapshot(10)

	rp := rc.Calculate(snap, movements)

	assert.Equal(t, 2.0, rp.AvgDailyUsage)
	assert.Equal(t, 6.0, rp.SafetyStock)      // 2 * 3
	assert.Equal(t, 20.0, rp.ReorderPoint)    // 2*7 + 6
	assert.True(t, rp.RequiresReorder)        // 10 <= 20
	assert.Equal(t, 5, rp.DaysUntilStockout)  // floor(10 / 2)
	assert.Equal(t, domain.UrgencyMedium, rp.UrgencyLevel)
}

func TestReorderNoConsumption(t *testing.T) {
	rc := NewReorderCalculator(DefaultParams())

	rp := rc.Calculate(testSnapshot(50), nil)

	assert.Equal(t, 0.0, rp.AvgDailyUsage)
	assert.Equal(t, domain.StockoutSentinel, rp.DaysUntilStockout)
	assert.Equal(t, domain.UrgencyLow, rp.UrgencyLevel)
	assert.False(t, rp.RequiresReorder)
}

func TestReorderZeroStockIsCritical(t *testing.T) {
	rc := NewReorderCalculator(DefaultParams())

	rp := rc.Calculate(testSnapshot(0), nil)
	assert.Equal(t, domain.UrgencyCritical, rp.UrgencyLevel)
	assert.Equal(t, domain.StockoutSentinel, rp.DaysUntilStockout)
}

func TestReorderUrgencyTiers(t *testing.T) {
	rc := NewReorderCalculator(DefaultParams())
	// 90 units/window => 1/day
	movements := []domain.StockMovement{outMovement(90, "10", day(1))}

	tests := []struct {
		name    string
		stock   float64
		urgency domain.UrgencyLevel
		days    int
	}{
		{"critical at zero stock", 0, domain.UrgencyCritical, 0},
		{"high within three days", 3, domain.UrgencyHigh, 3},
		{"medium within seven days", 7, domain.UrgencyMedium, 7},
		{"low beyond seven days", 30, domain.UrgencyLow, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rp := rc.Calculate(testSnapshot(tt.stock), movements)
			assert.Equal(t, tt.urgency, rp.UrgencyLevel)
			assert.Equal(t, tt.days, rp.DaysUntilStockout)
		})
	}
}

func TestReorderPointMonotonicInConsumption(t *testing.T) {
	rc := NewReorderCalculator(DefaultParams())
	snap := testSnapshot(100)

	prev := -1.0
	for _, total := range []float64{0, 90, 180, 450, 900} {
		rp := rc.Calculate(snap, []domain.StockMovement{outMovement(total, "10", day(1))})
		assert.GreaterOrEqual(t, rp.ReorderPoint, prev,
			"reorder point must not decrease as consumption grows")
		prev = rp.ReorderPoint
	}
}

func TestSortByUrgency(t *testing.T) {
	points := []domain.ReorderPoint{
		{ProductID: 3, DaysUntilStockout: domain.StockoutSentinel},
		{ProductID: 1, DaysUntilStockout: 2},
		{ProductID: 2, DaysUntilStockout: 0},
		{ProductID: 4, DaysUntilStockout: 2},
	}

	SortByUrgency(points)

	assert.Equal(t, int64(2), points[0].ProductID)
	assert.Equal(t, int64(1), points[1].ProductID)
	assert.Equal(t, int64(4), points[2].ProductID)
	assert.Equal(t, int64(3), points[3].ProductID)
}
