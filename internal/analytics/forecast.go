package analytics

import (
	"fmt"
	"time"

	"github.com/ricemill/analytics/internal/domain"
)

// zConfidence95 is the normal z-score for a 95% confidence interval.
const zConfidence95 = 1.96

// Forecaster projects monthly demand with a seasonally adjusted moving
// average. The seasonality table is configuration, not a business constant.
type Forecaster struct {
	historyMonths int
	seasonality   [12]float64
}

// NewForecaster builds a forecaster from the configured parameters. Zero or
// negative seasonality factors are treated as neutral.
func NewForecaster(p Params) *Forecaster {
	months := p.HistoryMonths
	if months <= 0 {
		months = 12
	}
	factors := p.SeasonalityFactors
	for i, f := range factors {
		if f <= 0 {
			factors[i] = 1
		}
	}
	return &Forecaster{historyMonths: months, seasonality: factors}
}

// Forecast projects horizonMonths of demand for one product from its
// trailing OUT history. now anchors the first forecast month. Fewer than two
// months of history degrade to the insufficient-data state, with zero demand
// and a zero-width interval, rather than a silently wrong number.
func (f *Forecaster) Forecast(
	productID int64,
	outMovements []domain.StockMovement,
	horizonMonths int,
	now time.Time,
) ([]domain.DemandForecastPoint, error) {
	if horizonMonths <= 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidHorizon, horizonMonths)
	}

	monthly := monthlyDemand(outMovements)

	points := make([]domain.DemandForecastPoint, 0, horizonMonths)
	firstMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)

	if len(monthly) < 2 {
		for i := 0; i < horizonMonths; i++ {
			points = append(points, domain.DemandForecastPoint{
				ProductID:     productID,
				ForecastMonth: firstMonth.AddDate(0, i, 0),
				Method:        domain.ForecastInsufficientData,
			})
		}
		return points, nil
	}

	avg := mean(monthly)
	stddev := sampleStdDev(monthly)

	for i := 0; i < horizonMonths; i++ {
		month := firstMonth.AddDate(0, i, 0)
		factor := f.seasonality[int(month.Month())-1]
		demand := avg * factor

		lower := demand - zConfidence95*stddev
		if lower < 0 {
			lower = 0
		}

		points = append(points, domain.DemandForecastPoint{
			ProductID:        productID,
			ForecastMonth:    month,
			ForecastedDemand: roundFloat(demand, 2),
			ConfidenceLower:  roundFloat(lower, 2),
			ConfidenceUpper:  roundFloat(demand+zConfidence95*stddev, 2),
			Method:           domain.ForecastSeasonalMovingAverage,
		})
	}

	return points, nil
}

// monthlyDemand buckets OUT quantities by calendar month and returns the
// bucket totals. Months without any movement contribute nothing: the moving
// average is over observed months.
func monthlyDemand(movements []domain.StockMovement) []float64 {
	type monthKey struct {
		year  int
		month time.Month
	}
	buckets := make(map[monthKey]float64)
	var keys []monthKey
	for _, m := range movements {
		if m.Type != domain.MovementOut || m.Quantity <= 0 {
			continue
		}
		k := monthKey{year: m.MovementAt.Year(), month: m.MovementAt.Month()}
		if _, seen := buckets[k]; !seen {
			keys = append(keys, k)
		}
		buckets[k] += m.Quantity
	}

	values := make([]float64, 0, len(keys))
	for _, k := range keys {
		values = append(values, buckets[k])
	}
	return values
}
