package analytics

import "time"

// Params holds the tunable constants of the analytics calculators. The
// defaults mirror common mill practice but carry no business authority;
// deployments override them through configuration.
type Params struct {
	// Reorder
	LeadTimeDays          int
	SafetyStockDays       int
	ConsumptionWindowDays int

	// ABC cumulative-percentage boundaries (inclusive upper bounds)
	ClassAThreshold float64
	ClassBThreshold float64

	// Forecast
	HistoryMonths      int
	SeasonalityFactors [12]float64

	// Efficiency
	IdealCycleRate    float64 // units per machine-hour when the machine has no capacity on record
	MinDowntimeGap    time.Duration
	ScheduledHoursCap float64 // hours per day a machine is considered scheduled

	// Waste
	WasteThresholdPct float64
	WasteReductionPct float64
}

// DefaultParams returns the stock configuration.
func DefaultParams() Params {
	return Params{
		LeadTimeDays:          7,
		SafetyStockDays:       3,
		ConsumptionWindowDays: 90,
		ClassAThreshold:       70.0,
		ClassBThreshold:       90.0,
		HistoryMonths:         12,
		SeasonalityFactors:    [12]float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		IdealCycleRate:        500,
		MinDowntimeGap:        10 * time.Minute,
		ScheduledHoursCap:     16,
		WasteThresholdPct:     5.0,
		WasteReductionPct:     80.0,
	}
}
