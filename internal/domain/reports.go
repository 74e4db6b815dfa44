package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Results below are ephemeral value objects: produced fresh per query, never
// persisted, serializable as-is for the presentation layer. Data-quality
// conditions surface as Warnings / flags on the result, not as errors.

// ValuationResult is the outcome of valuing a quantity of one product in one
// warehouse under a costing method.
type ValuationResult struct {
	ProductID       int64           `json:"product_id"`
	WarehouseID     int64           `json:"warehouse_id"`
	Quantity        float64         `json:"quantity"`
	Method          ValuationMethod `json:"method"`
	ValuationAmount decimal.Decimal `json:"valuation_amount"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	// ShortLots marks a ledger inconsistency: the requested quantity exceeded
	// the recorded IN lots, so only the available lots were valued.
	ShortLots bool     `json:"short_lots,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// UrgencyLevel tiers reorder recommendations by how soon stock runs out.
type UrgencyLevel string

const (
	UrgencyCritical UrgencyLevel = "critical"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyLow      UrgencyLevel = "low"
)

// StockoutSentinel stands in for "no finite stockout horizon" when there is
// no consumption history.
const StockoutSentinel = 999

// ReorderPoint is the reorder recommendation for one product+warehouse.
type ReorderPoint struct {
	ProductID         int64        `json:"product_id"`
	WarehouseID       int64        `json:"warehouse_id"`
	CurrentStock      float64      `json:"current_stock"`
	AvgDailyUsage     float64      `json:"avg_daily_usage"`
	ReorderPoint      float64      `json:"reorder_point"`
	SafetyStock       float64      `json:"safety_stock"`
	RequiresReorder   bool         `json:"requires_reorder"`
	DaysUntilStockout int          `json:"days_until_stockout"`
	UrgencyLevel      UrgencyLevel `json:"urgency_level"`
}

// ABCClass is the Pareto tier assigned by the ABC classifier.
type ABCClass string

const (
	ClassA ABCClass = "A"
	ClassB ABCClass = "B"
	ClassC ABCClass = "C"
)

// ABCEntry ranks one product by its share of total consumption value.
type ABCEntry struct {
	ProductID            int64           `json:"product_id"`
	ConsumptionValue     decimal.Decimal `json:"consumption_value"`
	ValuePercentage      float64         `json:"value_percentage"`
	CumulativePercentage float64         `json:"cumulative_percentage"`
	Classification       ABCClass        `json:"classification"`
}

// ForecastMethod names the algorithm that produced a forecast point.
type ForecastMethod string

const (
	ForecastSeasonalMovingAverage ForecastMethod = "seasonal_moving_average"
	ForecastInsufficientData      ForecastMethod = "insufficient_data"
)

// DemandForecastPoint is one projected month of demand with 95% bounds.
type DemandForecastPoint struct {
	ProductID        int64          `json:"product_id"`
	ForecastMonth    time.Time      `json:"forecast_month"`
	ForecastedDemand float64        `json:"forecasted_demand"`
	ConfidenceLower  float64        `json:"confidence_lower"`
	ConfidenceUpper  float64        `json:"confidence_upper"`
	Method           ForecastMethod `json:"method"`
}

// DowntimePeriod is a gap between consecutive batches on one machine that
// exceeded the changeover threshold.
type DowntimePeriod struct {
	MachineID int64         `json:"machine_id"`
	From      time.Time     `json:"from"`
	To        time.Time     `json:"to"`
	Duration  time.Duration `json:"duration"`
}

// OEEScore carries the three OEE factors as ratios in [0,1] and the final
// score as a percentage capped at 100. RawOEE preserves the pre-cap value
// so measurement noise above 100 stays observable.
type OEEScore struct {
	Availability float64 `json:"availability"`
	Performance  float64 `json:"performance"`
	Quality      float64 `json:"quality"`
	OEE          float64 `json:"oee"`
	RawOEE       float64 `json:"raw_oee"`
	Capped       bool    `json:"capped,omitempty"`
}

// EfficiencyReport summarizes one machine over a date range.
type EfficiencyReport struct {
	MachineID             int64            `json:"machine_id"`
	Range                 DateRange        `json:"range"`
	TotalBatches          int              `json:"total_batches"`
	TotalInputQuantity    float64          `json:"total_input_quantity"`
	TotalOutputQuantity   float64          `json:"total_output_quantity"`
	OverallEfficiency     float64          `json:"overall_efficiency"`
	UtilizationPercentage float64          `json:"utilization_percentage"`
	RunTimeHours          float64          `json:"run_time_hours"`
	DowntimeHours         float64          `json:"downtime_hours"`
	Downtimes             []DowntimePeriod `json:"downtimes,omitempty"`
	OEE                   OEEScore         `json:"oee"`
	Warnings              []string         `json:"warnings,omitempty"`
}

// WasteReport aggregates waste for one product or one process (production
// order) over a date range. Exactly one of ProductID/ProcessID is set.
type WasteReport struct {
	ProductID       int64           `json:"product_id,omitempty"`
	ProcessID       int64           `json:"process_id,omitempty"`
	Range           DateRange       `json:"range"`
	InputQuantity   float64         `json:"input_quantity"`
	OutputQuantity  float64         `json:"output_quantity"`
	WasteQuantity   float64         `json:"waste_quantity"`
	WastePercentage float64         `json:"waste_percentage"`
	WasteCost       decimal.Decimal `json:"waste_cost"`
	// TargetQuantity proposes the post-reduction waste level; zero when the
	// waste percentage is under the reduction threshold.
	TargetQuantity float64  `json:"target_quantity,omitempty"`
	HasTarget      bool     `json:"has_target,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}
