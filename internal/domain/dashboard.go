package domain

// UrgencySummary counts reorder recommendations per urgency tier.
type UrgencySummary struct {
	Urgency UrgencyLevel `json:"urgency"`
	Count   int          `json:"count"`
}

// ClassBreakdown summarizes one ABC tier.
type ClassBreakdown struct {
	Classification ABCClass `json:"classification"`
	Count          int      `json:"count"`
	ValueShare     float64  `json:"value_share"`
}

// MachineOEESummary is the dashboard line for one machine.
type MachineOEESummary struct {
	MachineID             int64   `json:"machine_id"`
	TotalBatches          int     `json:"total_batches"`
	OverallEfficiency     float64 `json:"overall_efficiency"`
	UtilizationPercentage float64 `json:"utilization_percentage"`
	OEE                   float64 `json:"oee"`
}

// AnalyticsDashboard aggregates the analytics results the presentation layer
// renders on one screen.
type AnalyticsDashboard struct {
	UrgencySummary []UrgencySummary    `json:"urgency_summary"`
	ReorderItems   []ReorderPoint      `json:"reorder_items"`
	ABCBreakdown   []ClassBreakdown    `json:"abc_breakdown"`
	TopWaste       []WasteReport       `json:"top_waste"`
	Machines       []MachineOEESummary `json:"machines"`
}

// DashboardFilter narrows the dashboard to a warehouse and date range.
type DashboardFilter struct {
	WarehouseID int64     `json:"warehouse_id"`
	Range       DateRange `json:"range"`
	TopN        int       `json:"top_n"`
}
