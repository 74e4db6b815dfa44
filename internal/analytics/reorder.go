package analytics

import (
	"math"
	"sort"

	"github.com/ricemill/analytics/internal/domain"
)

// ReorderCalculator derives reorder points and stockout risk from the
// consumption history of a snapshot. It is a pure function of its inputs;
// no state survives between calls.
type ReorderCalculator struct {
	leadTimeDays int
	safetyDays   int
	windowDays   int
}

// NewReorderCalculator builds a calculator from the configured parameters.
func NewReorderCalculator(p Params) *ReorderCalculator {
	lead := p.LeadTimeDays
	if lead <= 0 {
		lead = 7
	}
	safety := p.SafetyStockDays
	if safety <= 0 {
		safety = 3
	}
	window := p.ConsumptionWindowDays
	if window <= 0 {
		window = 90
	}
	return &ReorderCalculator{leadTimeDays: lead, safetyDays: safety, windowDays: window}
}

// Calculate computes the reorder recommendation for one product+warehouse.
// outMovements is the OUT history over the trailing consumption window.
func (rc *ReorderCalculator) Calculate(snap domain.InventorySnapshot, outMovements []domain.StockMovement) domain.ReorderPoint {
	var consumed float64
	for _, m := range outMovements {
		if m.Type != domain.MovementOut {
			continue
		}
		consumed += m.Quantity
	}

	avgDaily := consumed / float64(rc.windowDays)
	safetyStock := avgDaily * float64(rc.safetyDays)
	reorderPoint := avgDaily*float64(rc.leadTimeDays) + safetyStock

	rp := domain.ReorderPoint{
		ProductID:     snap.ProductID,
		WarehouseID:   snap.WarehouseID,
		CurrentStock:  snap.CurrentStock,
		AvgDailyUsage: roundFloat(avgDaily, 4),
		ReorderPoint:  roundFloat(reorderPoint, 2),
		SafetyStock:   roundFloat(safetyStock, 2),
	}
	rp.RequiresReorder = snap.CurrentStock <= reorderPoint
	rp.DaysUntilStockout = daysUntilStockout(snap.CurrentStock, avgDaily)
	rp.UrgencyLevel = urgencyFor(snap.CurrentStock, rp.DaysUntilStockout)

	return rp
}

// SortByUrgency orders recommendations most urgent first: ascending by
// days until stockout, product id as the deterministic tie-break.
func SortByUrgency(points []domain.ReorderPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].DaysUntilStockout != points[j].DaysUntilStockout {
			return points[i].DaysUntilStockout < points[j].DaysUntilStockout
		}
		return points[i].ProductID < points[j].ProductID
	})
}

// daysUntilStockout floors stock/consumption to whole days; with no
// consumption there is no finite horizon and the sentinel applies.
func daysUntilStockout(stock, avgDaily float64) int {
	if avgDaily <= 0 {
		return domain.StockoutSentinel
	}
	days := int(math.Floor(stock / avgDaily))
	if days < 0 {
		days = 0
	}
	if days > domain.StockoutSentinel {
		days = domain.StockoutSentinel
	}
	return days
}

func urgencyFor(stock float64, days int) domain.UrgencyLevel {
	switch {
	case stock <= 0:
		return domain.UrgencyCritical
	case days <= 3:
		return domain.UrgencyHigh
	case days <= 7:
		return domain.UrgencyMedium
	default:
		return domain.UrgencyLow
	}
}
