package analytics

import (
	"sort"

	"github.com/ricemill/analytics/internal/domain"
	"github.com/shopspring/decimal"
)

// ABCClassifier ranks products by consumption value into Pareto tiers.
type ABCClassifier struct {
	classA float64
	classB float64
}

// NewABCClassifier builds a classifier with the configured cumulative
// percentage boundaries (A threshold inclusive, then B, then C).
func NewABCClassifier(p Params) *ABCClassifier {
	a := p.ClassAThreshold
	if a <= 0 {
		a = 70.0
	}
	b := p.ClassBThreshold
	if b <= a {
		b = 90.0
	}
	return &ABCClassifier{classA: a, classB: b}
}

// Classify groups OUT movements by product, ranks products by total
// consumption value descending and assigns A/B/C by cumulative percentage.
// With zero total consumption every product lands in class C at 0%.
func (c *ABCClassifier) Classify(movements []domain.StockMovement) []domain.ABCEntry {
	valueByProduct := make(map[int64]decimal.Decimal)
	for _, m := range movements {
		if m.Type != domain.MovementOut || m.Quantity <= 0 {
			continue
		}
		valueByProduct[m.ProductID] = valueByProduct[m.ProductID].Add(m.TotalCost())
	}

	entries := make([]domain.ABCEntry, 0, len(valueByProduct))
	total := decimal.Zero
	for productID, value := range valueByProduct {
		entries = append(entries, domain.ABCEntry{
			ProductID:        productID,
			ConsumptionValue: value,
			Classification:   domain.ClassC,
		})
		total = total.Add(value)
	}

	// Stable ranking: value descending, then product id.
	sort.SliceStable(entries, func(i, j int) bool {
		cmp := entries[i].ConsumptionValue.Cmp(entries[j].ConsumptionValue)
		if cmp != 0 {
			return cmp > 0
		}
		return entries[i].ProductID < entries[j].ProductID
	})

	if !total.IsPositive() {
		return entries
	}

	totalF, _ := total.Float64()
	cumulative := 0.0
	for i := range entries {
		v, _ := entries[i].ConsumptionValue.Float64()
		share := v / totalF * 100
		cumulative += share
		entries[i].ValuePercentage = share
		entries[i].CumulativePercentage = cumulative
		entries[i].Classification = c.classFor(cumulative)
	}
	// The last cumulative percentage is 100 by definition.
	entries[len(entries)-1].CumulativePercentage = 100.0

	return entries
}

func (c *ABCClassifier) classFor(cumulative float64) domain.ABCClass {
	const eps = 1e-9
	switch {
	case cumulative <= c.classA+eps:
		return domain.ClassA
	case cumulative <= c.classB+eps:
		return domain.ClassB
	default:
		return domain.ClassC
	}
}
