package analytics

import (
	"github.com/ricemill/analytics/internal/domain"
	"github.com/shopspring/decimal"
)

// WasteAnalyzer derives waste quantity, percentage and cost from production
// batches, aggregated by output product or by originating process.
type WasteAnalyzer struct {
	thresholdPct float64
	reductionPct float64
}

// NewWasteAnalyzer builds an analyzer from the configured parameters.
func NewWasteAnalyzer(p Params) *WasteAnalyzer {
	threshold := p.WasteThresholdPct
	if threshold <= 0 {
		threshold = 5.0
	}
	reduction := p.WasteReductionPct
	if reduction <= 0 || reduction > 100 {
		reduction = 80.0
	}
	return &WasteAnalyzer{thresholdPct: threshold, reductionPct: reduction}
}

// batchWaste is input minus output clamped to zero. Negative raw waste means
// bad input data and is reported as a flag, never as negative waste.
func batchWaste(b domain.ProductionBatch) (waste float64, negative bool) {
	raw := b.TotalInputQuantity() - b.TotalOutputQuantity()
	if raw < 0 {
		return 0, true
	}
	return raw, false
}

// ByProduct aggregates waste per primary output product over the batches.
func (wa *WasteAnalyzer) ByProduct(batches []domain.ProductionBatch, rng domain.DateRange) ([]domain.WasteReport, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return wa.aggregate(batches, rng, func(b domain.ProductionBatch) int64 {
		if id := primaryOutputProduct(b); id != 0 {
			return id
		}
		// Total loss: nothing came out, so the waste belongs to the
		// dominant input stream.
		return primaryInputProduct(b)
	}, true), nil
}

// ByProcess aggregates waste per originating production order.
func (wa *WasteAnalyzer) ByProcess(batches []domain.ProductionBatch, rng domain.DateRange) ([]domain.WasteReport, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return wa.aggregate(batches, rng, func(b domain.ProductionBatch) int64 {
		return b.OrderID
	}, false), nil
}

func (wa *WasteAnalyzer) aggregate(
	batches []domain.ProductionBatch,
	rng domain.DateRange,
	keyOf func(domain.ProductionBatch) int64,
	byProduct bool,
) []domain.WasteReport {
	type bucket struct {
		input     float64
		output    float64
		waste     float64
		cost      decimal.Decimal
		negative  bool
		totalLoss bool
	}
	buckets := make(map[int64]*bucket)
	var order []int64

	for _, b := range batches {
		if !b.Status.Finished() || !rng.Contains(b.BatchDate) {
			continue
		}
		key := keyOf(b)
		if key == 0 {
			continue
		}
		bk, ok := buckets[key]
		if !ok {
			bk = &bucket{cost: decimal.Zero}
			buckets[key] = bk
			order = append(order, key)
		}

		waste, negative := batchWaste(b)
		bk.input += b.TotalInputQuantity()
		bk.output += b.TotalOutputQuantity()
		bk.waste += waste
		bk.negative = bk.negative || negative
		bk.totalLoss = bk.totalLoss || (b.TotalInputQuantity() > 0 && b.TotalOutputQuantity() == 0)
		// Waste is costed at the batch's captured input unit cost.
		bk.cost = bk.cost.Add(b.AverageInputUnitCost().Mul(decimal.NewFromFloat(waste)))
	}

	reports := make([]domain.WasteReport, 0, len(order))
	for _, key := range order {
		bk := buckets[key]
		report := domain.WasteReport{
			Range:          rng,
			InputQuantity:  roundFloat(bk.input, 2),
			OutputQuantity: roundFloat(bk.output, 2),
			WasteQuantity:  roundFloat(bk.waste, 2),
			WasteCost:      bk.cost.Round(2),
		}
		if byProduct {
			report.ProductID = key
		} else {
			report.ProcessID = key
		}
		report.WastePercentage = roundFloat(ratio(bk.waste, bk.input)*100, 2)
		if bk.negative {
			report.Warnings = append(report.Warnings,
				"output exceeded input on at least one batch; clamped to zero waste")
		}
		if bk.totalLoss {
			report.Warnings = append(report.Warnings,
				"includes at least one total-loss batch with no recorded output")
		}
		if report.WastePercentage > wa.thresholdPct {
			report.HasTarget = true
			report.TargetQuantity = roundFloat(bk.waste*(1-wa.reductionPct/100), 2)
		}
		reports = append(reports, report)
	}

	return reports
}

// primaryOutputProduct is the output with the largest quantity, which for a
// rice mill is the head-rice stream the batch exists to produce.
func primaryOutputProduct(b domain.ProductionBatch) int64 {
	var productID int64
	var best float64
	for _, out := range b.Outputs {
		if out.Quantity > best {
			best = out.Quantity
			productID = out.ProductID
		}
	}
	return productID
}

// primaryInputProduct is the input with the largest quantity, used to place a
// batch that produced nothing.
func primaryInputProduct(b domain.ProductionBatch) int64 {
	var productID int64
	var best float64
	for _, in := range b.Inputs {
		if in.Quantity > best {
			best = in.Quantity
			productID = in.ProductID
		}
	}
	return productID
}
