package analytics

import (
	"fmt"
	"sort"

	"github.com/ricemill/analytics/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Valuate prices quantity units of a product+warehouse under the chosen
// costing method. movements must be the full IN-movement history for the
// pair; order does not matter, the ordering key is the movement date.
// snapshot supplies the precomputed running-average value for the
// weighted-average method.
//
// Data shortfalls (no lots, short lots) degrade to a flagged result and
// never fail the call; only an unknown method is an error.
func Valuate(
	movements []domain.StockMovement,
	snapshot domain.InventorySnapshot,
	quantity float64,
	method domain.ValuationMethod,
) (domain.ValuationResult, error) {
	result := domain.ValuationResult{
		ProductID:       snapshot.ProductID,
		WarehouseID:     snapshot.WarehouseID,
		Quantity:        quantity,
		Method:          method,
		ValuationAmount: decimal.Zero,
		UnitCost:        decimal.Zero,
	}

	if !method.IsValid() {
		return result, fmt.Errorf("%w: %q", domain.ErrUnknownMethod, method)
	}

	if quantity <= 0 {
		return result, nil
	}

	if method == domain.ValuationWeightedAverage {
		result.ValuationAmount = snapshot.UnitCost.Mul(decimal.NewFromFloat(quantity))
		result.UnitCost = snapshot.UnitCost
		return result, nil
	}

	lots := inboundLots(movements)
	if len(lots) == 0 {
		result.Warnings = append(result.Warnings, "no IN movements recorded, valuation is zero")
		log.Warn().
			Int64("product_id", snapshot.ProductID).
			Int64("warehouse_id", snapshot.WarehouseID).
			Msg("valuation requested without inbound history")
		return result, nil
	}

	sort.SliceStable(lots, func(i, j int) bool {
		if method == domain.ValuationLIFO {
			return lots[i].MovementAt.After(lots[j].MovementAt)
		}
		return lots[i].MovementAt.Before(lots[j].MovementAt)
	})

	amount, consumed := walkLots(lots, quantity)
	result.ValuationAmount = amount
	if consumed > 0 {
		result.UnitCost = amount.Div(decimal.NewFromFloat(consumed)).Round(4)
	}

	if consumed < quantity {
		// Ledger inconsistency: value only what the lots cover, never
		// fabricate a cost for the missing remainder.
		result.ShortLots = true
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("IN lots cover only %.2f of requested %.2f units", consumed, quantity))
	}

	return result, nil
}

// inboundLots filters the history down to IN movements with a usable cost.
func inboundLots(movements []domain.StockMovement) []domain.StockMovement {
	lots := make([]domain.StockMovement, 0, len(movements))
	for _, m := range movements {
		if m.Type != domain.MovementIn || m.Quantity <= 0 {
			continue
		}
		lots = append(lots, m)
	}
	return lots
}

// walkLots consumes quantity from the ordered lots and returns the value of
// what was consumed together with the consumed quantity.
func walkLots(lots []domain.StockMovement, quantity float64) (decimal.Decimal, float64) {
	amount := decimal.Zero
	remaining := quantity

	for _, lot := range lots {
		if remaining <= 0 {
			break
		}
		take := lot.Quantity
		if take > remaining {
			take = remaining
		}
		amount = amount.Add(lot.UnitCost.Mul(decimal.NewFromFloat(take)))
		remaining -= take
	}

	return amount, quantity - remaining
}

// SnapshotFromMovements reconciles a snapshot from the full movement history
// of one product+warehouse: current stock is the signed quantity sum, total
// value follows the given method, unit cost is the running weighted average
// of inbound lots. Used by the valuation write-back sweep.
func SnapshotFromMovements(
	base domain.InventorySnapshot,
	movements []domain.StockMovement,
	method domain.ValuationMethod,
) (domain.InventorySnapshot, error) {
	snap := base
	snap.Method = method

	var stock float64
	inQty := 0.0
	inCost := decimal.Zero
	for _, m := range movements {
		stock += m.SignedQuantity()
		if m.Type == domain.MovementIn && m.Quantity > 0 {
			inQty += m.Quantity
			inCost = inCost.Add(m.TotalCost())
		}
		if snap.LastMovementAt == nil || m.MovementAt.After(*snap.LastMovementAt) {
			at := m.MovementAt
			snap.LastMovementAt = &at
		}
	}
	if stock < 0 {
		stock = 0
	}
	snap.CurrentStock = stock

	if inQty > 0 {
		snap.UnitCost = inCost.Div(decimal.NewFromFloat(inQty)).Round(4)
	}

	valued, err := Valuate(movements, snap, stock, method)
	if err != nil {
		return snap, err
	}
	snap.TotalValue = valued.ValuationAmount

	return snap, nil
}
