package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus tracks a production run through its lifecycle. The analytics
// components only ever use it as a filter predicate.
type BatchStatus string

const (
	BatchPlanned    BatchStatus = "planned"
	BatchInProgress BatchStatus = "in_progress"
	BatchCompleted  BatchStatus = "completed"
	BatchVerified   BatchStatus = "verified"
)

// Finished reports whether the batch has fully recorded results.
func (s BatchStatus) Finished() bool {
	return s == BatchCompleted || s == BatchVerified
}

// ShiftType identifies the working shift a batch ran on.
type ShiftType string

const (
	ShiftMorning ShiftType = "morning"
	ShiftEvening ShiftType = "evening"
	ShiftNight   ShiftType = "night"
)

// BatchInput is one raw material consumed by a production batch.
type BatchInput struct {
	ID        int64           `json:"id" db:"id"`
	BatchID   int64           `json:"batch_id" db:"batch_id"`
	ProductID int64           `json:"product_id" db:"product_id"`
	Quantity  float64         `json:"quantity" db:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost" db:"unit_cost"`
}

// BatchOutput is one product yielded by a production batch.
type BatchOutput struct {
	ID           int64   `json:"id" db:"id"`
	BatchID      int64   `json:"batch_id" db:"batch_id"`
	ProductID    int64   `json:"product_id" db:"product_id"`
	Quantity     float64 `json:"quantity" db:"quantity"`
	QualityScore float64 `json:"quality_score" db:"quality_score"`
}

// ProductionBatch is one manufacturing run. Inputs/Outputs are populated by
// the ledger reader; total quantities are derived sums, never stored.
type ProductionBatch struct {
	ID           int64       `json:"id" db:"id"`
	BatchNumber  string      `json:"batch_number" db:"batch_number"`
	OrderID      int64       `json:"order_id" db:"order_id"`
	MachineID    int64       `json:"machine_id" db:"machine_id"`
	OperatorID   int64       `json:"operator_id,omitempty" db:"operator_id"`
	SupervisorID int64       `json:"supervisor_id,omitempty" db:"supervisor_id"`
	BatchDate    time.Time   `json:"batch_date" db:"batch_date"`
	Shift        ShiftType   `json:"shift" db:"shift"`
	Status       BatchStatus `json:"status" db:"status"`
	StartedAt    *time.Time  `json:"started_at,omitempty" db:"started_at"`
	EndedAt      *time.Time  `json:"ended_at,omitempty" db:"ended_at"`
	Inputs       []BatchInput  `json:"inputs" db:"-"`
	Outputs      []BatchOutput `json:"outputs" db:"-"`
}

// TotalInputQuantity sums the input quantities.
func (b ProductionBatch) TotalInputQuantity() float64 {
	var total float64
	for _, in := range b.Inputs {
		total += in.Quantity
	}
	return total
}

// TotalOutputQuantity sums the output quantities.
func (b ProductionBatch) TotalOutputQuantity() float64 {
	var total float64
	for _, out := range b.Outputs {
		total += out.Quantity
	}
	return total
}

// InputCost sums quantity times unit cost over all inputs.
func (b ProductionBatch) InputCost() decimal.Decimal {
	total := decimal.Zero
	for _, in := range b.Inputs {
		total = total.Add(in.UnitCost.Mul(decimal.NewFromFloat(in.Quantity)))
	}
	return total
}

// AverageInputUnitCost is the quantity-weighted input unit cost, zero when
// the batch consumed nothing.
func (b ProductionBatch) AverageInputUnitCost() decimal.Decimal {
	qty := b.TotalInputQuantity()
	if qty <= 0 {
		return decimal.Zero
	}
	return b.InputCost().Div(decimal.NewFromFloat(qty))
}

// Duration is the recorded run time, zero when timestamps are missing.
func (b ProductionBatch) Duration() time.Duration {
	if b.StartedAt == nil || b.EndedAt == nil {
		return 0
	}
	d := b.EndedAt.Sub(*b.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// HasFullTimes reports whether both start and end times are recorded.
func (b ProductionBatch) HasFullTimes() bool {
	return b.StartedAt != nil && b.EndedAt != nil && !b.EndedAt.Before(*b.StartedAt)
}

// Machine is referenced by batches, never owned by them.
type Machine struct {
	ID              int64   `json:"id" db:"id"`
	Code            string  `json:"code" db:"code"`
	Name            string  `json:"name" db:"name"`
	CapacityPerHour float64 `json:"capacity_per_hour" db:"capacity_per_hour"`
	Active          bool    `json:"active" db:"active"`
}

// BatchFilter narrows a batch listing. Zero MachineID means all machines;
// empty Statuses means any status.
type BatchFilter struct {
	MachineID int64
	Statuses  []BatchStatus
	Range     DateRange
}
