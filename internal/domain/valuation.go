package domain

// ValuationMethod selects the inventory costing method.
type ValuationMethod string

const (
	// ValuationFIFO consumes the oldest lot costs first.
	ValuationFIFO ValuationMethod = "fifo"
	// ValuationLIFO consumes the newest lot costs first.
	ValuationLIFO ValuationMethod = "lifo"
	// ValuationWeightedAverage prices stock at the running average cost.
	ValuationWeightedAverage ValuationMethod = "weighted_average"
)

// DefaultValuationMethod applies when a snapshot has no method recorded.
const DefaultValuationMethod = ValuationFIFO

// IsValid reports whether the method is one of the supported methods.
func (v ValuationMethod) IsValid() bool {
	switch v {
	case ValuationFIFO, ValuationLIFO, ValuationWeightedAverage:
		return true
	default:
		return false
	}
}

// UsesLayers reports whether the method walks cost layers (FIFO/LIFO).
func (v ValuationMethod) UsesLayers() bool {
	return v == ValuationFIFO || v == ValuationLIFO
}

func (v ValuationMethod) String() string {
	return string(v)
}
