package analytics

import (
	"testing"

	"github.com/ricemill/analytics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outFor(productID int64, qty float64, cost string) domain.StockMovement {
	m := outMovement(qty, cost, day(10))
	m.ProductID = productID
	return m
}

func TestABCClassify(t *testing.T) {
	c := NewABCClassifier(DefaultParams())

	// Values: 600, 250, 100, 50 => total 1000
	movements := []domain.StockMovement{
		outFor(1, 60, "10"),
		outFor(2, 25, "10"),
		outFor(3, 10, "10"),
		outFor(4, 5, "10"),
	}

	entries := c.Classify(movements)
	require.Len(t, entries, 4)

	assert.Equal(t, int64(1), entries[0].ProductID)
	assert.Equal(t, domain.ClassA, entries[0].Classification) // 60%
	assert.Equal(t, domain.ClassB, entries[1].Classification) // 85%
	assert.Equal(t, domain.ClassC, entries[2].Classification) // 95%
	assert.Equal(t, domain.ClassC, entries[3].Classification) // 100%

	var sum float64
	for _, e := range entries {
		sum += e.ValuePercentage
	}
	assert.InDelta(t, 100.0, sum, 1e-6)
	assert.InDelta(t, 100.0, entries[len(entries)-1].CumulativePercentage, 1e-6)
}

func TestABCBoundaryIsInclusive(t *testing.T) {
	c := NewABCClassifier(DefaultParams())

	// First product lands exactly on the 70% boundary.
	movements := []domain.StockMovement{
		outFor(1, 70, "10"),
		outFor(2, 30, "10"),
	}

	entries := c.Classify(movements)
	require.Len(t, entries, 2)

	assert.InDelta(t, 70.0, entries[0].CumulativePercentage, 1e-9)
	assert.Equal(t, domain.ClassA, entries[0].Classification)
	assert.Equal(t, domain.ClassC, entries[1].Classification)
}

func TestABCCumulativeMonotonic(t *testing.T) {
	c := NewABCClassifier(DefaultParams())

	movements := []domain.StockMovement{
		outFor(1, 33, "7"),
		outFor(2, 14, "3"),
		outFor(3, 99, "1"),
		outFor(4, 2, "100"),
		outFor(5, 51, "2"),
	}

	entries := c.Classify(movements)
	prev := 0.0
	for _, e := range entries {
		assert.GreaterOrEqual(t, e.CumulativePercentage, prev)
		prev = e.CumulativePercentage
	}
}

func TestABCZeroConsumption(t *testing.T) {
	c := NewABCClassifier(DefaultParams())

	// OUT movements with zero quantity contribute nothing.
	entries := c.Classify([]domain.StockMovement{
		inMovement(100, "10", day(1)),
	})
	assert.Empty(t, entries)
}

func TestABCDeterministicTieBreak(t *testing.T) {
	c := NewABCClassifier(DefaultParams())

	movements := []domain.StockMovement{
		outFor(9, 10, "10"),
		outFor(3, 10, "10"),
		outFor(6, 10, "10"),
	}

	entries := c.Classify(movements)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(3), entries[0].ProductID)
	assert.Equal(t, int64(6), entries[1].ProductID)
	assert.Equal(t, int64(9), entries[2].ProductID)
}
