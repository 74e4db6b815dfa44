package domain

import (
	"errors"
	"fmt"
	"time"
)

// InvalidParameter errors abort the call; data conditions never do.
var (
	ErrInvalidDateRange = errors.New("invalid date range: end before start")
	ErrUnknownMethod    = errors.New("unknown valuation method")
	ErrInvalidHorizon   = errors.New("forecast horizon must be positive")
)

// DateRange is a closed interval over movement/batch timestamps.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewDateRange builds a validated range.
func NewDateRange(from, to time.Time) (DateRange, error) {
	r := DateRange{From: from, To: to}
	return r, r.Validate()
}

// TrailingDays returns the range covering the last n days up to now.
func TrailingDays(n int) DateRange {
	now := time.Now()
	return DateRange{From: now.AddDate(0, 0, -n), To: now}
}

// TrailingMonths returns the range covering the last n calendar months.
func TrailingMonths(n int) DateRange {
	now := time.Now()
	return DateRange{From: now.AddDate(0, -n, 0), To: now}
}

func (r DateRange) Validate() error {
	if r.To.Before(r.From) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidDateRange,
			r.From.Format(time.RFC3339), r.To.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t falls inside the range (inclusive).
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// Days is the span length in whole days, never below 1.
func (r DateRange) Days() int {
	d := int(r.To.Sub(r.From).Hours() / 24)
	if d < 1 {
		return 1
	}
	return d
}

// Hours is the span length in hours.
func (r DateRange) Hours() float64 {
	return r.To.Sub(r.From).Hours()
}
