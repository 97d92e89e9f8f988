package domain

import (
	"fmt"
	"sort"
	"time"
)

type PricePoint struct {
	Date  time.Time `json:"date"`
	Close Decimal   `json:"close"`
}

// PriceSeries is a closing-price history ordered by ascending date.
type PriceSeries struct {
	Code   string       `json:"code"`
	Points []PricePoint `json:"points"`
}

// NewPriceSeries copies points and sorts them by date, keeping the provider
// order for equal dates.
func NewPriceSeries(code string, points []PricePoint) PriceSeries {
	sorted := make([]PricePoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return PriceSeries{
		Code:   code,
		Points: sorted,
	}
}

func (s PriceSeries) Len() int {
	return len(s.Points)
}

// Tail returns a copy of the last n points.
func (s PriceSeries) Tail(n int) []PricePoint {
	if n <= 0 {
		return []PricePoint{}
	}
	start := len(s.Points) - n
	if start < 0 {
		start = 0
	}
	out := make([]PricePoint, len(s.Points)-start)
	copy(out, s.Points[start:])
	return out
}

// LatestDelta computes the delta between the two most recent closes.
func (s PriceSeries) LatestDelta() (Delta, error) {
	n := len(s.Points)
	if n < 2 {
		return Delta{}, fmt.Errorf("%w: %s has %d points, need 2", ErrInsufficientData, s.Code, n)
	}
	return ComputeDelta(s.Points[n-2].Close, s.Points[n-1].Close)
}

// Delta is the signed absolute and percentage change between two closes.
type Delta struct {
	Last     Decimal `json:"last"`
	Previous Decimal `json:"previous"`
	Diff     Decimal `json:"diff"`
	Percent  Decimal `json:"percent"`
}

// ComputeDelta returns last-previous and (last-previous)/previous*100.
func ComputeDelta(previous, last Decimal) (Delta, error) {
	diff, err := last.Sub(previous)
	if err != nil {
		return Delta{}, err
	}
	ratio, err := diff.Div(previous)
	if err != nil {
		return Delta{}, fmt.Errorf("percent change from %s: %w", previous, err)
	}
	pct, err := ratio.Mul(Hundred)
	if err != nil {
		return Delta{}, err
	}
	return Delta{
		Last:     last,
		Previous: previous,
		Diff:     diff,
		Percent:  pct,
	}, nil
}

// FormatValue renders the latest close as "1,234.56".
func (d Delta) FormatValue() (string, error) {
	return d.Last.FormatGrouped(2)
}

// FormatChange renders the delta as "+12.30 (+0.45%)".
func (d Delta) FormatChange() (string, error) {
	diff, err := d.Diff.FormatSigned(2)
	if err != nil {
		return "", err
	}
	pct, err := d.Percent.FormatSigned(2)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s (%s%%)", diff, pct), nil
}

// Record formats the delta into a QuoteRecord.
func (d Delta) Record(label string) (QuoteRecord, error) {
	value, err := d.FormatValue()
	if err != nil {
		return QuoteRecord{}, err
	}
	change, err := d.FormatChange()
	if err != nil {
		return QuoteRecord{}, err
	}
	return NewQuoteRecord(label, value, change), nil
}
