package domain

import (
	"errors"
	"testing"
	"time"
)

func seriesOf(code string, closes ...string) PriceSeries {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	points := make([]PricePoint, len(closes))
	for i, c := range closes {
		points[i] = PricePoint{Date: start.AddDate(0, 0, i), Close: mustDecimalFromString(c)}
	}
	return NewPriceSeries(code, points)
}

func TestNewPriceSeries_SortsByDate(t *testing.T) {
	d1 := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	points := []PricePoint{
		{Date: d2, Close: NewDecimalFromInt(2)},
		{Date: d1, Close: NewDecimalFromInt(1)},
	}

	s := NewPriceSeries("DJI", points)

	if !s.Points[0].Date.Equal(d1) || !s.Points[1].Date.Equal(d2) {
		t.Errorf("points not sorted: %+v", s.Points)
	}
	if !points[0].Date.Equal(d2) {
		t.Error("input slice must not be reordered")
	}
}

func TestPriceSeries_LatestDelta_Format(t *testing.T) {
	testCases := []struct {
		name           string
		prev, last     string
		expectedValue  string
		expectedChange string
	}{
		{"gain", "100", "101.5", "101.50", "+1.50 (+1.50%)"},
		{"loss", "42000", "41580", "41,580.00", "-420.00 (-1.00%)"},
		{"unchanged", "2510.4", "2510.4", "2,510.40", "+0.00 (+0.00%)"},
		{"repeating percent", "3", "4", "4.00", "+1.00 (+33.33%)"},
		{"small loss", "17890.12", "17885.5", "17,885.50", "-4.62 (-0.03%)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			delta, err := seriesOf("X", "1", tc.prev, tc.last).LatestDelta()
			if err != nil {
				t.Fatalf("LatestDelta failed: %v", err)
			}

			rec, err := delta.Record("X")
			if err != nil {
				t.Fatalf("Record failed: %v", err)
			}
			if rec.Value != tc.expectedValue {
				t.Errorf("value: expected %s, got %s", tc.expectedValue, rec.Value)
			}
			if rec.Change != tc.expectedChange {
				t.Errorf("change: expected %s, got %s", tc.expectedChange, rec.Change)
			}
		})
	}
}

func TestPriceSeries_LatestDelta_InsufficientData(t *testing.T) {
	for _, s := range []PriceSeries{seriesOf("X"), seriesOf("X", "10")} {
		_, err := s.LatestDelta()
		if !errors.Is(err, ErrInsufficientData) {
			t.Errorf("expected ErrInsufficientData for %d points, got %v", s.Len(), err)
		}
	}
}

func TestComputeDelta_ZeroPrevious(t *testing.T) {
	_, err := ComputeDelta(Zero, NewDecimalFromInt(5))
	if err == nil {
		t.Fatal("expected error for zero previous close")
	}
}

func TestPriceSeries_Tail(t *testing.T) {
	s := seriesOf("X", "1", "2", "3", "4")

	tail := s.Tail(2)
	if len(tail) != 2 || tail[0].Close.String() != "3" || tail[1].Close.String() != "4" {
		t.Errorf("unexpected tail: %+v", tail)
	}
	if got := len(s.Tail(10)); got != 4 {
		t.Errorf("expected whole series, got %d points", got)
	}
	if got := len(s.Tail(0)); got != 0 {
		t.Errorf("expected empty tail, got %d points", got)
	}

	tail[0].Close = Zero
	if s.Points[2].Close.IsZero() {
		t.Error("Tail must return a copy")
	}
}
