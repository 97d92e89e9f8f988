package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmanzanog/market-snapshot/internal/domain"
)

// --- Mocks ---

type mockHistoryProvider struct {
	historyFunc func(ctx context.Context, code string, start, end time.Time) (domain.PriceSeries, error)
	calls       atomic.Int32
}

func (m *mockHistoryProvider) History(ctx context.Context, code string, start, end time.Time) (domain.PriceSeries, error) {
	m.calls.Add(1)
	if m.historyFunc != nil {
		return m.historyFunc(ctx, code, start, end)
	}
	return domain.PriceSeries{Code: code}, nil
}

// mockCodingHistoryProvider maps listing codes to vendor symbols.
type mockCodingHistoryProvider struct {
	mockHistoryProvider
	codeFunc func(inst domain.Instrument) string
}

func (m *mockCodingHistoryProvider) InstrumentCode(inst domain.Instrument) string {
	return m.codeFunc(inst)
}

type mockListingProvider struct {
	listingFunc func(ctx context.Context, market string) ([]domain.Instrument, error)
	calls       atomic.Int32
}

func (m *mockListingProvider) Listing(ctx context.Context, market string) ([]domain.Instrument, error) {
	m.calls.Add(1)
	if m.listingFunc != nil {
		return m.listingFunc(ctx, market)
	}
	return nil, nil
}

type mockSource struct {
	name      string
	labels    []string
	fetchFunc func(ctx context.Context) ([]domain.ItemResult, error)

	mu    sync.Mutex
	calls int
}

func (m *mockSource) Name() string     { return m.name }
func (m *mockSource) Labels() []string { return m.labels }

func (m *mockSource) Fetch(ctx context.Context) ([]domain.ItemResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx)
	}
	return nil, nil
}

type mockSnapshotTaker struct {
	snapshotFunc func(ctx context.Context) (domain.Snapshot, error)
	calls        atomic.Int32
}

func (m *mockSnapshotTaker) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	m.calls.Add(1)
	if m.snapshotFunc != nil {
		return m.snapshotFunc(ctx)
	}
	return domain.NewSnapshot(nil), nil
}

// --- Helpers ---

func mustDecimal(s string) domain.Decimal {
	d, err := domain.NewDecimalFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seriesOf(code string, closes ...string) domain.PriceSeries {
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	points := make([]domain.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = domain.PricePoint{Date: base.AddDate(0, 0, i), Close: mustDecimal(c)}
	}
	return domain.NewPriceSeries(code, points)
}
