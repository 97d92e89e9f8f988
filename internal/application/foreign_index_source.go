package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmanzanog/market-snapshot/internal/domain"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/marketdata"
)

const (
	SourceForeignIndex = "foreign_index"

	// DefaultIndexWindow covers the two most recent sessions across long
	// weekends and holidays.
	DefaultIndexWindow = 10 * 24 * time.Hour
)

// ForeignIndexSource turns trailing price history for a fixed set of indices
// into (value, change) records. Each index fails independently.
type ForeignIndexSource struct {
	provider marketdata.HistoryProvider
	symbols  []marketdata.IndexSymbol
	window   time.Duration
	now      func() time.Time
}

func NewForeignIndexSource(provider marketdata.HistoryProvider, symbols []marketdata.IndexSymbol, window time.Duration) *ForeignIndexSource {
	if window <= 0 {
		window = DefaultIndexWindow
	}
	return &ForeignIndexSource{
		provider: provider,
		symbols:  symbols,
		window:   window,
		now:      time.Now,
	}
}

func (s *ForeignIndexSource) Name() string {
	return SourceForeignIndex
}

func (s *ForeignIndexSource) Labels() []string {
	labels := make([]string, len(s.symbols))
	for i, sym := range s.symbols {
		labels[i] = sym.Label
	}
	return labels
}

// Fetch never fails as a whole: a failed index becomes an item error.
func (s *ForeignIndexSource) Fetch(ctx context.Context) ([]domain.ItemResult, error) {
	end := s.now()
	start := end.Add(-s.window)

	results := make([]domain.ItemResult, len(s.symbols))
	var wg sync.WaitGroup

	for i, sym := range s.symbols {
		wg.Add(1)
		go func(i int, sym marketdata.IndexSymbol) {
			defer wg.Done()

			record, err := s.fetchOne(ctx, sym, start, end)
			if err != nil {
				slog.WarnContext(ctx, "Foreign index unavailable", "label", sym.Label, "code", sym.Code, "error", err)
				results[i] = domain.ItemFailed(sym.Label, err)
				return
			}
			results[i] = domain.ItemOK(record)
		}(i, sym)
	}

	wg.Wait()
	return results, nil
}

func (s *ForeignIndexSource) fetchOne(ctx context.Context, sym marketdata.IndexSymbol, start, end time.Time) (domain.QuoteRecord, error) {
	series, err := s.provider.History(ctx, sym.Code, start, end)
	if err != nil {
		return domain.QuoteRecord{}, fmt.Errorf("failed to get history: %w", err)
	}

	delta, err := series.LatestDelta()
	if err != nil {
		return domain.QuoteRecord{}, err
	}

	record, err := delta.Record(sym.Label)
	if err != nil {
		return domain.QuoteRecord{}, fmt.Errorf("failed to format %s: %w", sym.Label, err)
	}
	return record, nil
}
