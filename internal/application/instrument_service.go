package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jmanzanog/market-snapshot/internal/domain"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/marketdata"
)

//go:generate mockgen -package=application -destination=mock_listing_repository_test.go -source=../domain/repository.go ListingRepository

const (
	DefaultListingMarket = "KRX"
	DefaultListingTTL    = time.Hour
	DefaultHistoryWindow = 90 * 24 * time.Hour

	// DefaultListingRefreshTimeout bounds a listing refresh, which runs
	// detached from the caller that started it.
	DefaultListingRefreshTimeout = 30 * time.Second

	// SearchTailSize is the number of most recent closes returned with a
	// search result.
	SearchTailSize = 10
)

type InstrumentServiceConfig struct {
	Market         string
	ListingTTL     time.Duration
	HistoryWindow  time.Duration
	RefreshTimeout time.Duration
}

// SearchResult is a resolved instrument with its recent price history.
type SearchResult struct {
	Instrument domain.Instrument   `json:"instrument"`
	Value      string              `json:"value"`
	Change     string              `json:"change"`
	Delta      *domain.Delta       `json:"delta,omitempty"`
	Series     domain.PriceSeries  `json:"series"`
	Tail       []domain.PricePoint `json:"tail"`
}

// InstrumentService resolves free-text names to listed instruments and loads
// their price history. The listing is fetched at most once per TTL; when the
// upstream listing is unavailable the last known one is reused.
type InstrumentService struct {
	history marketdata.HistoryProvider
	listing marketdata.ListingProvider
	repo    domain.ListingRepository
	cfg     InstrumentServiceConfig
	now     func() time.Time

	mu        sync.RWMutex
	cached    []domain.Instrument
	fetchedAt time.Time

	// coalesces concurrent listing refreshes
	sf singleflight.Group
}

// NewInstrumentService wires the service. repo may be nil, in which case
// only the in-memory copy is reused.
func NewInstrumentService(history marketdata.HistoryProvider, listing marketdata.ListingProvider, repo domain.ListingRepository, cfg InstrumentServiceConfig) *InstrumentService {
	if cfg.Market == "" {
		cfg.Market = DefaultListingMarket
	}
	if cfg.ListingTTL <= 0 {
		cfg.ListingTTL = DefaultListingTTL
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = DefaultListingRefreshTimeout
	}
	return &InstrumentService{
		history: history,
		listing: listing,
		repo:    repo,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Resolve returns the first instrument, in listing order, whose name
// contains keyword case-insensitively. Not finding one is not an error.
func (s *InstrumentService) Resolve(ctx context.Context, keyword string) (domain.Instrument, bool, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return domain.Instrument{}, false, domain.ErrEmptyKeyword
	}

	listing, err := s.Listing(ctx)
	if err != nil {
		return domain.Instrument{}, false, err
	}

	inst, ok := domain.FindFirstByName(listing, keyword)
	return inst, ok, nil
}

// Search resolves keyword and loads the instrument's history. It returns
// ErrNotFound when no instrument matches.
func (s *InstrumentService) Search(ctx context.Context, keyword string) (*SearchResult, error) {
	inst, ok, err := s.Resolve(ctx, keyword)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no instrument matches %q: %w", strings.TrimSpace(keyword), domain.ErrNotFound)
	}

	series, err := s.historyFor(ctx, inst)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{
		Instrument: inst,
		Value:      domain.Placeholder,
		Change:     domain.Placeholder,
		Series:     series,
		Tail:       series.Tail(SearchTailSize),
	}

	delta, err := series.LatestDelta()
	if err != nil {
		slog.WarnContext(ctx, "Not enough history for delta", "code", inst.Code, "points", series.Len())
		return result, nil
	}
	record, err := delta.Record(inst.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to format %s: %w", inst.Code, err)
	}

	result.Delta = &delta
	result.Value = record.Value
	result.Change = record.Change
	return result, nil
}

// History returns the configured trailing window of daily closes for code.
// When the provider uses its own symbols, code is looked up in the listing to
// learn its market; codes missing from the listing are sent unchanged.
func (s *InstrumentService) History(ctx context.Context, code string) (domain.PriceSeries, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.PriceSeries{}, fmt.Errorf("instrument code is empty: %w", domain.ErrNotFound)
	}

	inst := domain.Instrument{Code: code}
	if _, ok := s.history.(marketdata.InstrumentCoder); ok {
		listing, err := s.Listing(ctx)
		if err != nil {
			slog.DebugContext(ctx, "Listing unavailable for code lookup", "code", code, "error", err)
		} else if found, ok := domain.FindByCode(listing, code); ok {
			inst = found
		}
	}
	return s.historyFor(ctx, inst)
}

func (s *InstrumentService) historyFor(ctx context.Context, inst domain.Instrument) (domain.PriceSeries, error) {
	symbol := inst.Code
	if coder, ok := s.history.(marketdata.InstrumentCoder); ok {
		symbol = coder.InstrumentCode(inst)
	}

	end := s.now()
	series, err := s.history.History(ctx, symbol, end.Add(-s.cfg.HistoryWindow), end)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("failed to get history for %s: %w", inst.Code, err)
	}
	// Callers know the instrument by its exchange code.
	series.Code = inst.Code
	return series, nil
}

// Listing returns the market listing, refreshing it when the cached copy is
// older than the TTL. Concurrent callers share one refresh, which outlives
// any single caller's context; each caller still returns when its own ctx
// ends.
func (s *InstrumentService) Listing(ctx context.Context) ([]domain.Instrument, error) {
	if listing, ok := s.fresh(); ok {
		return listing, nil
	}

	ch := s.sf.DoChan(s.cfg.Market, func() (any, error) {
		// Another caller may have refreshed while we waited for the lock.
		if listing, ok := s.fresh(); ok {
			return listing, nil
		}
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RefreshTimeout)
		defer cancel()
		return s.refreshListing(refreshCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			slog.DebugContext(ctx, "Listing refresh shared", "market", s.cfg.Market)
		}
		return res.Val.([]domain.Instrument), nil
	}
}

func (s *InstrumentService) fresh() ([]domain.Instrument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cached == nil || s.now().Sub(s.fetchedAt) >= s.cfg.ListingTTL {
		return nil, false
	}
	return s.cached, true
}

func (s *InstrumentService) refreshListing(ctx context.Context) ([]domain.Instrument, error) {
	listing, err := s.listing.Listing(ctx, s.cfg.Market)
	if err == nil {
		s.mu.Lock()
		s.cached = listing
		s.fetchedAt = s.now()
		s.mu.Unlock()

		slog.InfoContext(ctx, "Listing refreshed", "market", s.cfg.Market, "instruments", len(listing))

		if s.repo != nil {
			if saveErr := s.repo.ReplaceListing(ctx, s.cfg.Market, listing); saveErr != nil {
				slog.WarnContext(ctx, "Failed to store listing", "market", s.cfg.Market, "error", saveErr)
			}
		}
		return listing, nil
	}

	slog.WarnContext(ctx, "Listing fetch failed, trying last known listing", "market", s.cfg.Market, "error", err)

	s.mu.RLock()
	stale := s.cached
	s.mu.RUnlock()
	if stale != nil {
		return stale, nil
	}

	if s.repo != nil {
		stored, findErr := s.repo.FindListing(ctx, s.cfg.Market)
		switch {
		case findErr == nil:
			// Kept out of the cache so the next call retries upstream.
			return stored, nil
		case !errors.Is(findErr, domain.ErrNotFound):
			slog.WarnContext(ctx, "Failed to load stored listing", "market", s.cfg.Market, "error", findErr)
		}
	}

	return nil, fmt.Errorf("failed to get listing for %s: %w", s.cfg.Market, err)
}
