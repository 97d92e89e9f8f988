package marketdata

import (
	"context"
	"strings"
	"time"

	"github.com/jmanzanog/market-snapshot/internal/domain"
)

// DateLayout is the calendar-date format used by the HTTP providers.
const DateLayout = "2006-01-02"

// HistoryProvider returns daily closing prices for an instrument code over
// [start, end].
type HistoryProvider interface {
	History(ctx context.Context, code string, start, end time.Time) (domain.PriceSeries, error)
}

// ListingProvider returns every instrument listed on a market, in the
// provider's listing order.
type ListingProvider interface {
	Listing(ctx context.Context, market string) ([]domain.Instrument, error)
}

// IndexSymbol is a foreign index shown on the snapshot: a display label and
// the provider-specific code used to fetch it.
type IndexSymbol struct {
	Label string
	Code  string
}

// IndexCatalog is implemented by providers that know their own codes for the
// foreign indices.
type IndexCatalog interface {
	IndexSymbols() []IndexSymbol
}

// InstrumentCoder is implemented by providers whose symbols for listed
// instruments differ from the listing's exchange codes.
type InstrumentCoder interface {
	InstrumentCode(inst domain.Instrument) string
}

// SuffixedKRXCode appends the ".KS" (KOSPI) or ".KQ" (KOSDAQ) suffix global
// vendors use for Korean listings. Other markets and codes that already
// carry a suffix pass through unchanged.
func SuffixedKRXCode(inst domain.Instrument) string {
	if strings.Contains(inst.Code, ".") {
		return inst.Code
	}
	switch strings.ToUpper(inst.Market) {
	case "KOSPI":
		return inst.Code + ".KS"
	case "KOSDAQ":
		return inst.Code + ".KQ"
	default:
		return inst.Code
	}
}
