package yahoo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"github.com/jmanzanog/market-snapshot/internal/domain"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/marketdata"
)

const Name = "yahoo"

// BarIterator is the subset of *chart.Iter the client consumes.
type BarIterator interface {
	Next() bool
	Bar() *finance.ChartBar
	Err() error
}

// ChartFunc opens a chart query. chart.Get in production.
type ChartFunc func(params *chart.Params) BarIterator

func defaultChart(params *chart.Params) BarIterator {
	return chart.Get(params)
}

// Client implements marketdata.HistoryProvider on Yahoo's chart API.
type Client struct {
	chart ChartFunc
}

func NewClient() *Client {
	return &Client{chart: defaultChart}
}

// NewClientWithChart swaps the chart query (for testing).
func NewClientWithChart(fn ChartFunc) *Client {
	return &Client{chart: fn}
}

func (c *Client) IndexSymbols() []marketdata.IndexSymbol {
	return []marketdata.IndexSymbol{
		{Label: "Dow Jones", Code: "^DJI"},
		{Label: "NASDAQ", Code: "^IXIC"},
		{Label: "S&P500", Code: "^GSPC"},
	}
}

type historyResult struct {
	points []domain.PricePoint
	err    error
}

// InstrumentCode maps a KRX listing code to Yahoo's ".KS"/".KQ" symbol.
func (c *Client) InstrumentCode(inst domain.Instrument) string {
	return marketdata.SuffixedKRXCode(inst)
}

// History retrieves daily bars for a symbol. The chart iterator has no
// context support, so the walk runs in its own goroutine and is abandoned
// when ctx ends first.
func (c *Client) History(ctx context.Context, code string, start, end time.Time) (domain.PriceSeries, error) {
	params := &chart.Params{
		Symbol:   code,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	done := make(chan historyResult, 1)
	go func() {
		points, err := c.collect(params)
		done <- historyResult{points: points, err: err}
	}()

	select {
	case <-ctx.Done():
		kind := domain.ErrNetwork
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = domain.ErrTimeout
		}
		return domain.PriceSeries{}, domain.NewFetchError(Name, kind, fmt.Errorf("chart for %s: %w", code, ctx.Err()))
	case res := <-done:
		if res.err != nil {
			return domain.PriceSeries{}, fmt.Errorf("chart for %s: %w", code, res.err)
		}
		return domain.NewPriceSeries(code, res.points), nil
	}
}

func (c *Client) collect(params *chart.Params) ([]domain.PricePoint, error) {
	iter := c.chart(params)

	var points []domain.PricePoint
	for iter.Next() {
		bar := iter.Bar()
		// Yahoo emits empty bars for holidays and the still-open session.
		if bar == nil || bar.Close.IsZero() {
			slog.Debug("Skipping empty chart bar", "symbol", params.Symbol)
			continue
		}
		closePrice, err := domain.NewDecimalFromString(bar.Close.String())
		if err != nil {
			return nil, domain.NewFetchError(Name, domain.ErrParse, err)
		}
		points = append(points, domain.PricePoint{
			Date:  time.Unix(int64(bar.Timestamp), 0).UTC(),
			Close: closePrice,
		})
	}

	if err := iter.Err(); err != nil {
		return nil, domain.NewFetchError(Name, classify(err), err)
	}
	return points, nil
}

// classify maps finance-go errors onto domain kinds. The library reports a
// delisted or unknown symbol through its remote error message.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not found"), strings.Contains(msg, "no data"):
		return domain.ErrNotFound
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return domain.ErrTimeout
	default:
		return domain.ErrNetwork
	}
}
