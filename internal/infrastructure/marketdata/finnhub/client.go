package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jmanzanog/market-snapshot/internal/domain"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/httpx"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/marketdata"
)

const (
	Name = "finnhub"

	defaultBaseURL  = "https://finnhub.io/api/v1"
	candlePath      = "/stock/candle"
	dailyResolution = "D"

	statusOK     = "ok"
	statusNoData = "no_data"
)

// Client implements marketdata.HistoryProvider using the Finnhub candle API.
type Client struct {
	baseURL string
	apiKey  string
	client  *httpx.Client
}

// NewClient creates a new Finnhub API client.
func NewClient(apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		client:  httpx.New(10*time.Second, ""),
	}
}

// NewClientWithHTTPClient creates a new Finnhub client sharing an existing
// HTTP client, so the configured timeout and User-Agent apply.
func NewClientWithHTTPClient(apiKey string, client *httpx.Client) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		client:  client,
	}
}

// SetBaseURL sets the base URL for the API (useful for testing).
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// IndexSymbols returns ETF proxies; Finnhub's free tier has no index candles.
func (c *Client) IndexSymbols() []marketdata.IndexSymbol {
	return []marketdata.IndexSymbol{
		{Label: "Dow Jones", Code: "DIA"},
		{Label: "NASDAQ", Code: "QQQ"},
		{Label: "S&P500", Code: "SPY"},
	}
}

// InstrumentCode maps a KRX listing code to Finnhub's suffixed symbol.
func (c *Client) InstrumentCode(inst domain.Instrument) string {
	return marketdata.SuffixedKRXCode(inst)
}

// candleResponse represents the Finnhub candle response. Arrays are parallel.
type candleResponse struct {
	Close     []float64 `json:"c"` // Close prices
	Timestamp []int64   `json:"t"` // Unix timestamps
	Status    string    `json:"s"` // "ok" or "no_data"
}

// History retrieves daily candles for a symbol between start and end.
func (c *Client) History(ctx context.Context, code string, start, end time.Time) (domain.PriceSeries, error) {
	params := url.Values{}
	params.Add("symbol", code)
	params.Add("resolution", dailyResolution)
	params.Add("from", strconv.FormatInt(start.Unix(), 10))
	params.Add("to", strconv.FormatInt(end.Unix(), 10))
	params.Add("token", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, candlePath, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return domain.PriceSeries{}, domain.NewFetchError(Name, httpx.Classify(err), fmt.Errorf("failed to execute request: %w", err))
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close response body", "error", closeErr, "symbol", code)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.PriceSeries{}, domain.NewFetchError(Name, domain.ErrNetwork, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body)))
	}

	var candles candleResponse
	if err := json.NewDecoder(resp.Body).Decode(&candles); err != nil {
		return domain.PriceSeries{}, domain.NewFetchError(Name, domain.ErrParse, fmt.Errorf("failed to decode response: %w", err))
	}

	switch candles.Status {
	case statusOK:
	case statusNoData:
		return domain.PriceSeries{}, domain.NewFetchError(Name, domain.ErrNotFound, fmt.Errorf("no candle data for symbol: %s", code))
	default:
		return domain.PriceSeries{}, domain.NewFetchError(Name, domain.ErrParse, fmt.Errorf("unexpected candle status %q for symbol: %s", candles.Status, code))
	}

	if len(candles.Close) != len(candles.Timestamp) {
		return domain.PriceSeries{}, domain.NewFetchError(Name, domain.ErrParse,
			fmt.Errorf("candle arrays differ in length for %s: %d closes, %d timestamps", code, len(candles.Close), len(candles.Timestamp)))
	}

	points := make([]domain.PricePoint, 0, len(candles.Close))
	for i, closeValue := range candles.Close {
		price, err := domain.NewDecimalFromFloat(closeValue)
		if err != nil {
			return domain.PriceSeries{}, domain.NewFetchError(Name, domain.ErrParse, fmt.Errorf("failed to parse price: %w", err))
		}
		// Halted sessions come back with a zero close.
		if price.Cmp(domain.Zero) <= 0 {
			slog.Debug("Skipping non-positive candle", "symbol", code, "timestamp", candles.Timestamp[i])
			continue
		}
		points = append(points, domain.PricePoint{
			Date:  time.Unix(candles.Timestamp[i], 0).UTC(),
			Close: price,
		})
	}

	return domain.NewPriceSeries(code, points), nil
}
