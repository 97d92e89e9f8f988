package yfinance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jmanzanog/market-snapshot/internal/domain"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/httpx"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/marketdata"
)

const (
	Name = "yfinance"

	defaultBaseURL = "http://localhost:8000"
	historyPath    = "/api/v1/history"
	listingPath    = "/api/v1/listing"
)

// Client implements marketdata.HistoryProvider and ListingProvider against the Market Data
// Service, a small Python microservice exposing daily price history and full
// exchange listings over REST.
type Client struct {
	baseURL string
	client  *httpx.Client
}

// NewClient creates a new Market Data Service client with default settings.
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client:  httpx.New(10*time.Second, ""),
	}
}

// NewClientWithBaseURL creates a new client with a custom base URL (useful for K8s deployments).
// An empty baseURL selects the local default.
func NewClientWithBaseURL(baseURL string, client *httpx.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  client,
	}
}

// SetBaseURL sets the base URL for the API (useful for testing).
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// IndexSymbols returns the service's codes for the foreign indices.
func (c *Client) IndexSymbols() []marketdata.IndexSymbol {
	return []marketdata.IndexSymbol{
		{Label: "Dow Jones", Code: "DJI"},
		{Label: "NASDAQ", Code: "IXIC"},
		{Label: "S&P500", Code: "US500"},
	}
}

// historyResponse represents the response from the history endpoint.
type historyResponse struct {
	Symbol string `json:"symbol"`
	Prices []struct {
		Date  string         `json:"date"`
		Close domain.Decimal `json:"close"`
	} `json:"prices"`
}

// listingResponse represents the response from the listing endpoint.
type listingResponse struct {
	Market      string `json:"market"`
	Instruments []struct {
		Code   string `json:"code"`
		Name   string `json:"name"`
		Market string `json:"market"`
	} `json:"instruments"`
}

// errorResponse represents an error response from the API.
type errorResponse struct {
	Detail string `json:"detail"`
}

// History retrieves daily closes for code between start and end inclusive.
func (c *Client) History(ctx context.Context, code string, start, end time.Time) (domain.PriceSeries, error) {
	params := url.Values{}
	params.Add("start", start.Format(marketdata.DateLayout))
	params.Add("end", end.Format(marketdata.DateLayout))

	reqURL := fmt.Sprintf("%s%s/%s?%s", c.baseURL, historyPath, url.PathEscape(code), params.Encode())

	var histResp historyResponse
	if err := c.getJSON(ctx, reqURL, &histResp); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("history for %s: %w", code, err)
	}

	points := make([]domain.PricePoint, 0, len(histResp.Prices))
	for _, p := range histResp.Prices {
		date, err := time.Parse(marketdata.DateLayout, p.Date)
		if err != nil {
			return domain.PriceSeries{}, domain.NewFetchError(Name, domain.ErrParse, fmt.Errorf("invalid date %q for %s: %w", p.Date, code, err))
		}
		points = append(points, domain.PricePoint{Date: date, Close: p.Close})
	}

	return domain.NewPriceSeries(code, points), nil
}

// Listing retrieves the full instrument listing of a market, e.g. "KRX"
// (all domestic boards combined).
func (c *Client) Listing(ctx context.Context, market string) ([]domain.Instrument, error) {
	reqURL := fmt.Sprintf("%s%s/%s", c.baseURL, listingPath, url.PathEscape(market))

	var listResp listingResponse
	if err := c.getJSON(ctx, reqURL, &listResp); err != nil {
		return nil, fmt.Errorf("listing for %s: %w", market, err)
	}

	instruments := make([]domain.Instrument, 0, len(listResp.Instruments))
	for _, i := range listResp.Instruments {
		inst := domain.NewInstrument(i.Code, i.Name, i.Market)
		if !inst.IsValid() {
			slog.Debug("Skipping invalid listing row", "market", market, "code", i.Code, "name", i.Name)
			continue
		}
		instruments = append(instruments, inst)
	}

	return instruments, nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return domain.NewFetchError(Name, httpx.Classify(err), fmt.Errorf("failed to execute request: %w", err))
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close response body", "error", closeErr, "url", reqURL)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return domain.NewFetchError(Name, domain.ErrNotFound, nil)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Detail != "" {
			return domain.NewFetchError(Name, domain.ErrNetwork, fmt.Errorf("API error: %s", errResp.Detail))
		}
		return domain.NewFetchError(Name, domain.ErrNetwork, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewFetchError(Name, domain.ErrParse, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
