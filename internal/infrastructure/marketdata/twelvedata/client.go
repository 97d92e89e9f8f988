package twelvedata

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
	"github.com/shopspring/decimal"
)

const (
	Name = "twelvedata"

	defaultBaseURL = "https://api.twelvedata.com"
	timeSeriesPath = "/time_series"
	dailyInterval  = "1day"
)

type Client struct {
	baseURL string
	apiKey  string
	client  *httpx.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		client:  httpx.New(10*time.Second, ""),
	}
}

// NewClientWithHTTPClient creates a client sharing the caller's HTTP settings.
func NewClientWithHTTPClient(apiKey string, client *httpx.Client) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		client:  client,
	}
}

func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

func (c *Client) IndexSymbols() []marketdata.IndexSymbol {
	return []marketdata.IndexSymbol{
		{Label: "Dow Jones", Code: "DJI"},
		{Label: "NASDAQ", Code: "IXIC"},
		{Label: "S&P500", Code: "SPX"},
	}
}

type timeSeriesResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []struct {
		Datetime string `json:"datetime"`
		Close    string `json:"close"`
	} `json:"values"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) History(ctx context.Context, code string, start, end time.Time) (domain.PriceSeries, error) {
	params := url.Values{}
	params.Add("symbol", code)
	params.Add("interval", dailyInterval)
	params.Add("start_date", start.Format(marketdata.DateLayout))
	params.Add("end_date", end.Format(marketdata.DateLayout))
	params.Add("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, timeSeriesPath, params.Encode())

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

	var tsResp timeSeriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&tsResp); err != nil {
		return domain.PriceSeries{}, domain.NewFetchError(Name, domain.ErrParse, fmt.Errorf("failed to decode response: %w", err))
	}

	// Twelve Data reports API errors in the body with HTTP 200.
	if tsResp.Status == "error" {
		kind := domain.ErrNetwork
		if tsResp.Code == http.StatusNotFound {
			kind = domain.ErrNotFound
		}
		return domain.PriceSeries{}, domain.NewFetchError(Name, kind, fmt.Errorf("time series request failed for symbol %s: %s", code, tsResp.Message))
	}

	points := make([]domain.PricePoint, 0, len(tsResp.Values))
	for _, v := range tsResp.Values {
		point, err := parseValue(v.Datetime, v.Close)
		if err != nil {
			return domain.PriceSeries{}, domain.NewFetchError(Name, domain.ErrParse, fmt.Errorf("symbol %s: %w", code, err))
		}
		points = append(points, point)
	}

	// Values arrive newest first; NewPriceSeries sorts them.
	return domain.NewPriceSeries(code, points), nil
}

func parseValue(datetime, closeText string) (domain.PricePoint, error) {
	// Daily bars carry a bare date, intraday ones a time too.
	date, err := time.Parse(marketdata.DateLayout, datetime)
	if err != nil {
		date, err = time.Parse(time.DateTime, datetime)
		if err != nil {
			return domain.PricePoint{}, fmt.Errorf("invalid datetime %q: %w", datetime, err)
		}
	}

	price, err := decimal.NewFromString(closeText)
	if err != nil {
		return domain.PricePoint{}, fmt.Errorf("failed to parse price: %w", err)
	}

	closePrice, err := domain.NewDecimalFromString(price.String())
	if err != nil {
		return domain.PricePoint{}, err
	}
	return domain.PricePoint{Date: date, Close: closePrice}, nil
}
