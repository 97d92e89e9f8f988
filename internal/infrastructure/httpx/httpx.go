package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jmanzanog/market-snapshot/internal/domain"
)

// DefaultUserAgent identifies as a desktop browser; the portal serves an
// empty page to unknown clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/122.0 Safari/537.36"

const maxBodyBytes = 8 << 20

// Client is a small wrapper around http.Client that stamps every request with
// a User-Agent and default headers.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	Headers   map[string]string
}

func New(timeout time.Duration, userAgent string) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		HTTP:      &http.Client{Timeout: timeout, Transport: transport},
		UserAgent: userAgent,
	}
}

// NewWithHTTPClient wraps an existing client (for testing).
func NewWithHTTPClient(httpClient *http.Client) *Client {
	return &Client{HTTP: httpClient, UserAgent: DefaultUserAgent}
}

func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	for k, v := range c.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	return c.HTTP.Do(req)
}

// Get fetches rawURL and returns the body of a 2xx response along with its
// Content-Type, which callers need to decode non-UTF-8 pages. Failures are
// reported as *domain.FetchError of kind ErrTimeout or ErrNetwork.
func (c *Client) Get(ctx context.Context, source, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, "", domain.NewFetchError(source, domain.ErrNetwork, fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, "", domain.NewFetchError(source, Classify(err), fmt.Errorf("failed to execute request: %w", err))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close response body", "error", closeErr, "url", rawURL)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", domain.NewFetchError(source, domain.ErrNetwork, fmt.Errorf("GET %s returned status %d", rawURL, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", domain.NewFetchError(source, Classify(err), fmt.Errorf("failed to read body: %w", err))
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// Classify maps a transport error to ErrTimeout or ErrNetwork.
func Classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ErrTimeout
	}
	return domain.ErrNetwork
}
