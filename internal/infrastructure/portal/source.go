// Package portal scrapes FX rates and domestic index values from the
// financial portal's HTML pages.
package portal

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/jmanzanog/market-snapshot/internal/domain"
	"github.com/jmanzanog/market-snapshot/internal/infrastructure/httpx"
)

const (
	SourceFX            = "fx"
	SourceDomesticIndex = "domestic_index"

	DefaultFXURL    = "https://finance.naver.com/marketindex/"
	DefaultIndexURL = "https://finance.naver.com/sise/"
)

// ParseFunc extracts labelled items from a fetched page. Selector logic lives
// entirely behind this type so it can be swapped without touching fetching.
type ParseFunc func(doc *goquery.Document) ([]domain.ItemResult, error)

// PageSource fetches one HTML page per call and parses it into records.
// Nothing is cached between calls.
type PageSource struct {
	name   string
	url    string
	labels []string
	parse  ParseFunc
	client *httpx.Client
}

func NewPageSource(name, url string, labels []string, parse ParseFunc, client *httpx.Client) *PageSource {
	return &PageSource{
		name:   name,
		url:    url,
		labels: labels,
		parse:  parse,
		client: client,
	}
}

// NewFXSource scrapes the four recognized exchange rates.
func NewFXSource(url string, client *httpx.Client) *PageSource {
	return NewPageSource(SourceFX, url, FXLabels(), ParseFX, client)
}

// NewIndexSource scrapes the primary and secondary domestic indices.
func NewIndexSource(url string, client *httpx.Client) *PageSource {
	return NewPageSource(SourceDomesticIndex, url, DomesticIndices(), ParseDomesticIndices, client)
}

func (s *PageSource) Name() string { return s.name }

// Labels returns the fixed priority order of the records this source emits.
func (s *PageSource) Labels() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

func (s *PageSource) Fetch(ctx context.Context) ([]domain.ItemResult, error) {
	body, contentType, err := s.client.Get(ctx, s.name, s.url)
	if err != nil {
		return nil, err
	}

	// The portal serves EUC-KR; the charset comes from the header or a meta tag.
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, domain.NewFetchError(s.name, domain.ErrParse, fmt.Errorf("failed to decode %s: %w", contentType, err))
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, domain.NewFetchError(s.name, domain.ErrParse, fmt.Errorf("failed to parse html: %w", err))
	}

	items, err := s.parse(doc)
	if err != nil {
		return nil, domain.NewFetchError(s.name, domain.ErrParse, err)
	}
	return items, nil
}
