package portal

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jmanzanog/market-snapshot/internal/domain"
)

const (
	fxNameSelector  = "h3.h_lst span.blind"
	fxValueSelector = ".value"
)

// fxCurrency maps the portal's currency header text to the canonical label.
type fxCurrency struct {
	header string
	label  string
}

var fxCurrencies = []fxCurrency{
	{header: "미국 USD", label: "USD/KRW"},
	{header: "일본 JPY", label: "JPY/100KRW"},
	{header: "유럽연합 EUR", label: "EUR/KRW"},
	{header: "중국 CNY", label: "CNY/KRW"},
}

// FXLabels returns the canonical FX labels in display order.
func FXLabels() []string {
	labels := make([]string, len(fxCurrencies))
	for i, c := range fxCurrencies {
		labels[i] = c.label
	}
	return labels
}

// ParseFX pairs each currency header with the value element at the same
// position. Headers that are not one of the four recognized currencies are
// skipped; the result follows FXLabels order, not page order.
func ParseFX(doc *goquery.Document) ([]domain.ItemResult, error) {
	names := doc.Find(fxNameSelector)
	values := doc.Find(fxValueSelector)

	n := min(names.Length(), values.Length())
	if n == 0 {
		return nil, errors.New("no currency headers paired with values")
	}

	found := make(map[string]string, len(fxCurrencies))
	for i := 0; i < n; i++ {
		name := names.Eq(i).Text()
		label, ok := fxLabelFor(name)
		if !ok {
			continue
		}
		if _, dup := found[label]; dup {
			continue
		}
		found[label] = strings.TrimSpace(values.Eq(i).Text())
	}

	if len(found) == 0 {
		return nil, errors.New("no recognized currency on page")
	}

	items := make([]domain.ItemResult, 0, len(found))
	for _, c := range fxCurrencies {
		if v, ok := found[c.label]; ok {
			items = append(items, domain.ItemOK(domain.NewQuoteRecord(c.label, v, "")))
		}
	}
	return items, nil
}

func fxLabelFor(header string) (string, bool) {
	for _, c := range fxCurrencies {
		if strings.Contains(header, c.header) {
			return c.label, true
		}
	}
	return "", false
}
