package portal

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jmanzanog/market-snapshot/internal/domain"
)

// changeTextNode is the position of the human-readable change string inside
// the change container; the nodes before it are icon and label markup.
const changeTextNode = 2

var domesticIndices = []string{"KOSPI", "KOSDAQ"}

func DomesticIndices() []string {
	out := make([]string, len(domesticIndices))
	copy(out, domesticIndices)
	return out
}

// ParseDomesticIndices reads "#<NAME>_now" and "#<NAME>_change" for every
// domestic index. Any missing element fails the whole page.
func ParseDomesticIndices(doc *goquery.Document) ([]domain.ItemResult, error) {
	items := make([]domain.ItemResult, 0, len(domesticIndices))
	for _, name := range domesticIndices {
		rec, err := parseIndex(doc, name)
		if err != nil {
			return nil, err
		}
		items = append(items, domain.ItemOK(rec))
	}
	return items, nil
}

func parseIndex(doc *goquery.Document, name string) (domain.QuoteRecord, error) {
	now := doc.Find("#" + name + "_now").First()
	if now.Length() == 0 {
		return domain.QuoteRecord{}, fmt.Errorf("%s: value element #%s_now not found", name, name)
	}

	change := doc.Find("#" + name + "_change").First()
	if change.Length() == 0 {
		return domain.QuoteRecord{}, fmt.Errorf("%s: change element #%s_change not found", name, name)
	}

	nodes := change.Contents()
	if nodes.Length() <= changeTextNode {
		return domain.QuoteRecord{}, fmt.Errorf("%s: change element has %d nodes, want at least %d", name, nodes.Length(), changeTextNode+1)
	}
	changeText := strings.TrimSpace(nodes.Eq(changeTextNode).Text())

	return domain.NewQuoteRecord(name, strings.TrimSpace(now.Text()), changeText), nil
}
