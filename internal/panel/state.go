package panel

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Veraticus/visitor-sync/internal/model"
)

// ParseCurrentState reads the visitor table from a panel page: the first
// cell of each body row is the location, the third the visitors so far.
// Pages without such a table yield an empty result.
func ParseCurrentState(body string) []model.VisitorCount {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return []model.VisitorCount{}
	}

	counts := make([]model.VisitorCount, 0)
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		counts = append(counts, model.VisitorCount{
			Location: strings.TrimSpace(cells.Eq(0).Text()),
			Visitors: strings.TrimSpace(cells.Eq(2).Text()),
		})
	})

	return counts
}
