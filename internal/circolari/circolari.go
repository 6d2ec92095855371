// Package circolari scrapes the school notice board.
package circolari

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/garyellow/school-timetable-go/internal/htmldoc"
	"github.com/garyellow/school-timetable-go/internal/stringutil"
)

// FetchKind labels notice board requests in scraper metrics.
const FetchKind = "circolari"

// Selectors for the notice board table.
const (
	rowSelector   = "#table-documenti tbody tr"
	titleSelector = "td:nth-child(2) span"
	dateSelector  = "td:nth-child(2) > span:nth-child(4)"
	fileSelector  = "td:nth-child(3) div.link-to-file"
	docIDAttr     = "id_doc"
)

// Circolare is one notice.
type Circolare struct {
	ID    string `json:"id"`
	Date  string `json:"date"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Fetcher retrieves and parses one HTML document.
type Fetcher interface {
	FetchDocument(ctx context.Context, kind, rawURL string) (*htmldoc.Document, error)
}

// Service lists notices from a configured board.
type Service struct {
	fetcher     Fetcher
	listURL     string
	docTemplate string
}

// NewService creates a Service. docTemplate is a fmt template with one %s
// for the document ID.
func NewService(fetcher Fetcher, listURL, docTemplate string) *Service {
	return &Service{fetcher: fetcher, listURL: listURL, docTemplate: docTemplate}
}

// List fetches the board and returns its notices in page order.
func (s *Service) List(ctx context.Context) ([]Circolare, error) {
	doc, err := s.fetcher.FetchDocument(ctx, FetchKind, s.listURL)
	if err != nil {
		return nil, fmt.Errorf("fetch notice board: %w", err)
	}
	return Parse(doc.Root(), s.docTemplate), nil
}

// Parse extracts notices from the board page. The first row is a header.
// Rows missing a title, date or document ID are skipped.
func Parse(root htmldoc.Node, docTemplate string) []Circolare {
	rows := root.Find(rowSelector)
	out := make([]Circolare, 0, max(len(rows)-1, 0))

	for i, row := range rows {
		if i == 0 {
			continue
		}

		title := joinedText(row.Find(titleSelector))
		date := joinedText(row.Find(dateSelector))
		id := ""
		if files := row.Find(fileSelector); len(files) > 0 {
			id, _ = files[0].Attr(docIDAttr)
			id = strings.TrimSpace(id)
		}
		if title == "" || date == "" || id == "" {
			continue
		}

		out = append(out, Circolare{
			ID:    id,
			Date:  date,
			Title: title,
			URL:   fmt.Sprintf(docTemplate, url.QueryEscape(id)),
		})
	}
	return out
}

// joinedText concatenates the text of nodes, like a multi-node selection.
func joinedText(nodes []htmldoc.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.Text())
	}
	return stringutil.CleanText(b.String())
}
