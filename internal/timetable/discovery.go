package timetable

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	domerrors "github.com/garyellow/school-timetable-go/internal/errors"
	"github.com/garyellow/school-timetable-go/internal/htmldoc"
	"github.com/garyellow/school-timetable-go/internal/stringutil"
)

// DefaultClassLinkSelector matches the class links on the index page.
const DefaultClassLinkSelector = `a.mathema[href$=".html"]`

// classNamePattern accepts names such as "3^AINF", "5BINF" or "1A-ELE".
var classNamePattern = regexp.MustCompile(`^\d\^?[A-Z]+(?:-[A-Z]+)?$`)

// IsClassName reports whether text is a valid class link label.
func IsClassName(text string) bool {
	return classNamePattern.MatchString(text)
}

// NormalizeClassName strips a trailing ".html" and every dash.
func NormalizeClassName(text string) string {
	return strings.ReplaceAll(strings.TrimSuffix(text, ".html"), "-", "")
}

// DiscoverSources extracts class sources from the index page in document
// order. Relative hrefs are resolved against base. An empty result is a
// *errors.DiscoveryError.
func DiscoverSources(root htmldoc.Node, base *url.URL, selector string) ([]Source, error) {
	if selector == "" {
		selector = DefaultClassLinkSelector
	}
	indexURL := ""
	if base != nil {
		indexURL = base.String()
	}

	var sources []Source
	for _, link := range root.Find(selector) {
		text := stringutil.CleanText(link.Text())
		href, ok := link.Attr("href")
		if !ok || href == "" || !IsClassName(text) {
			continue
		}

		resolved, err := resolve(base, href)
		if err != nil {
			slog.Debug("Skipping class link with invalid href",
				"text", text,
				"href", href,
				"error", err)
			continue
		}

		sources = append(sources, Source{
			Name: NormalizeClassName(text),
			URL:  resolved,
		})
	}

	if len(sources) == 0 {
		return nil, domerrors.NewDiscoveryError(indexURL, domerrors.ErrNoClassLinks)
	}
	return sources, nil
}

func resolve(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	if base == nil {
		return ref.String(), nil
	}
	return base.ResolveReference(ref).String(), nil
}

// DedupSources drops sources whose URL was already seen, keeping the first.
func DedupSources(sources []Source) []Source {
	if len(sources) == 0 {
		return sources
	}

	seen := make(map[string]bool, len(sources))
	result := make([]Source, 0, len(sources))
	for _, src := range sources {
		if !seen[src.URL] {
			seen[src.URL] = true
			result = append(result, src)
		}
	}
	return result
}
