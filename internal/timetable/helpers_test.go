package timetable

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/garyellow/school-timetable-go/internal/htmldoc"
)

// parseDoc parses markup or fails the test.
func parseDoc(t *testing.T, markup string) *htmldoc.Document {
	t.Helper()
	doc, err := htmldoc.ParseString(markup)
	require.NoError(t, err)
	return doc
}

// mustCell returns the single <td> built from inner markup.
func mustCell(t *testing.T, inner string) htmldoc.Node {
	t.Helper()
	cells := parseDoc(t, "<table><tbody><tr><td>"+inner+"</td></tr></tbody></table>").Find("td")
	require.Len(t, cells, 1)
	return cells[0]
}

// lessonCell renders one paragraph per token. Tokens prefixed with "@" are
// rendered as links.
func lessonCell(colspan int, tokens ...string) string {
	var b strings.Builder
	if colspan > 1 {
		fmt.Fprintf(&b, `<td colspan="%d">`, colspan)
	} else {
		b.WriteString("<td>")
	}
	for _, tok := range tokens {
		if name, ok := strings.CutPrefix(tok, "@"); ok {
			fmt.Fprintf(&b, `<p><a href="docenti/%s.html">%s</a></p>`, name, name)
			continue
		}
		fmt.Fprintf(&b, "<p>%s</p>", tok)
	}
	b.WriteString("</td>")
	return b.String()
}

// emptyCell is a slot with no lesson scheduled.
const emptyCell = "<td><p>&nbsp;</p></td>"

// tableHTML wraps rows (time cell first) in a class page.
func tableHTML(rows ...[]string) string {
	var b strings.Builder
	b.WriteString("<html><body><table><tbody>")
	for _, cells := range rows {
		b.WriteString("<tr>")
		for _, c := range cells {
			b.WriteString(c)
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table></body></html>")
	return b.String()
}

// firstRow returns the first <tr> of markup.
func firstRow(t *testing.T, markup string) htmldoc.Node {
	t.Helper()
	rows := parseDoc(t, markup).Find("tbody tr")
	require.NotEmpty(t, rows)
	return rows[0]
}
