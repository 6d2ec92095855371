// Package timetable turns the per-class HTML tables of a school timetable site
// into discrete weekly lesson records.
//
// The package performs no I/O. Callers hand it parsed documents through the
// htmldoc.Node interface and receive ordered []Lesson values together with
// the row and slot errors that explain what was dropped.
package timetable

import "strings"

// DaysPerWeek is the number of weekdays (Monday..Friday) a row can address.
const DaysPerWeek = 5

// Source is a class discovered on the index page.
type Source struct {
	Name string
	URL  string
}

// TokenKind tags where a token came from inside a cell.
type TokenKind int

const (
	// TokenText is a plain-text run or a whole paragraph.
	TokenText TokenKind = iota
	// TokenLink is the text of an embedded <a>.
	TokenLink
)

// Token is a cleaned, non-empty text fragment of a cell.
type Token struct {
	Text string
	Kind TokenKind
}

// TokenTexts returns the text of each token, for logging.
func TokenTexts(tokens []Token) []string {
	texts := make([]string, len(tokens))
	for i, tok := range tokens {
		texts[i] = tok.Text
	}
	return texts
}

// Fields is the classified content of one cell.
type Fields struct {
	Subject  string
	Teachers []string
	Room     string
}

// Teacher joins the non-empty teacher names with ", ".
func (f Fields) Teacher() string {
	names := make([]string, 0, len(f.Teachers))
	for _, name := range f.Teachers {
		if name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

// Lesson is one scheduled slot of a class.
// Day is zero-based (Monday = 0). EndTime is empty under the deferred policy
// until a PeriodSchedule fills it.
type Lesson struct {
	ClassRef  string `json:"classRef"`
	Day       int    `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Subject   string `json:"subject"`
	Teacher   string `json:"teacher"`
	Room      string `json:"room"`
}
