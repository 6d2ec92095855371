package timetable

import (
	"strconv"
	"strings"

	domerrors "github.com/garyellow/school-timetable-go/internal/errors"
	"github.com/garyellow/school-timetable-go/internal/htmldoc"
	"github.com/garyellow/school-timetable-go/internal/stringutil"
)

// Parser extracts lessons from class timetable tables.
type Parser struct {
	opts       Options
	classifier Classifier
	endTimes   EndTimeCalculator
}

// NewParser creates a parser. Zero-valued options take their defaults.
func NewParser(opts Options) *Parser {
	opts = opts.withDefaults()
	return &Parser{
		opts:       opts,
		classifier: Classifier{FourTokenPolicy: opts.FourTokenPolicy},
		endTimes: EndTimeCalculator{
			Policy:          opts.EndTimePolicy,
			Durations:       opts.Durations,
			DefaultDuration: opts.DefaultDuration,
		},
	}
}

// Options returns the effective options.
func (p *Parser) Options() Options {
	return p.opts
}

// RowResult is the outcome of one row.
// RowErr is set when the whole row was abandoned.
type RowResult struct {
	Lessons  []Lesson
	RowErr   *domerrors.RowParseError
	SlotErrs []*domerrors.SlotParseError
}

// ParseRow extracts the lessons of one <tr>. rowIndex is the row's position
// in the table and selects the lesson duration. A row without cells yields
// an empty result.
func (p *Parser) ParseRow(classRef string, rowIndex int, row htmldoc.Node) RowResult {
	cells := row.Find(p.opts.CellSelector)
	if len(cells) == 0 {
		return RowResult{}
	}

	rawTime := stringutil.CleanText(cells[0].Text())
	start := ParseStartTime(rawTime)
	if start == "" {
		return RowResult{RowErr: domerrors.NewRowParseError(rowIndex, rawTime, domerrors.ErrUnparseableTime)}
	}
	end := p.endTimes.EndTime(rowIndex, start)

	dayCells := cells[1:]
	spans := make([]int, len(dayCells))
	for i, cell := range dayCells {
		spans[i] = Span(cell)
	}
	tracker := NewDayTracker(spans)

	var result RowResult
	lastDay := -1
	for i, cell := range dayCells {
		tokens := DecomposeCell(cell, p.opts.CellMode, p.opts.ParagraphSelector)
		if len(tokens) == 0 {
			tracker.Skip()
			continue
		}

		fields, err := p.classifier.Classify(tokens)
		if err != nil {
			result.SlotErrs = append(result.SlotErrs,
				domerrors.NewSlotParseError(rowIndex, tracker.Day(), TokenTexts(tokens), err))
			tracker.Skip()
			continue
		}

		day := tracker.Day()
		if !tracker.InRange() || day <= lastDay {
			result.SlotErrs = append(result.SlotErrs,
				domerrors.NewSlotParseError(rowIndex, day, TokenTexts(tokens), domerrors.ErrDayOutOfRange))
			tracker.Emitted(i)
			continue
		}

		result.Lessons = append(result.Lessons, Lesson{
			ClassRef:  classRef,
			Day:       day,
			StartTime: start,
			EndTime:   end,
			Subject:   fields.Subject,
			Teacher:   fields.Teacher(),
			Room:      fields.Room,
		})
		lastDay = day
		tracker.Emitted(i)
	}
	return result
}

// Span returns a cell's colspan, or 1 when absent or invalid.
func Span(cell htmldoc.Node) int {
	raw, ok := cell.Attr("colspan")
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
