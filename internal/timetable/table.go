package timetable

import (
	domerrors "github.com/garyellow/school-timetable-go/internal/errors"
	"github.com/garyellow/school-timetable-go/internal/htmldoc"
)

// TableResult collects the lessons and rejections of one class page.
type TableResult struct {
	Lessons  []Lesson
	Rows     int
	RowErrs  []*domerrors.RowParseError
	SlotErrs []*domerrors.SlotParseError
}

// ParseTable parses every row of a class page in order.
// Rows is zero when the page holds no timetable rows at all.
func (p *Parser) ParseTable(classRef string, root htmldoc.Node) TableResult {
	rows := root.Find(p.opts.RowSelector)
	result := TableResult{Rows: len(rows)}

	for i, row := range rows {
		rr := p.ParseRow(classRef, i, row)
		if rr.RowErr != nil {
			result.RowErrs = append(result.RowErrs, rr.RowErr)
			continue
		}
		result.Lessons = append(result.Lessons, rr.Lessons...)
		result.SlotErrs = append(result.SlotErrs, rr.SlotErrs...)
	}
	return result
}
