package timetable

// DayTracker maps the physical cells of a row to weekdays.
//
// A row normally has one cell per weekday. When it has more than
// DaysPerWeek cells, two adjacent cells with span 1 share one weekday, so
// the day only advances after an emitted lesson at a merge boundary.
type DayTracker struct {
	spans      []int
	current    int
	compensate bool
}

// NewDayTracker starts a row whose day cells (time cell excluded) have the
// given spans.
func NewDayTracker(spans []int) *DayTracker {
	return &DayTracker{
		spans:      spans,
		current:    1,
		compensate: len(spans) > DaysPerWeek,
	}
}

// Day returns the zero-based weekday of the next cell.
func (t *DayTracker) Day() int {
	return t.current - 1
}

// InRange reports whether Day is a valid weekday.
func (t *DayTracker) InRange() bool {
	return t.Day() >= 0 && t.Day() < DaysPerWeek
}

// Skip advances past an empty or rejected cell.
func (t *DayTracker) Skip() {
	t.current++
}

// Emitted advances past cell i after it produced a lesson.
func (t *DayTracker) Emitted(i int) {
	if !t.compensate {
		t.current++
		return
	}
	if i+1 >= len(t.spans) {
		return
	}
	if !(t.spans[i] == 1 && t.spans[i+1] == 1) {
		t.current++
	}
}
