package timetable

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/garyellow/school-timetable-go/internal/stringutil"
)

// ParseStartTime converts a "H.MM" cell into "HH:MM".
// Returns "" when the hour or minute part is missing or not numeric.
func ParseStartTime(raw string) string {
	hour, minute, ok := strings.Cut(stringutil.CleanText(raw), ".")
	if !ok {
		return ""
	}
	hour = strings.TrimSpace(hour)
	minute = strings.TrimSpace(minute)
	if !stringutil.IsNumeric(hour) || !stringutil.IsNumeric(minute) {
		return ""
	}
	return stringutil.LeftPad(hour, 2, '0') + ":" + stringutil.LeftPad(minute, 2, '0')
}

// EndTimeCalculator computes lesson end times from start times.
type EndTimeCalculator struct {
	Policy          EndTimePolicy
	Durations       []int
	DefaultDuration int
}

// Duration returns the lesson length in minutes for a row position.
func (c EndTimeCalculator) Duration(rowPosition int) int {
	if rowPosition >= 0 && rowPosition < len(c.Durations) {
		return c.Durations[rowPosition]
	}
	if c.DefaultDuration > 0 {
		return c.DefaultDuration
	}
	return DefaultDuration
}

// EndTime returns the end of the lesson starting at start ("HH:MM") in the
// given row position. Returns "" under the deferred policy or when start is
// malformed. The hour is never wrapped past midnight.
func (c EndTimeCalculator) EndTime(rowPosition int, start string) string {
	if c.Policy == EndTimeDeferred {
		return ""
	}
	return AddMinutes(start, c.Duration(rowPosition))
}

// AddMinutes adds minutes to an "HH:MM" time, carrying overflow into the hour.
func AddMinutes(start string, minutes int) string {
	hourText, minuteText, ok := strings.Cut(start, ":")
	if !ok {
		return ""
	}
	hour, err := strconv.Atoi(hourText)
	if err != nil {
		return ""
	}
	minute, err := strconv.Atoi(minuteText)
	if err != nil {
		return ""
	}

	minute += minutes
	for minute >= 60 {
		minute -= 60
		hour++
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
