package timetable

import (
	"errors"
	"fmt"
	"strings"
)

// Period is one class period of the school day.
type Period struct {
	Start string
	End   string
}

// PeriodSchedule fills deferred end times from a fixed list of periods.
type PeriodSchedule struct {
	ends map[string]string
}

// ParsePeriodSchedule parses entries of the form "HH:MM-HH:MM".
func ParsePeriodSchedule(entries []string) (*PeriodSchedule, error) {
	s := &PeriodSchedule{ends: make(map[string]string, len(entries))}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		start, end, ok := strings.Cut(entry, "-")
		if !ok {
			return nil, fmt.Errorf("period %q: expected HH:MM-HH:MM", entry)
		}
		p, err := normalizePeriod(start, end)
		if err != nil {
			return nil, fmt.Errorf("period %q: %w", entry, err)
		}
		s.ends[p.Start] = p.End
	}
	return s, nil
}

func normalizePeriod(start, end string) (Period, error) {
	s := AddMinutes(strings.TrimSpace(start), 0)
	e := AddMinutes(strings.TrimSpace(end), 0)
	if s == "" || e == "" {
		return Period{}, errors.New("invalid time")
	}
	if e <= s {
		return Period{}, fmt.Errorf("end %s is not after start %s", e, s)
	}
	return Period{Start: s, End: e}, nil
}

// Len returns the number of periods.
func (s *PeriodSchedule) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ends)
}

// EndOf returns the end of the period starting at start.
func (s *PeriodSchedule) EndOf(start string) (string, bool) {
	if s == nil {
		return "", false
	}
	end, ok := s.ends[start]
	return end, ok
}

// Fill returns a copy of lessons with empty end times completed from the
// schedule. Lessons whose start matches no period keep an empty end time.
func (s *PeriodSchedule) Fill(lessons []Lesson) []Lesson {
	out := make([]Lesson, len(lessons))
	for i, l := range lessons {
		if l.EndTime == "" {
			if end, ok := s.EndOf(l.StartTime); ok {
				l.EndTime = end
			}
		}
		out[i] = l
	}
	return out
}
