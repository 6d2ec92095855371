package timetable

import "fmt"

// CellMode selects how a cell's paragraphs become tokens.
type CellMode string

const (
	// CellModeFlat makes each paragraph's whole text one token.
	CellModeFlat CellMode = "flat"
	// CellModeLink splits paragraphs into link texts and the text runs between them.
	CellModeLink CellMode = "link"
)

// EndTimePolicy selects how lesson end times are computed.
type EndTimePolicy string

const (
	// EndTimeFixed adds a per-row-position duration to the start time.
	EndTimeFixed EndTimePolicy = "fixed"
	// EndTimeDeferred leaves end times empty for a PeriodSchedule to fill.
	EndTimeDeferred EndTimePolicy = "deferred"
)

// FourTokenPolicy selects how a four-token cell splits into teacher and room.
type FourTokenPolicy string

const (
	// FourTokenHeuristic assigns tokens 2 and 3 by the classroom heuristic.
	FourTokenHeuristic FourTokenPolicy = "heuristic"
	// FourTokenPositional takes token 2 as second teacher and token 3 as room.
	FourTokenPositional FourTokenPolicy = "positional"
)

// DefaultDurations are the lesson lengths in minutes by row position.
var DefaultDurations = []int{50, 60, 55, 55, 55, 55, 50}

// DefaultDuration applies to rows beyond DefaultDurations.
const DefaultDuration = 50

// Default selectors for the class page layout.
const (
	DefaultRowSelector       = "tbody tr"
	DefaultCellSelector      = "td"
	DefaultParagraphSelector = "p"
)

// Options configures a Parser.
type Options struct {
	CellMode          CellMode
	EndTimePolicy     EndTimePolicy
	FourTokenPolicy   FourTokenPolicy
	Durations         []int
	DefaultDuration   int
	RowSelector       string
	CellSelector      string
	ParagraphSelector string
}

// DefaultOptions returns the options matching the current site layout.
func DefaultOptions() Options {
	return Options{
		CellMode:          CellModeLink,
		EndTimePolicy:     EndTimeFixed,
		FourTokenPolicy:   FourTokenHeuristic,
		Durations:         DefaultDurations,
		DefaultDuration:   DefaultDuration,
		RowSelector:       DefaultRowSelector,
		CellSelector:      DefaultCellSelector,
		ParagraphSelector: DefaultParagraphSelector,
	}
}

// Validate checks enum fields.
func (o Options) Validate() error {
	switch o.CellMode {
	case CellModeFlat, CellModeLink:
	default:
		return fmt.Errorf("unknown cell mode %q", o.CellMode)
	}
	switch o.EndTimePolicy {
	case EndTimeFixed, EndTimeDeferred:
	default:
		return fmt.Errorf("unknown end time policy %q", o.EndTimePolicy)
	}
	switch o.FourTokenPolicy {
	case FourTokenHeuristic, FourTokenPositional:
	default:
		return fmt.Errorf("unknown four-token policy %q", o.FourTokenPolicy)
	}
	for i, d := range o.Durations {
		if d <= 0 {
			return fmt.Errorf("duration %d must be positive, got %d", i, d)
		}
	}
	return nil
}

// withDefaults fills zero values.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.CellMode == "" {
		o.CellMode = def.CellMode
	}
	if o.EndTimePolicy == "" {
		o.EndTimePolicy = def.EndTimePolicy
	}
	if o.FourTokenPolicy == "" {
		o.FourTokenPolicy = def.FourTokenPolicy
	}
	if o.Durations == nil {
		o.Durations = def.Durations
	}
	if o.DefaultDuration <= 0 {
		o.DefaultDuration = def.DefaultDuration
	}
	if o.RowSelector == "" {
		o.RowSelector = def.RowSelector
	}
	if o.CellSelector == "" {
		o.CellSelector = def.CellSelector
	}
	if o.ParagraphSelector == "" {
		o.ParagraphSelector = def.ParagraphSelector
	}
	return o
}
