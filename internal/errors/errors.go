// Package errors provides the error taxonomy of the timetable pipeline.
//
// Each stage reports a typed error carrying enough context (class name, row
// index, day index, offending tokens) to diagnose malformed source markup.
// DiscoveryError and ErrNothingSeeded are fatal; every other type is caught
// at the class, row or slot boundary by the caller.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates a caller provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoClassLinks indicates the index document held no class links.
	ErrNoClassLinks = errors.New("no class links found")

	// ErrUnparseableTime indicates a row's start-time cell could not be parsed.
	ErrUnparseableTime = errors.New("unparseable start time")

	// ErrInsufficientTokens indicates a cell held fewer tokens than a lesson needs.
	ErrInsufficientTokens = errors.New("insufficient lesson data")

	// ErrMissingSubject indicates classification left the subject empty.
	ErrMissingSubject = errors.New("missing subject")

	// ErrMissingTeacher indicates classification left the primary teacher empty.
	ErrMissingTeacher = errors.New("missing teacher")

	// ErrDayOutOfRange indicates the day tracker left the Monday..Friday window
	// or repeated a day already emitted in the same row.
	ErrDayOutOfRange = errors.New("day index out of range")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrNothingSeeded indicates classes were discovered but none of them
	// produced a usable timetable.
	ErrNothingSeeded = errors.New("no class could be seeded")
)

// DiscoveryError reports that the index stage produced no usable class.
// It is fatal for the whole run.
type DiscoveryError struct {
	IndexURL string
	Err      error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery failed (index=%s): %v", e.IndexURL, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// NewDiscoveryError creates a new discovery error.
func NewDiscoveryError(indexURL string, err error) *DiscoveryError {
	return &DiscoveryError{
		IndexURL: indexURL,
		Err:      err,
	}
}

// FetchError represents a document retrieval failure.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error (url=%s, status=%d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error (url=%s): %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new fetch error.
func NewFetchError(url string, statusCode int, err error) *FetchError {
	return &FetchError{
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

// RowParseError reports a row that contributes no lessons.
type RowParseError struct {
	Row int
	Raw string
	Err error
}

func (e *RowParseError) Error() string {
	return fmt.Sprintf("row %d: %v (raw=%q)", e.Row, e.Err, e.Raw)
}

func (e *RowParseError) Unwrap() error {
	return e.Err
}

// NewRowParseError creates a new row parse error.
func NewRowParseError(row int, raw string, err error) *RowParseError {
	return &RowParseError{
		Row: row,
		Raw: raw,
		Err: err,
	}
}

// SlotParseError reports a single cell that contributes no lesson.
// Day is zero-based (Monday = 0).
type SlotParseError struct {
	Row    int
	Day    int
	Tokens []string
	Err    error
}

func (e *SlotParseError) Error() string {
	return fmt.Sprintf("row %d, day %d: %v [%s]", e.Row, e.Day, e.Err, strings.Join(e.Tokens, " | "))
}

func (e *SlotParseError) Unwrap() error {
	return e.Err
}

// NewSlotParseError creates a new slot parse error.
func NewSlotParseError(row, day int, tokens []string, err error) *SlotParseError {
	return &SlotParseError{
		Row:    row,
		Day:    day,
		Tokens: tokens,
		Err:    err,
	}
}

// PersistenceError represents a write failure for one class.
type PersistenceError struct {
	Class     string
	Operation string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error (class=%s, op=%s): %v", e.Class, e.Operation, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError creates a new persistence error.
func NewPersistenceError(class, operation string, err error) *PersistenceError {
	return &PersistenceError{
		Class:     class,
		Operation: operation,
		Err:       err,
	}
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput reports whether err wraps ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsFatal reports whether err must abort the whole run.
func IsFatal(err error) bool {
	var discoveryErr *DiscoveryError
	return errors.As(err, &discoveryErr) || errors.Is(err, ErrNothingSeeded)
}

// IsFetchError reports whether err is (or wraps) a FetchError.
func IsFetchError(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr)
}

// IsPersistenceError reports whether err is (or wraps) a PersistenceError.
func IsPersistenceError(err error) bool {
	var persistErr *PersistenceError
	return errors.As(err, &persistErr)
}

// SlotReason maps a slot error to a short label for metrics.
func SlotReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientTokens):
		return "insufficient_tokens"
	case errors.Is(err, ErrMissingSubject):
		return "missing_subject"
	case errors.Is(err, ErrMissingTeacher):
		return "missing_teacher"
	case errors.Is(err, ErrDayOutOfRange):
		return "day_out_of_range"
	default:
		return "other"
	}
}
