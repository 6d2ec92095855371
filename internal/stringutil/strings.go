// Package stringutil provides the text normalization shared by the timetable
// parser, the notice scraper and the discovery stage.
package stringutil

import (
	"strings"
	"unicode"
)

// nbsp is the rune produced by &nbsp; entities after HTML decoding.
const nbsp = '\u00a0'

// CleanText removes non-breaking spaces and trims surrounding whitespace.
// Timetable generators pad empty cells with &nbsp;, so a fragment made only
// of them collapses to the empty string.
//
// Example:
//
//	CleanText("\u00a0 Rossi\u00a0") returns "Rossi"
//	CleanText("\u00a0\u00a0") returns ""
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	if strings.ContainsRune(s, nbsp) {
		s = strings.ReplaceAll(s, string(nbsp), "")
	}
	return strings.TrimSpace(s)
}

// IsNumeric checks if a string contains only ASCII digits.
// Returns false for empty strings.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ContainsDigit reports whether s contains at least one decimal digit.
func ContainsDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// LeftPad pads s with the pad rune on the left until it is at least width
// runes long.
func LeftPad(s string, width int, pad rune) string {
	n := width - len([]rune(s))
	if n <= 0 {
		return s
	}
	return strings.Repeat(string(pad), n) + s
}
