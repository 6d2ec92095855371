package timetable

import (
	"strings"

	domerrors "github.com/garyellow/school-timetable-go/internal/errors"
	"github.com/garyellow/school-timetable-go/internal/stringutil"
)

// classroomKeywords mark a fragment as a room when found in its uppercase form.
var classroomKeywords = []string{"LAB", "SCIENZE", "PAL", "TE", "AULA", "ROOM", "PALAESTRA"}

// LooksLikeClassroom reports whether text names a room: it contains a room
// keyword (case-insensitive) or any digit.
func LooksLikeClassroom(text string) bool {
	if text == "" {
		return false
	}
	upper := strings.ToUpper(text)
	for _, keyword := range classroomKeywords {
		if strings.Contains(upper, keyword) {
			return true
		}
	}
	return stringutil.ContainsDigit(text)
}

// Classifier assigns subject, teachers and room to a cell's tokens.
type Classifier struct {
	FourTokenPolicy FourTokenPolicy
}

// Classify maps tokens to fields by count. The first token is always the
// subject. Errors wrap ErrInsufficientTokens, ErrMissingSubject or
// ErrMissingTeacher.
func (c Classifier) Classify(tokens []Token) (Fields, error) {
	if len(tokens) < 2 {
		return Fields{}, domerrors.ErrInsufficientTokens
	}

	texts := TokenTexts(tokens)
	fields := Fields{Subject: texts[0]}
	teacher1 := texts[1]
	var teacher2 string

	switch len(texts) {
	case 2:
	case 3:
		if LooksLikeClassroom(texts[2]) {
			fields.Room = texts[2]
		} else {
			teacher2 = texts[2]
		}
	case 4:
		teacher2, fields.Room = c.splitFour(texts[2], texts[3])
	default:
		// Five or more: the room is split across the trailing fragments.
		teacher2 = texts[2]
		fields.Room = strings.Join(texts[3:], "")
	}

	fields.Teachers = []string{teacher1}
	if teacher2 != "" {
		fields.Teachers = append(fields.Teachers, teacher2)
	}

	if fields.Subject == "" {
		return Fields{}, domerrors.ErrMissingSubject
	}
	if teacher1 == "" {
		return Fields{}, domerrors.ErrMissingTeacher
	}
	return fields, nil
}

// splitFour returns (teacher2, room) for the third and fourth tokens.
func (c Classifier) splitFour(a, b string) (string, string) {
	if c.FourTokenPolicy == FourTokenPositional {
		return a, b
	}

	var teacher2, room string
	for _, text := range []string{a, b} {
		switch {
		case room == "" && LooksLikeClassroom(text):
			room = text
		case teacher2 == "":
			teacher2 = text
		default:
			room = text
		}
	}
	return teacher2, room
}
