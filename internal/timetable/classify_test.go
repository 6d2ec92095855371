package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/school-timetable-go/internal/errors"
)

func TestLooksLikeClassroom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want bool
	}{
		{"AULA 12", true},
		{"Mario Rossi", false},
		{"LAB3", true},
		{"lab chimica", true},
		{"Palestra", true},
		{"SCIENZE", true},
		{"Room A", true},
		{"104", true},
		{"Bianchi", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, LooksLikeClassroom(tt.text))
		})
	}
}

func toks(texts ...string) []Token {
	tokens := make([]Token, len(texts))
	for i, text := range texts {
		tokens[i] = Token{Text: text}
	}
	return tokens
}

func TestClassify(t *testing.T) {
	t.Parallel()

	heuristic := Classifier{FourTokenPolicy: FourTokenHeuristic}
	positional := Classifier{FourTokenPolicy: FourTokenPositional}

	tests := []struct {
		name        string
		classifier  Classifier
		tokens      []Token
		wantSubject string
		wantTeacher string
		wantRoom    string
	}{
		{
			name:        "Two tokens",
			classifier:  heuristic,
			tokens:      toks("Mathematics", "Rossi"),
			wantSubject: "Mathematics",
			wantTeacher: "Rossi",
		},
		{
			name:        "Three tokens with room",
			classifier:  heuristic,
			tokens:      toks("Physics", "Bianchi", "AULA2"),
			wantSubject: "Physics",
			wantTeacher: "Bianchi",
			wantRoom:    "AULA2",
		},
		{
			name:        "Three tokens with co-teacher",
			classifier:  heuristic,
			tokens:      toks("Physics", "Bianchi", "Gialli"),
			wantSubject: "Physics",
			wantTeacher: "Bianchi, Gialli",
		},
		{
			name:        "Four tokens teacher then room",
			classifier:  heuristic,
			tokens:      toks("History", "Rossi", "Bianchi", "AULA 4"),
			wantSubject: "History",
			wantTeacher: "Rossi, Bianchi",
			wantRoom:    "AULA 4",
		},
		{
			name:        "Four tokens room then teacher",
			classifier:  heuristic,
			tokens:      toks("History", "Rossi", "LAB2", "Bianchi"),
			wantSubject: "History",
			wantTeacher: "Rossi, Bianchi",
			wantRoom:    "LAB2",
		},
		{
			name:        "Four tokens both rooms",
			classifier:  heuristic,
			tokens:      toks("Chemistry", "Verdi", "LAB1", "LAB2"),
			wantSubject: "Chemistry",
			wantTeacher: "Verdi, LAB2",
			wantRoom:    "LAB1",
		},
		{
			name:        "Four tokens neither room",
			classifier:  heuristic,
			tokens:      toks("Chemistry", "Verdi", "Neri", "Gialli"),
			wantSubject: "Chemistry",
			wantTeacher: "Verdi, Neri",
			wantRoom:    "Gialli",
		},
		{
			name:        "Four tokens positional",
			classifier:  positional,
			tokens:      toks("History", "Rossi", "LAB2", "Bianchi"),
			wantSubject: "History",
			wantTeacher: "Rossi, LAB2",
			wantRoom:    "Bianchi",
		},
		{
			name:        "Five tokens split room",
			classifier:  heuristic,
			tokens:      toks("Chemistry", "Verdi", "Neri", "LAB", "3"),
			wantSubject: "Chemistry",
			wantTeacher: "Verdi, Neri",
			wantRoom:    "LAB3",
		},
		{
			name:        "Five tokens empty co-teacher",
			classifier:  heuristic,
			tokens:      toks("Chemistry", "Verdi", "", "LAB", "3"),
			wantSubject: "Chemistry",
			wantTeacher: "Verdi",
			wantRoom:    "LAB3",
		},
		{
			name:        "Six tokens",
			classifier:  heuristic,
			tokens:      toks("Chemistry", "Verdi", "Neri", "LAB", "3", "B"),
			wantSubject: "Chemistry",
			wantTeacher: "Verdi, Neri",
			wantRoom:    "LAB3B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fields, err := tt.classifier.Classify(tt.tokens)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSubject, fields.Subject)
			assert.Equal(t, tt.wantTeacher, fields.Teacher())
			assert.Equal(t, tt.wantRoom, fields.Room)
		})
	}
}

func TestClassifyRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		tokens  []Token
		wantErr error
	}{
		{"No tokens", nil, domerrors.ErrInsufficientTokens},
		{"Subject only", toks("Mathematics"), domerrors.ErrInsufficientTokens},
		{"Empty subject", toks("", "Rossi"), domerrors.ErrMissingSubject},
		{"Empty teacher", toks("Mathematics", "", "AULA 1"), domerrors.ErrMissingTeacher},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Classifier{}.Classify(tt.tokens)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
