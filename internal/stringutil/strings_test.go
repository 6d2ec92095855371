package stringutil

import "testing"

func TestCleanText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Plain text", "Matematica", "Matematica"},
		{"Surrounding spaces", "  Rossi \n", "Rossi"},
		{"Only nbsp", "\u00a0", ""},
		{"Nbsp padding", "\u00a0AULA 12\u00a0", "AULA 12"},
		{"Nbsp inside", "LAB\u00a03", "LAB3"},
		{"Mixed whitespace and nbsp", " \u00a0 \t", ""},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CleanText(tt.input); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsNumeric(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"Valid digits", "0755", true},
		{"Single digit", "8", true},
		{"Empty string", "", false},
		{"Contains letter", "8a", false},
		{"Contains space", "8 00", false},
		{"Negative sign", "-5", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsNumeric(tt.input); got != tt.want {
				t.Errorf("IsNumeric(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestContainsDigit(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  bool
	}{
		{"LAB3", true},
		{"Aula 12", true},
		{"Mario Rossi", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ContainsDigit(tt.input); got != tt.want {
			t.Errorf("ContainsDigit(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLeftPad(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		width int
		want  string
	}{
		{"8", 2, "08"},
		{"10", 2, "10"},
		{"123", 2, "123"},
		{"", 2, "00"},
	}

	for _, tt := range tests {
		if got := LeftPad(tt.input, tt.width, '0'); got != tt.want {
			t.Errorf("LeftPad(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
		}
	}
}
