package storage

import "strings"

// likeEscaper escapes SQLite LIKE wildcards; queries use ESCAPE '\'.
var likeEscaper = strings.NewReplacer(
	"\\", "\\\\", // Escape backslash first
	"%", "\\%",
	"_", "\\_",
)

// sanitizeSearchTerm makes term match literally inside a LIKE pattern.
func sanitizeSearchTerm(term string) string {
	return likeEscaper.Replace(strings.TrimSpace(term))
}
