package dataset

import (
	"strings"
	"unicode"
)

// CleanText collapses runs of whitespace into single spaces and drops
// non-printable runes.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' {
			return r
		}
		return -1
	}, s)
	return strings.TrimSpace(s)
}
