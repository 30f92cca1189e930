// Package strings holds small text helpers for terminal output.
package strings

import (
	"strings"
)

// DefaultDescriptionMaxLen bounds descriptions and error details in table
// output.
const DefaultDescriptionMaxLen = 60

// ellipsis marks a truncated value.
const ellipsis = "..."

// SingleLine collapses every run of whitespace, including newlines, into
// one space.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateDescription flattens s with SingleLine and cuts it to at most
// maxLen runes, ending in "..." when cut. maxLen is raised to leave room for
// at least one rune before the ellipsis.
func TruncateDescription(s string, maxLen int) string {
	if minLen := len(ellipsis) + 1; maxLen < minLen {
		maxLen = minLen
	}

	s = SingleLine(s)
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-len(ellipsis)]) + ellipsis
}
