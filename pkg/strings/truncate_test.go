package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateDescription(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short string unchanged", input: "Search alpha", maxLen: 20, want: "Search alpha"},
		{name: "exact length unchanged", input: "hello", maxLen: 5, want: "hello"},
		{name: "long string truncated", input: "List files in the alpha repository", maxLen: 15, want: "List files i..."},
		{name: "newlines flattened", input: "spawn failed:\n  exec: not found", maxLen: 60, want: "spawn failed: exec: not found"},
		{name: "unicode cut on rune boundary", input: "héllo wörld ünïcode", maxLen: 8, want: "héllo..."},
		{name: "tiny max is raised", input: "abcdef", maxLen: 1, want: "a..."},
		{name: "empty", input: "", maxLen: 10, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateDescription(tt.input, tt.maxLen))
		})
	}
}

func TestSingleLine(t *testing.T) {
	assert.Equal(t, "a b c", SingleLine(" a\tb\r\n\n c "))
}
