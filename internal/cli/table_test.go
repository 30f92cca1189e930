package cli

import (
	"bytes"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"
)

func TestPlainTable(t *testing.T) {
	tests := []struct {
		name      string
		headers   []string
		rows      [][]string
		noHeaders bool
		want      string
	}{
		{
			name:    "aligns columns",
			headers: []string{"name", "status"},
			rows:    [][]string{{"alpha", "running"}, {"longer-name", "starting"}},
			want:    "NAME          STATUS\nalpha         running\nlonger-name   starting\n",
		},
		{
			name:      "no headers",
			headers:   []string{"name", "status"},
			rows:      [][]string{{"alpha", "running"}},
			noHeaders: true,
			want:      "alpha   running\n",
		},
		{
			name:    "short rows are padded",
			headers: []string{"a", "b", "c"},
			rows:    [][]string{{"x"}},
			want:    "A   B   C\nx\n",
		},
		{
			name:      "nothing to render",
			headers:   []string{"a"},
			noHeaders: true,
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tw := NewPlainTable(&buf, tt.headers...)
			tw.SetNoHeaders(tt.noHeaders)
			for _, row := range tt.rows {
				tw.AppendRow(row...)
			}
			tw.Render()
			assert.Equal(t, tt.want, buf.String())
			assert.Equal(t, len(tt.rows), tw.Len())
		})
	}
}

func TestPlainTable_IgnoresEscapeSequencesInWidth(t *testing.T) {
	var buf bytes.Buffer
	tw := NewPlainTable(&buf, "status", "name")
	tw.AppendRow(text.FgGreen.Sprint("ok"), "alpha")
	tw.Render()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Len(t, lines, 2)
	assert.Equal(t, "STATUS   NAME", string(lines[0]))
	assert.Equal(t, "ok       alpha", text.StripEscape(string(lines[1])))
}
