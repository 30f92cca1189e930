package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
)

// PlainTable writes kubectl-style columns without box-drawing characters,
// which keeps output friendly to grep, awk and cut. Cell widths ignore ANSI
// escape sequences, so colored cells still line up.
type PlainTable struct {
	headers     []string
	rows        [][]string
	widths      []int
	padding     int
	showHeaders bool
	out         io.Writer
}

// NewPlainTable creates a table writing to out, with headers shown.
func NewPlainTable(out io.Writer, headers ...string) *PlainTable {
	t := &PlainTable{
		padding:     3,
		showHeaders: true,
		out:         out,
	}
	t.SetHeaders(headers...)
	return t
}

// SetHeaders replaces the header row. Headers are upper-cased.
func (t *PlainTable) SetHeaders(headers ...string) {
	t.headers = make([]string, len(headers))
	t.widths = make([]int, len(headers))
	for i, h := range headers {
		t.headers[i] = strings.ToUpper(h)
		t.widths[i] = text.StringWidthWithoutEscSequences(t.headers[i])
	}
}

// SetNoHeaders suppresses the header row.
func (t *PlainTable) SetNoHeaders(noHeaders bool) {
	t.showHeaders = !noHeaders
}

// AppendRow adds a row, padding or truncating it to the header count.
func (t *PlainTable) AppendRow(cells ...string) {
	row := make([]string, len(t.headers))
	for i := range row {
		if i >= len(cells) {
			continue
		}
		row[i] = cells[i]
		if w := text.StringWidthWithoutEscSequences(cells[i]); w > t.widths[i] {
			t.widths[i] = w
		}
	}
	t.rows = append(t.rows, row)
}

// Len returns the number of data rows.
func (t *PlainTable) Len() int {
	return len(t.rows)
}

// Render writes the table.
func (t *PlainTable) Render() {
	if len(t.headers) == 0 || (len(t.rows) == 0 && !t.showHeaders) {
		return
	}
	if t.showHeaders {
		t.writeRow(t.headers)
	}
	for _, row := range t.rows {
		t.writeRow(row)
	}
}

func (t *PlainTable) writeRow(row []string) {
	var sb strings.Builder
	last := len(row) - 1
	for i, cell := range row {
		if i == last {
			sb.WriteString(cell)
			break
		}
		sb.WriteString(text.Pad(cell, t.widths[i]+t.padding, ' '))
	}
	fmt.Fprintln(t.out, strings.TrimRight(sb.String(), " "))
}
