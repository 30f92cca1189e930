package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"mcphub/internal/events"
	"mcphub/internal/server"
	hubstrings "mcphub/pkg/strings"
)

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	// OutputFormatTable formats output as a kubectl-style plain table
	OutputFormatTable OutputFormat = "table"
	// OutputFormatPretty formats output as a styled, colored table
	OutputFormatPretty OutputFormat = "pretty"
	// OutputFormatJSON formats output as raw JSON data
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML formats output as YAML data converted from JSON
	OutputFormatYAML OutputFormat = "yaml"
)

// ValidOutputFormats contains all valid output format values.
var ValidOutputFormats = []OutputFormat{
	OutputFormatTable,
	OutputFormatPretty,
	OutputFormatJSON,
	OutputFormatYAML,
}

// ValidateOutputFormat returns an error listing the valid formats when
// format is not one of them.
func ValidateOutputFormat(format string) error {
	for _, f := range ValidOutputFormats {
		if OutputFormat(format) == f {
			return nil
		}
	}
	valid := make([]string, len(ValidOutputFormats))
	for i, f := range ValidOutputFormats {
		valid[i] = string(f)
	}
	return fmt.Errorf("invalid output format %q: valid formats are %s", format, strings.Join(valid, ", "))
}

// Printer renders hub data in the selected output format.
type Printer struct {
	out       io.Writer
	format    OutputFormat
	noHeaders bool
}

// NewPrinter creates a Printer. An empty format selects table output.
func NewPrinter(out io.Writer, format OutputFormat, noHeaders bool) *Printer {
	if format == "" {
		format = OutputFormatTable
	}
	return &Printer{out: out, format: format, noHeaders: noHeaders}
}

func (p *Printer) structured() bool {
	return p.format == OutputFormatJSON || p.format == OutputFormatYAML
}

// writeStructured writes v as indented JSON or as YAML converted from its
// JSON form, so field names match the wire format.
func (p *Printer) writeStructured(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if p.format == OutputFormatJSON {
		_, err = fmt.Fprintln(p.out, string(data))
		return err
	}

	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	yamlData, err := yaml.Marshal(generic)
	if err != nil {
		return fmt.Errorf("failed to convert to YAML: %w", err)
	}
	_, err = p.out.Write(yamlData)
	return err
}

// writeRows renders rows as a plain or styled table.
func (p *Printer) writeRows(headers []string, rows [][]string, empty string) {
	if len(rows) == 0 {
		if p.format == OutputFormatPretty {
			fmt.Fprintf(p.out, "%s %s\n", text.FgYellow.Sprint("📋"), text.FgYellow.Sprint(empty))
		} else {
			fmt.Fprintln(p.out, empty)
		}
		return
	}

	if p.format != OutputFormatPretty {
		tw := NewPlainTable(p.out, headers...)
		tw.SetNoHeaders(p.noHeaders)
		for _, row := range rows {
			tw.AppendRow(row...)
		}
		tw.Render()
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleRounded)
	if !p.noHeaders {
		header := make(table.Row, len(headers))
		for i, h := range headers {
			header[i] = text.FgHiCyan.Sprint(strings.ToUpper(h))
		}
		t.AppendHeader(header)
	}
	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, cell := range row {
			r[i] = cell
		}
		t.AppendRow(r)
	}
	t.Render()
	fmt.Fprintf(p.out, "%s %s\n", text.FgHiBlue.Sprint("Total:"), text.FgHiWhite.Sprint(len(rows)))
}

func (p *Printer) colorState(state string) string {
	if p.format != OutputFormatPretty {
		return state
	}
	switch state {
	case "running":
		return text.FgGreen.Sprint(state)
	case "starting":
		return text.FgYellow.Sprint(state)
	default:
		return text.FgRed.Sprint(state)
	}
}

// PrintHealth renders the liveness report, one row per known backend.
func (p *Printer) PrintHealth(h *server.HealthResponse) error {
	if p.structured() {
		return p.writeStructured(h)
	}

	rows := make([][]string, 0, len(h.Processes))
	for _, proc := range h.Processes {
		pid := "-"
		if proc.PID > 0 {
			pid = fmt.Sprint(proc.PID)
		}
		rows = append(rows, []string{proc.Name, p.colorState(proc.Status), pid, proc.URL})
	}
	p.writeRows([]string{"name", "status", "pid", "url"}, rows, "No backends running")
	return nil
}

// PrintTools renders tool descriptors. Required arguments are marked with *.
func (p *Printer) PrintTools(tools []mcp.Tool) error {
	if p.structured() {
		return p.writeStructured(map[string]interface{}{"tools": tools})
	}

	rows := make([][]string, 0, len(tools))
	for _, tool := range tools {
		rows = append(rows, []string{tool.Name, toolArguments(tool),
			hubstrings.TruncateDescription(tool.Description, hubstrings.DefaultDescriptionMaxLen)})
	}
	p.writeRows([]string{"name", "arguments", "description"}, rows, "No tools available")
	return nil
}

func toolArguments(tool mcp.Tool) string {
	required := make(map[string]bool, len(tool.InputSchema.Required))
	for _, r := range tool.InputSchema.Required {
		required[r] = true
	}
	names := make([]string, 0, len(tool.InputSchema.Properties))
	for name := range tool.InputSchema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		if required[name] {
			names[i] = name + "*"
		}
	}
	return strings.Join(names, ",")
}

// PrintResources renders resource descriptors.
func (p *Printer) PrintResources(resources []mcp.Resource) error {
	if p.structured() {
		return p.writeStructured(map[string]interface{}{"resources": resources})
	}

	rows := make([][]string, 0, len(resources))
	for _, r := range resources {
		rows = append(rows, []string{r.URI, r.Name, r.MIMEType})
	}
	p.writeRows([]string{"uri", "name", "mime type"}, rows, "No resources available")
	return nil
}

// PrintToolResult renders the text content of a tool result.
func (p *Printer) PrintToolResult(result *mcp.CallToolResult) error {
	if p.structured() {
		return p.writeStructured(result)
	}
	if len(result.Content) == 0 {
		fmt.Fprintln(p.out, "No results")
		return nil
	}
	for _, content := range result.Content {
		if tc, ok := mcp.AsTextContent(content); ok {
			fmt.Fprintln(p.out, tc.Text)
		}
	}
	return nil
}

// PrintResourceResult renders the text contents of a resource read.
func (p *Printer) PrintResourceResult(result *mcp.ReadResourceResult) error {
	if p.structured() {
		return p.writeStructured(result)
	}
	for _, contents := range result.Contents {
		if tc, ok := mcp.AsTextResourceContents(contents); ok {
			fmt.Fprintln(p.out, tc.Text)
		}
	}
	return nil
}

// PrintEvent renders a single lifecycle event. JSON output is one object per
// line so a stream of events can be piped.
func (p *Printer) PrintEvent(ev events.Event) error {
	switch p.format {
	case OutputFormatJSON:
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(p.out, string(data))
		return err
	case OutputFormatYAML:
		fmt.Fprintln(p.out, "---")
		return p.writeStructured(ev)
	}

	detail := ""
	switch {
	case ev.Error != "":
		detail = hubstrings.TruncateDescription(ev.Error, hubstrings.DefaultDescriptionMaxLen)
	case ev.ExitCode != nil:
		detail = fmt.Sprintf("exit code %d", *ev.ExitCode)
	case ev.PID > 0:
		detail = fmt.Sprintf("pid %d", ev.PID)
	}
	_, err := fmt.Fprintf(p.out, "%s  %-12s %-20s %s\n",
		ev.Timestamp.Format("15:04:05"), p.colorState(string(ev.Type)), ev.Backend, detail)
	return err
}
