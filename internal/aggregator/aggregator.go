package aggregator

import (
	"fmt"

	"mcphub/internal/registry"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	DefaultSearchLimit = 10
	DefaultListPath    = "/"
)

// BackendSource provides the running backends to project. *registry.Registry
// satisfies it.
type BackendSource interface {
	ListRunning() []registry.Backend
}

// Aggregator derives the unified capability catalog from the running
// backends. Nothing is cached: every call reflects the source as it is now.
type Aggregator struct {
	source BackendSource
}

// New creates an aggregator over source.
func New(source BackendSource) *Aggregator {
	return &Aggregator{source: source}
}

// ListTools returns a search and a list tool for every running backend, in
// registration order.
func (a *Aggregator) ListTools() []mcp.Tool {
	running := a.source.ListRunning()
	tools := make([]mcp.Tool, 0, len(running)*len(Actions))
	for _, b := range running {
		tools = append(tools, searchTool(b.Name), listTool(b.Name))
	}
	return tools
}

// ListResources returns one root resource per running backend.
func (a *Aggregator) ListResources() []mcp.Resource {
	running := a.source.ListRunning()
	resources := make([]mcp.Resource, 0, len(running))
	for _, b := range running {
		resources = append(resources, mcp.NewResource(
			ResourceURI(b.Name),
			fmt.Sprintf("%s files", b.Name),
			mcp.WithResourceDescription(fmt.Sprintf("Root of the files served by backend %s", b.Name)),
			mcp.WithMIMEType("text/plain"),
		))
	}
	return resources
}

func searchTool(backend string) mcp.Tool {
	return mcp.NewTool(QualifiedName(backend, ActionSearch),
		mcp.WithDescription(fmt.Sprintf("Search in %s", backend)),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results"),
			mcp.DefaultNumber(DefaultSearchLimit),
		),
	)
}

func listTool(backend string) mcp.Tool {
	return mcp.NewTool(QualifiedName(backend, ActionList),
		mcp.WithDescription(fmt.Sprintf("List files in %s", backend)),
		mcp.WithString("path",
			mcp.Description("Directory to list"),
			mcp.DefaultString(DefaultListPath),
		),
	)
}
