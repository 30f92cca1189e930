package router

import (
	"context"
	"fmt"

	"mcphub/internal/aggregator"

	"github.com/mark3labs/mcp-go/mcp"
)

// ResourceRead is a parsed resources/read request.
type ResourceRead struct {
	URI     string
	Backend string
	Path    string
}

// Forwarder produces the results of routed calls.
type Forwarder interface {
	CallTool(ctx context.Context, call ToolCall) (*mcp.CallToolResult, error)
	ReadResource(ctx context.Context, read ResourceRead) (*mcp.ReadResourceResult, error)
}

// SimulatedForwarder answers routed calls locally with placeholder content
// that names the backend and the inputs. It never contacts a backend.
type SimulatedForwarder struct{}

var _ Forwarder = SimulatedForwarder{}

// CallTool implements Forwarder.
func (SimulatedForwarder) CallTool(_ context.Context, call ToolCall) (*mcp.CallToolResult, error) {
	var text string
	switch call.Action {
	case aggregator.ActionSearch:
		text = fmt.Sprintf("Search results for %q in %s (limit %d)", call.Query, call.Backend, call.Limit)
	case aggregator.ActionList:
		text = fmt.Sprintf("Files in %s at %s", call.Backend, call.Path)
	default:
		return nil, newError(KindUnknownAction, "unknown action %q for backend %s", call.Action, call.Backend)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}, nil
}

// ReadResource implements Forwarder.
func (SimulatedForwarder) ReadResource(_ context.Context, read ResourceRead) (*mcp.ReadResourceResult, error) {
	return &mcp.ReadResourceResult{
		Contents: []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      read.URI,
				MIMEType: "text/plain",
				Text:     fmt.Sprintf("Content of %s from %s", read.Path, read.Backend),
			},
		},
	}, nil
}
