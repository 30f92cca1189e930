package router

import (
	"context"
	"encoding/json"
	"math"

	"mcphub/internal/aggregator"
	"mcphub/internal/registry"
	"mcphub/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

const subsystem = "Router"

// Protocol methods served by the router.
const (
	MethodInitialize    = "initialize"
	MethodToolsList     = "tools/list"
	MethodToolsCall     = "tools/call"
	MethodResourcesList = "resources/list"
	MethodResourcesRead = "resources/read"
)

// ProtocolVersion is announced by initialize.
const ProtocolVersion = "2024-11-05"

// BackendLookup resolves running backends. *registry.Registry satisfies it.
type BackendLookup interface {
	aggregator.BackendSource
	Get(name string) (registry.Backend, bool)
}

// Options configures a Router.
type Options struct {
	Backends BackendLookup
	// Forwarder produces tools/call and resources/read results. Defaults
	// to SimulatedForwarder.
	Forwarder Forwarder
	// ServerName and ServerVersion are announced by initialize.
	ServerName    string
	ServerVersion string
}

type handlerFunc func(ctx context.Context, params json.RawMessage) (interface{}, error)

// Router maps protocol methods onto the aggregated backends. It never
// mutates the registry and keeps no per-request state, so it is safe for
// concurrent use by every transport.
type Router struct {
	backends   BackendLookup
	aggregator *aggregator.Aggregator
	forwarder  Forwarder
	serverInfo mcp.Implementation
	handlers   map[string]handlerFunc
}

// New creates a router. The dispatch table is fixed at construction.
func New(opts Options) *Router {
	forwarder := opts.Forwarder
	if forwarder == nil {
		forwarder = SimulatedForwarder{}
	}
	name := opts.ServerName
	if name == "" {
		name = "mcphub"
	}
	version := opts.ServerVersion
	if version == "" {
		version = "dev"
	}

	r := &Router{
		backends:   opts.Backends,
		aggregator: aggregator.New(opts.Backends),
		forwarder:  forwarder,
		serverInfo: mcp.Implementation{Name: name, Version: version},
	}
	r.handlers = map[string]handlerFunc{
		MethodInitialize:    r.handleInitialize,
		MethodToolsList:     r.handleToolsList,
		MethodToolsCall:     r.handleToolsCall,
		MethodResourcesList: r.handleResourcesList,
		MethodResourcesRead: r.handleResourcesRead,
	}
	return r
}

// Methods returns the names of the supported protocol methods.
func (r *Router) Methods() []string {
	return []string{MethodInitialize, MethodToolsList, MethodToolsCall, MethodResourcesList, MethodResourcesRead}
}

// Dispatch runs method with its raw JSON params.
func (r *Router) Dispatch(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	handler, ok := r.handlers[method]
	if !ok {
		return nil, newError(KindUnknownMethod, "unknown method: %s", method)
	}
	logging.Debug(subsystem, "Dispatching %s", method)
	return handler(ctx, params)
}

// InitializeResult is the capability announcement returned by initialize.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      mcp.Implementation `json:"serverInfo"`
}

// ServerCapabilities declares what the hub serves.
type ServerCapabilities struct {
	Tools     *ListCapability `json:"tools,omitempty"`
	Resources *ListCapability `json:"resources,omitempty"`
}

// ListCapability is a capability with list change notifications.
type ListCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ToolsListResult is the result of tools/list.
type ToolsListResult struct {
	Tools []mcp.Tool `json:"tools"`
}

// ResourcesListResult is the result of resources/list.
type ResourcesListResult struct {
	Resources []mcp.Resource `json:"resources"`
}

// CallToolParams are the params of tools/call.
type CallToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// ReadResourceParams are the params of resources/read.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// Initialize returns the fixed capability announcement.
func (r *Router) Initialize() *InitializeResult {
	return &InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ServerCapabilities{
			Tools:     &ListCapability{},
			Resources: &ListCapability{},
		},
		ServerInfo: r.serverInfo,
	}
}

// ListTools returns the aggregated tools.
func (r *Router) ListTools() *ToolsListResult {
	return &ToolsListResult{Tools: r.aggregator.ListTools()}
}

// ListResources returns the aggregated resources.
func (r *Router) ListResources() *ResourcesListResult {
	return &ResourcesListResult{Resources: r.aggregator.ListResources()}
}

// CallTool routes a qualified tool name to its backend and action.
func (r *Router) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	backendName, actionName, ok := aggregator.SplitQualifiedName(name)
	if !ok {
		return nil, newError(KindUnknownBackend, "tool %q does not name a backend", name)
	}
	if b, found := r.backends.Get(backendName); !found || b.State != registry.StateRunning {
		return nil, ErrUnknownBackend(backendName)
	}
	action, ok := aggregator.ParseAction(actionName)
	if !ok {
		return nil, newError(KindUnknownAction, "unknown action %q for backend %s", actionName, backendName)
	}

	call, err := newToolCall(backendName, action, args)
	if err != nil {
		return nil, err
	}

	logging.Debug(subsystem, "Calling %s on backend %s", action, backendName)
	return r.forwarder.CallTool(ctx, call)
}

// ReadResource routes a resource URI to its backend. The backend's existence
// is left to the forwarder.
func (r *Router) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	backendName, path := aggregator.ParseResourceURI(uri)
	return r.forwarder.ReadResource(ctx, ResourceRead{URI: uri, Backend: backendName, Path: path})
}

func (r *Router) handleInitialize(_ context.Context, _ json.RawMessage) (interface{}, error) {
	return r.Initialize(), nil
}

func (r *Router) handleToolsList(_ context.Context, _ json.RawMessage) (interface{}, error) {
	return r.ListTools(), nil
}

func (r *Router) handleResourcesList(_ context.Context, _ json.RawMessage) (interface{}, error) {
	return r.ListResources(), nil
}

func (r *Router) handleToolsCall(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var params CallToolParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, newError(KindInvalidParams, "tools/call requires a tool name")
	}
	return r.CallTool(ctx, params.Name, params.Arguments)
}

func (r *Router) handleResourcesRead(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var params ReadResourceParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	if params.URI == "" {
		return nil, newError(KindInvalidParams, "resources/read requires a uri")
	}
	return r.ReadResource(ctx, params.URI)
}

func decodeParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return wrapError(KindInvalidParams, err, "invalid params")
	}
	return nil
}

// ToolCall is a validated tools/call routed to one backend.
type ToolCall struct {
	Backend   string
	Action    aggregator.Action
	Arguments map[string]interface{}
	// Query and Limit are set for search, Path for list.
	Query string
	Limit int
	Path  string
}

func newToolCall(backend string, action aggregator.Action, args map[string]interface{}) (ToolCall, error) {
	if args == nil {
		args = map[string]interface{}{}
	}
	call := ToolCall{Backend: backend, Action: action, Arguments: args}

	switch action {
	case aggregator.ActionSearch:
		query, ok := args["query"].(string)
		if !ok || query == "" {
			return ToolCall{}, newError(KindInvalidParams, "%s requires a string query", aggregator.QualifiedName(backend, action))
		}
		limit, err := positiveIntArg(args, "limit", aggregator.DefaultSearchLimit)
		if err != nil {
			return ToolCall{}, err
		}
		call.Query = query
		call.Limit = limit
	case aggregator.ActionList:
		path := aggregator.DefaultListPath
		if v, ok := args["path"]; ok && v != nil {
			s, ok := v.(string)
			if !ok {
				return ToolCall{}, newError(KindInvalidParams, "path must be a string")
			}
			if s != "" {
				path = s
			}
		}
		call.Path = path
	}
	return call, nil
}

// positiveIntArg reads an optional whole number in [1, MaxInt32].
func positiveIntArg(args map[string]interface{}, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}

	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case int:
		n = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, newError(KindInvalidParams, "%s must be a number, got %q", key, x.String())
		}
		n = f
	default:
		return 0, newError(KindInvalidParams, "%s must be a number, got %T", key, v)
	}

	if n != math.Trunc(n) || n < 1 || n > math.MaxInt32 {
		return 0, newError(KindInvalidParams, "%s must be a positive integer, got %v", key, v)
	}
	return int(n), nil
}
