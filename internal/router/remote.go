package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mcphub/internal/events"
	"mcphub/internal/registry"
	"mcphub/pkg/logging"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

const remoteSubsystem = "Router-Remote"

// ClientFactory creates an unconnected MCP client for an endpoint.
type ClientFactory func(endpoint string) (client.MCPClient, error)

// NewStreamableHTTPClient is the default ClientFactory.
func NewStreamableHTTPClient(headers map[string]string) ClientFactory {
	return func(endpoint string) (client.MCPClient, error) {
		var opts []transport.StreamableHTTPCOption
		if len(headers) > 0 {
			opts = append(opts, transport.WithHTTPHeaders(headers))
		}
		return client.NewStreamableHttpClient(endpoint, opts...)
	}
}

// RemoteOptions configures a RemoteForwarder.
type RemoteOptions struct {
	Backends interface {
		Get(name string) (registry.Backend, bool)
	}
	// Timeout bounds connect plus call for each forwarded request.
	Timeout time.Duration
	// NewClient defaults to NewStreamableHTTPClient(nil).
	NewClient  ClientFactory
	ClientInfo mcp.Implementation
}

// RemoteForwarder forwards routed calls to the backend endpoints over MCP.
// One client per backend is connected lazily and dropped when the backend
// exits or a call fails.
type RemoteForwarder struct {
	opts RemoteOptions

	mu      sync.Mutex
	clients map[string]*backendClient
}

var _ Forwarder = (*RemoteForwarder)(nil)

// NewRemoteForwarder creates a RemoteForwarder.
func NewRemoteForwarder(opts RemoteOptions) *RemoteForwarder {
	if opts.NewClient == nil {
		opts.NewClient = NewStreamableHTTPClient(nil)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.ClientInfo.Name == "" {
		opts.ClientInfo = mcp.Implementation{Name: "mcphub", Version: "dev"}
	}
	return &RemoteForwarder{
		opts:    opts,
		clients: make(map[string]*backendClient),
	}
}

// CallTool implements Forwarder. The action name is called on the backend
// as the tool name.
func (f *RemoteForwarder) CallTool(ctx context.Context, call ToolCall) (*mcp.CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	c, err := f.client(ctx, call.Backend)
	if err != nil {
		return nil, err
	}

	result, err := c.callTool(ctx, string(call.Action), call.Arguments)
	if err != nil {
		f.drop(call.Backend)
		return nil, wrapError(KindForwardFailure, err, "forwarding %s to backend %s failed", call.Action, call.Backend)
	}
	return result, nil
}

// ReadResource implements Forwarder. The path is read from the backend as a
// file:// URI.
func (f *RemoteForwarder) ReadResource(ctx context.Context, read ResourceRead) (*mcp.ReadResourceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	c, err := f.client(ctx, read.Backend)
	if err != nil {
		return nil, err
	}

	result, err := c.readResource(ctx, "file://"+read.Path)
	if err != nil {
		f.drop(read.Backend)
		return nil, wrapError(KindForwardFailure, err, "reading %s from backend %s failed", read.Path, read.Backend)
	}
	return result, nil
}

// client returns a connected client for a running backend.
func (f *RemoteForwarder) client(ctx context.Context, name string) (*backendClient, error) {
	b, ok := f.opts.Backends.Get(name)
	if !ok || b.State != registry.StateRunning {
		return nil, ErrUnknownBackend(name)
	}

	f.mu.Lock()
	c, exists := f.clients[name]
	if exists && c.endpoint != b.Endpoint {
		go c.close()
		exists = false
	}
	if !exists {
		c = &backendClient{endpoint: b.Endpoint, factory: f.opts.NewClient, info: f.opts.ClientInfo}
		f.clients[name] = c
	}
	f.mu.Unlock()

	if err := c.initialize(ctx); err != nil {
		f.drop(name)
		return nil, wrapError(KindForwardFailure, err, "connecting to backend %s failed", name)
	}
	return c, nil
}

func (f *RemoteForwarder) drop(name string) {
	f.mu.Lock()
	c, ok := f.clients[name]
	delete(f.clients, name)
	f.mu.Unlock()

	if ok {
		if err := c.close(); err != nil {
			logging.Debug(remoteSubsystem, "Closing client for %s: %v", name, err)
		}
	}
}

// Connected returns the number of backends with an open client.
func (f *RemoteForwarder) Connected() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// Watch drops the client of every backend that exits, until the
// subscription closes or ctx ends.
func (f *RemoteForwarder) Watch(ctx context.Context, sub events.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if ev.Type == events.EventExited || ev.Type == events.EventSpawnFailed {
				logging.Debug(remoteSubsystem, "Backend %s gone, dropping client", ev.Backend)
				f.drop(ev.Backend)
			}
		}
	}
}

// Close closes every client.
func (f *RemoteForwarder) Close() {
	f.mu.Lock()
	clients := f.clients
	f.clients = make(map[string]*backendClient)
	f.mu.Unlock()

	for name, c := range clients {
		if err := c.close(); err != nil {
			logging.Debug(remoteSubsystem, "Closing client for %s: %v", name, err)
		}
	}
}

// backendClient is one lazily connected MCP client.
type backendClient struct {
	endpoint string
	factory  ClientFactory
	info     mcp.Implementation

	mu        sync.RWMutex
	client    client.MCPClient
	connected bool
}

func (b *backendClient) initialize(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.connected {
		return nil
	}

	logging.Debug(remoteSubsystem, "Connecting to %s", b.endpoint)
	mcpClient, err := b.factory(b.endpoint)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	initResult, err := mcpClient.Initialize(ctx, mcp.InitializeRequest{
		Params: struct {
			ProtocolVersion string                 `json:"protocolVersion"`
			Capabilities    mcp.ClientCapabilities `json:"capabilities"`
			ClientInfo      mcp.Implementation     `json:"clientInfo"`
		}{
			ProtocolVersion: ProtocolVersion,
			ClientInfo:      b.info,
			Capabilities:    mcp.ClientCapabilities{},
		},
	})
	if err != nil {
		mcpClient.Close()
		return fmt.Errorf("failed to initialize MCP protocol: %w", err)
	}

	b.client = mcpClient
	b.connected = true
	logging.Debug(remoteSubsystem, "Connected to %s (server %s %s)", b.endpoint, initResult.ServerInfo.Name, initResult.ServerInfo.Version)
	return nil
}

func (b *backendClient) checkConnected() error {
	if !b.connected || b.client == nil {
		return fmt.Errorf("client not connected")
	}
	return nil
}

func (b *backendClient) callTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.checkConnected(); err != nil {
		return nil, err
	}

	return b.client.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
}

func (b *backendClient) readResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.checkConnected(); err != nil {
		return nil, err
	}

	return b.client.ReadResource(ctx, mcp.ReadResourceRequest{
		Params: struct {
			URI       string         `json:"uri"`
			Arguments map[string]any `json:"arguments,omitempty"`
		}{
			URI: uri,
		},
	})
}

func (b *backendClient) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.connected || b.client == nil {
		return nil
	}

	err := b.client.Close()
	b.connected = false
	b.client = nil
	return err
}
