package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"mcphub/internal/aggregator"
	"mcphub/internal/server"
)

// DefaultTimeout bounds every synchronous request.
const DefaultTimeout = 10 * time.Second

// Client talks to a running hub over its HTTP routes.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the hub at baseURL (for example
// http://127.0.0.1:3000). A zero timeout selects DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the hub address the client was created for.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RequestError is returned when the hub answers with a non-2xx status.
type RequestError struct {
	StatusCode int
	Message    string
	Kind       string
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("hub returned status %d", e.StatusCode)
	}
	return e.Message
}

// UnreachableError is returned when no connection to the hub could be made.
type UnreachableError struct {
	BaseURL string
	Err     error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("hub at %s is not reachable: %v", e.BaseURL, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// Health fetches the liveness report.
func (c *Client) Health(ctx context.Context) (*server.HealthResponse, error) {
	var health server.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// ListTools returns the aggregated tool descriptors.
func (c *Client) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	var result struct {
		Tools []mcp.Tool `json:"tools"`
	}
	if err := c.do(ctx, http.MethodGet, "/mcp/tools", nil, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// ListResources returns the aggregated resource descriptors.
func (c *Client) ListResources(ctx context.Context) ([]mcp.Resource, error) {
	var result struct {
		Resources []mcp.Resource `json:"resources"`
	}
	if err := c.do(ctx, http.MethodGet, "/mcp/resources", nil, &result); err != nil {
		return nil, err
	}
	return result.Resources, nil
}

// CallTool invokes a qualified tool such as alpha_search.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(server.CallToolBody{Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("failed to encode arguments: %w", err)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, "/mcp/tools/"+url.PathEscape(name), body, &envelope); err != nil {
		return nil, err
	}
	return mcp.ParseCallToolResult(&envelope.Result)
}

// ReadResource reads a repo:// resource through its HTTP path form.
func (c *Client) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	if !strings.HasPrefix(uri, aggregator.ResourceScheme) {
		return nil, fmt.Errorf("resource URI must start with %s", aggregator.ResourceScheme)
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/mcp/resources/"+strings.TrimPrefix(uri, aggregator.ResourceScheme), nil, &raw); err != nil {
		return nil, err
	}
	return mcp.ParseReadResourceResult(&raw)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UnreachableError{BaseURL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reqErr := &RequestError{StatusCode: resp.StatusCode}
		var errBody server.ErrorBody
		if json.Unmarshal(data, &errBody) == nil {
			reqErr.Message = errBody.Error
			reqErr.Kind = errBody.Kind
		}
		return reqErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
