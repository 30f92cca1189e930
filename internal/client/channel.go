package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"mcphub/internal/router"
)

// RPCError is a JSON-RPC error returned by the hub.
type RPCError struct {
	Code    int
	Message string
	Kind    string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// Channel is a JSON-RPC connection over the hub's WebSocket endpoint.
// Calls are serialized; the hub answers in request order, so each call
// reads exactly the next reply.
type Channel struct {
	conn net.Conn
	rw   io.ReadWriter

	mu     sync.Mutex
	nextID int64
}

// bufferedConn reads the bytes the handshake left buffered before the
// rest of the connection.
type bufferedConn struct {
	net.Conn
	r io.Reader
}

func (c bufferedConn) Read(p []byte) (int, error) { return c.r.Read(p) }

// ChannelURL turns an http(s) base URL into the WebSocket endpoint URL.
func ChannelURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}

// Dial opens a channel to the hub at baseURL.
func Dial(ctx context.Context, baseURL string) (*Channel, error) {
	conn, br, _, err := ws.Dial(ctx, ChannelURL(baseURL))
	if err != nil {
		return nil, &UnreachableError{BaseURL: baseURL, Err: fmt.Errorf("failed to open channel: %w", err)}
	}

	ch := &Channel{conn: conn, rw: conn}
	if br != nil {
		ch.rw = bufferedConn{Conn: conn, r: io.MultiReader(br, conn)}
	}
	return ch, nil
}

// Call sends one request and waits for its reply. A JSON-RPC error reply
// is returned as *RPCError.
func (c *Channel) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := json.RawMessage(strconv.FormatInt(c.nextID, 10))
	if err := c.send(ctx, id, method, params); err != nil {
		return nil, err
	}

	for {
		data, err := wsutil.ReadServerText(c.rw)
		if err != nil {
			return nil, fmt.Errorf("failed to read reply: %w", err)
		}

		var resp struct {
			ID     json.RawMessage     `json:"id"`
			Result json.RawMessage     `json:"result"`
			Error  *router.ErrorObject `json:"error"`
		}
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode reply: %w", err)
		}
		// Replies to requests abandoned by an earlier cancelled call.
		if string(resp.ID) != string(id) {
			continue
		}
		if resp.Error != nil {
			rpcErr := &RPCError{Code: resp.Error.Code, Message: resp.Error.Message}
			if extra, ok := resp.Error.Data.(map[string]interface{}); ok {
				rpcErr.Kind, _ = extra["kind"].(string)
			}
			return nil, rpcErr
		}
		return resp.Result, nil
	}
}

// Notify sends a request without an id. The hub does not reply.
func (c *Channel) Notify(ctx context.Context, method string, params interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send(ctx, nil, method, params)
}

// SendRaw writes a message as is and returns the next reply. It exists for
// exercising the hub with hand-written envelopes.
func (c *Channel) SendRaw(ctx context.Context, message []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.applyDeadline(ctx)
	if err := wsutil.WriteClientText(c.rw, message); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return wsutil.ReadServerText(c.rw)
}

func (c *Channel) send(ctx context.Context, id json.RawMessage, method string, params interface{}) error {
	req := router.Request{JSONRPC: router.JSONRPCVersion, ID: id, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to encode params: %w", err)
		}
		req.Params = raw
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}

	c.applyDeadline(ctx)
	if err := wsutil.WriteClientText(c.rw, payload); err != nil {
		return fmt.Errorf("failed to send %s: %w", method, err)
	}
	return nil
}

func (c *Channel) applyDeadline(ctx context.Context) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	_ = c.conn.SetDeadline(deadline)
}

// Close sends a close frame and closes the connection.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = wsutil.WriteClientMessage(c.rw, ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
	return c.conn.Close()
}
