package router

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"mcphub/pkg/logging"
)

// JSONRPCVersion is the envelope version tag.
const JSONRPCVersion = "2.0"

// JSON-RPC error codes used by the hub.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	// CodeServerError is used for every failure reported by the router.
	CodeServerError = -32000
)

// Request is an inbound JSON-RPC envelope. ID is kept raw so it can be
// echoed back unchanged, whatever its JSON type.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no id.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response is an outbound JSON-RPC envelope. Exactly one of Result and Error
// is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// ErrorObject is the error member of a Response.
type ErrorObject struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type errorData struct {
	Kind Kind `json:"kind"`
}

var nullID = json.RawMessage("null")

// NewResultResponse builds a success reply.
func NewResultResponse(id json.RawMessage, result interface{}) *Response {
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Result: result}
}

// NewErrorResponse builds an error reply. A missing id is sent as null.
func NewErrorResponse(id json.RawMessage, code int, err error) *Response {
	if len(id) == 0 {
		id = nullID
	}
	obj := &ErrorObject{Code: code, Message: err.Error()}
	if kind := KindOf(err); kind != "" {
		obj.Data = errorData{Kind: kind}
	}
	return &Response{JSONRPC: JSONRPCVersion, ID: id, Error: obj}
}

// DecodeRequest parses one envelope. The returned Response is non-nil when
// the message is malformed and must be sent back as is.
func DecodeRequest(data []byte) (*Request, *Response) {
	if !json.Valid(data) {
		return nil, NewErrorResponse(nullID, CodeParseError, newError(KindMalformedRequest, "parse error: message is not valid JSON"))
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return nil, NewErrorResponse(nullID, CodeInvalidRequest, newError(KindMalformedRequest, "invalid request: batch requests are not supported"))
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		// Echo the id if at least that much is readable.
		var probe struct {
			ID json.RawMessage `json:"id"`
		}
		_ = json.Unmarshal(data, &probe)
		return nil, NewErrorResponse(probe.ID, CodeInvalidRequest, wrapError(KindMalformedRequest, err, "invalid request"))
	}
	if req.Method == "" {
		return nil, NewErrorResponse(req.ID, CodeInvalidRequest, newError(KindMalformedRequest, "invalid request: method is required"))
	}
	return &req, nil
}

// HandleMessage decodes one envelope, dispatches it and builds the reply.
// It returns nil for notifications, which get no reply.
func (r *Router) HandleMessage(ctx context.Context, data []byte) *Response {
	req, malformed := DecodeRequest(data)
	if malformed != nil {
		logging.Debug(subsystem, "Rejected malformed message: %s", malformed.Error.Message)
		return malformed
	}
	return r.HandleRequest(ctx, req)
}

// HandleRequest dispatches a decoded envelope.
func (r *Router) HandleRequest(ctx context.Context, req *Request) *Response {
	if req.IsNotification() {
		if strings.HasPrefix(req.Method, "notifications/") {
			logging.Debug(subsystem, "Received notification %s", req.Method)
			return nil
		}
		if _, err := r.Dispatch(ctx, req.Method, req.Params); err != nil {
			logging.Debug(subsystem, "Notification %s failed: %v", req.Method, err)
		}
		return nil
	}

	result, err := r.Dispatch(ctx, req.Method, req.Params)
	if err != nil {
		return NewErrorResponse(req.ID, CodeServerError, err)
	}
	return NewResultResponse(req.ID, result)
}
