// Package jsonrpc implements the JSON-RPC 2.0 envelope used by both
// transports. Parsing is strict: messages that do not match the envelope are
// rejected before they reach the dispatcher.
package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Version is the supported JSON-RPC protocol version.
const Version = "2.0"

// NotificationPrefix marks fire-and-forget methods. Requests whose method
// carries this prefix never produce a body-bearing response.
const NotificationPrefix = "notifications/"

// ErrMissingMethod reports an envelope without a method field.
var ErrMissingMethod = errors.New("missing method")

// Request is a JSON-RPC request or, when the ID is absent, a notification.
type Request struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Method         string          `json:"method"`
	Params         json.RawMessage `json:"params,omitempty"`
	ID             *RequestID      `json:"id,omitempty"`
}

// IsNotification reports whether the request is fire-and-forget.
func (r *Request) IsNotification() bool {
	return strings.HasPrefix(r.Method, NotificationPrefix)
}

// ParseRequest decodes and validates a single request envelope.
func ParseRequest(data []byte) (*Request, error) {
	type raw Request
	var req raw
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if req.JSONRPCVersion != Version {
		return nil, fmt.Errorf("invalid JSON-RPC version: expected %q, got %q", Version, req.JSONRPCVersion)
	}
	if req.Method == "" {
		return nil, ErrMissingMethod
	}
	out := Request(req)
	return &out, nil
}

// Response is a JSON-RPC response. Exactly one of Result or Error is set;
// the constructors below are the only way the engine builds one.
type Response struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          *Error          `json:"error,omitempty"`
	ID             *RequestID      `json:"id,omitempty"`
}

// NewResultResponse builds a successful response carrying the marshaled
// result value.
func NewResultResponse(id *RequestID, result any) (*Response, error) {
	resultBytes, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &Response{
		JSONRPCVersion: Version,
		Result:         resultBytes,
		ID:             id,
	}, nil
}

// NewErrorResponse builds an error response with the given code and message.
func NewErrorResponse(id *RequestID, code ErrorCode, message string, data any) *Response {
	return &Response{
		JSONRPCVersion: Version,
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
		ID: id,
	}
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
}

// ErrorCode is a JSON-RPC 2.0 error code.
type ErrorCode int

const (
	// ErrorCodeMethodNotFound indicates the method does not exist.
	ErrorCodeMethodNotFound ErrorCode = -32601
	// ErrorCodeInvalidParams indicates invalid method parameters.
	ErrorCodeInvalidParams ErrorCode = -32602
	// ErrorCodeInternalError indicates an internal server error.
	ErrorCodeInternalError ErrorCode = -32603
	// ErrorCodeResourceNotFound indicates a capability absent from the
	// caller's view of the registry.
	ErrorCodeResourceNotFound ErrorCode = -32002
)
