// Package mcperr defines the error taxonomy shared by the protocol engine
// and capability handlers. Errors fall into two families: ProtocolError for
// caller faults (malformed envelope, bad arguments, unknown method) and
// ServerError for callee faults (missing capability, handler failure). Each
// carries a JSON-RPC error code from the fixed set below.
package mcperr

import "fmt"

// Code is a JSON-RPC 2.0 error code used on the wire.
type Code int

const (
	// CodeInvalidParams indicates invalid method parameters.
	CodeInvalidParams Code = -32602
	// CodeInternalError indicates an internal server error.
	CodeInternalError Code = -32603
	// CodeMethodNotFound indicates the method does not exist.
	CodeMethodNotFound Code = -32601
	// CodeResourceNotFound indicates a named capability is not available to
	// the caller. Unauthorized and nonexistent capabilities are deliberately
	// indistinguishable.
	CodeResourceNotFound Code = -32002
)

// ProtocolError is a caller-fault error. It always surfaces as a top-level
// JSON-RPC error object.
type ProtocolError struct {
	code Code
	msg  string
}

func (e *ProtocolError) Error() string { return e.msg }

// Code returns the JSON-RPC error code for the wire.
func (e *ProtocolError) Code() Code { return e.code }

// NewProtocolError builds a ProtocolError with the conventional message
// prefix.
func NewProtocolError(code Code, format string, a ...any) *ProtocolError {
	return &ProtocolError{code: code, msg: "Protocol error: " + fmt.Sprintf(format, a...)}
}

// ServerError is a callee-fault error. Depending on the failing operation it
// surfaces either as a JSON-RPC error or embedded in a success-shaped payload.
type ServerError struct {
	code  Code
	msg   string
	cause error
}

func (e *ServerError) Error() string { return e.msg }

// Unwrap exposes the underlying handler fault for logging. The cause never
// contributes to the wire message.
func (e *ServerError) Unwrap() error { return e.cause }

// WithCause attaches the underlying fault.
func (e *ServerError) WithCause(cause error) *ServerError {
	e.cause = cause
	return e
}

// Code returns the JSON-RPC error code for the wire.
func (e *ServerError) Code() Code { return e.code }

// NewServerError builds a ServerError with the conventional message prefix.
func NewServerError(code Code, format string, a ...any) *ServerError {
	return &ServerError{code: code, msg: "Server error: " + fmt.Sprintf(format, a...)}
}

// NewToolNotFound reports that a tool is absent from the caller's view of the
// registry.
func NewToolNotFound(name string) *ServerError {
	return NewServerError(CodeResourceNotFound, "Tool %s not found", name)
}

// NewPromptNotFound reports that a prompt is absent from the caller's view of
// the registry.
func NewPromptNotFound(name string) *ServerError {
	return NewServerError(CodeResourceNotFound, "Prompt %s not found", name)
}

// NewToolInvocation reports a tool handler failure. The underlying fault is
// logged by the caller, never echoed to the wire.
func NewToolInvocation(name, msg string) *ServerError {
	return NewServerError(CodeInternalError, "Error calling tool %s: %s", name, msg)
}

// NewPromptInvocation reports a prompt handler failure.
func NewPromptInvocation(name, msg string) *ServerError {
	return NewServerError(CodeInternalError, "Error getting prompt %s: %s", name, msg)
}

// NewArguments reports an argument validation failure for a tool or prompt.
// The message embeds the serialized issue list so callers can recover the
// offending field paths.
func NewArguments(featureType, featureName, issues string) *ProtocolError {
	return NewProtocolError(CodeInvalidParams, "Error validating arguments for %s %s: %s", featureType, featureName, issues)
}
