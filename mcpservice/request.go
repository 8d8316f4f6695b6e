package mcpservice

import (
	"context"
	"net/http"

	"github.com/yeison-liscano/http-mcp/mcperr"
)

// Request is the per-call context handed to capability handlers. It carries
// the transport request surface (headers), the caller's granted scopes, and
// a keyed bag of host-injected values the engine neither creates nor
// interprets.
type Request struct {
	headers http.Header
	scopes  []string
	state   map[string]any
}

// RequestOption configures a Request at construction.
type RequestOption func(*Request)

// NewRequest builds a Request. Transports construct one per call.
func NewRequest(opts ...RequestOption) *Request {
	r := &Request{headers: http.Header{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithHeaders attaches the transport request headers.
func WithHeaders(h http.Header) RequestOption {
	return func(r *Request) {
		if h != nil {
			r.headers = h
		}
	}
}

// WithScopes attaches the caller's granted scopes.
func WithScopes(scopes []string) RequestOption {
	return func(r *Request) { r.scopes = scopes }
}

// WithState merges host-injected values into the request's state bag.
func WithState(state map[string]any) RequestOption {
	return func(r *Request) {
		if len(state) == 0 {
			return
		}
		if r.state == nil {
			r.state = make(map[string]any, len(state))
		}
		for k, v := range state {
			r.state[k] = v
		}
	}
}

// Header returns the first value of the named transport header.
func (r *Request) Header(key string) string { return r.headers.Get(key) }

// Headers returns the transport request headers.
func (r *Request) Headers() http.Header { return r.headers }

// Scopes returns the caller's granted scopes.
func (r *Request) Scopes() []string { return r.scopes }

// State returns the host-injected value for key. Asking for a key the host
// never configured is a host configuration fault, reported as a server
// error.
func State[T any](r *Request, key string) (T, error) {
	var zero T
	v, ok := r.state[key]
	if !ok {
		return zero, mcperr.NewServerError(mcperr.CodeInternalError, "State key %s is not configured", key)
	}
	typed, ok := v.(T)
	if !ok {
		return zero, mcperr.NewServerError(mcperr.CodeInternalError, "State key %s has unexpected type %T", key, v)
	}
	return typed, nil
}

// Arguments bundles the validated inputs of a call with its Request.
type Arguments[A any] struct {
	Request *Request
	Inputs  A
}

// NoArguments marks a tool or prompt that declares no inputs. Its schema is
// an object with no required properties.
type NoArguments struct{}

type stateKey struct{}

// ContextWithState stores a host-injected value under key so that transports
// can copy it into every Request they construct. Host middleware uses this
// to expose request-scoped collaborators to handlers.
func ContextWithState(ctx context.Context, key string, value any) context.Context {
	bag, _ := ctx.Value(stateKey{}).(map[string]any)
	next := make(map[string]any, len(bag)+1)
	for k, v := range bag {
		next[k] = v
	}
	next[key] = value
	return context.WithValue(ctx, stateKey{}, next)
}

// StateFromContext returns the host-injected state bag, if any.
func StateFromContext(ctx context.Context) map[string]any {
	bag, _ := ctx.Value(stateKey{}).(map[string]any)
	return bag
}
