// Package mcpservice implements the capability registry and invocation
// pipeline: typed tool and prompt registration, schema generation, scope
// filtering, argument validation, and outcome classification. Transports
// drive it through the dispatcher in internal/engine.
package mcpservice

import (
	"fmt"

	"github.com/yeison-liscano/http-mcp/auth"
	"github.com/yeison-liscano/http-mcp/mcp"
	"github.com/yeison-liscano/http-mcp/mcperr"
)

// Server owns the immutable tool and prompt registries. It is built once at
// process startup and is safe for concurrent use without locking.
type Server struct {
	name         string
	version      string
	instructions string
	tools        []Tool
	prompts      []Prompt
}

// ServerOption configures a Server at construction.
type ServerOption func(*Server)

// WithTools registers the given tools in order.
func WithTools(tools ...Tool) ServerOption {
	return func(s *Server) { s.tools = append(s.tools, tools...) }
}

// WithPrompts registers the given prompts in order.
func WithPrompts(prompts ...Prompt) ServerOption {
	return func(s *Server) { s.prompts = append(s.prompts, prompts...) }
}

// WithInstructions sets the optional instructions surfaced in the initialize
// result.
func WithInstructions(instructions string) ServerOption {
	return func(s *Server) { s.instructions = instructions }
}

// NewServer builds the registry. Capability names must be unique within
// their registry; a duplicate is a registration error.
func NewServer(name, version string, opts ...ServerOption) (*Server, error) {
	s := &Server{name: name, version: version}
	for _, opt := range opts {
		opt(s)
	}

	seenTools := make(map[string]bool, len(s.tools))
	for _, t := range s.tools {
		if seenTools[t.Name()] {
			return nil, fmt.Errorf("duplicate tool name: %s", t.Name())
		}
		seenTools[t.Name()] = true
	}
	seenPrompts := make(map[string]bool, len(s.prompts))
	for _, p := range s.prompts {
		if seenPrompts[p.Name()] {
			return nil, fmt.Errorf("duplicate prompt name: %s", p.Name())
		}
		seenPrompts[p.Name()] = true
	}

	return s, nil
}

// Name returns the server identity name.
func (s *Server) Name() string { return s.name }

// Version returns the server identity version.
func (s *Server) Version() string { return s.version }

// Instructions returns the optional initialize instructions.
func (s *Server) Instructions() string { return s.instructions }

// Capabilities summarizes the registry: a capability is present iff at least
// one matching entry is registered.
func (s *Server) Capabilities() mcp.ServerCapabilities {
	caps := mcp.ServerCapabilities{}
	if len(s.tools) > 0 {
		caps.Tools = &mcp.Capability{}
	}
	if len(s.prompts) > 0 {
		caps.Prompts = &mcp.Capability{}
	}
	return caps
}

// ListTools returns the descriptors visible to a caller holding scopes, in
// registration order.
func (s *Server) ListTools(scopes []string) []mcp.Tool {
	out := make([]mcp.Tool, 0, len(s.tools))
	for _, t := range s.tools {
		if auth.HasRequiredScopes(scopes, t.Scopes()) {
			out = append(out, t.Descriptor())
		}
	}
	return out
}

// ListPrompts returns the descriptors visible to a caller holding scopes, in
// registration order.
func (s *Server) ListPrompts(scopes []string) []mcp.Prompt {
	out := make([]mcp.Prompt, 0, len(s.prompts))
	for _, p := range s.prompts {
		if auth.HasRequiredScopes(scopes, p.Scopes()) {
			out = append(out, p.Descriptor())
		}
	}
	return out
}

// ResolveTool returns the named tool if it exists and the caller's scopes
// permit it. An unauthorized caller receives the identical not-found error
// as for a nonexistent name, so existence cannot be probed.
func (s *Server) ResolveTool(name string, scopes []string) (Tool, error) {
	for _, t := range s.tools {
		if t.Name() == name && auth.HasRequiredScopes(scopes, t.Scopes()) {
			return t, nil
		}
	}
	return Tool{}, mcperr.NewToolNotFound(name)
}

// ResolvePrompt returns the named prompt if it exists and the caller's
// scopes permit it, with the same anti-enumeration policy as ResolveTool.
func (s *Server) ResolvePrompt(name string, scopes []string) (Prompt, error) {
	for _, p := range s.prompts {
		if p.Name() == name && auth.HasRequiredScopes(scopes, p.Scopes()) {
			return p, nil
		}
	}
	return Prompt{}, mcperr.NewPromptNotFound(name)
}
