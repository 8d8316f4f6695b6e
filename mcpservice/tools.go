package mcpservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yeison-liscano/http-mcp/mcp"
	"github.com/yeison-liscano/http-mcp/mcperr"
)

// Tool is a registered, schema-described callable. The descriptor is
// rendered once at construction and never mutated.
type Tool struct {
	name       string
	scopes     []string
	descriptor mcp.Tool
	handler    func(ctx context.Context, req *Request, raw json.RawMessage) (any, error)
}

// Name returns the tool's unique registry name.
func (t Tool) Name() string { return t.name }

// Scopes returns the authorization scopes required to see and call the
// tool. An empty tuple means public.
func (t Tool) Scopes() []string { return t.scopes }

// Descriptor returns the schema-rendered wire descriptor.
func (t Tool) Descriptor() mcp.Tool { return t.descriptor }

// Invoke validates raw arguments against the declared input schema, runs the
// handler, and classifies the outcome. Validation failures are protocol
// errors carrying the structured issue list; handler faults are server
// errors whose original text is never echoed to the caller.
func (t Tool) Invoke(ctx context.Context, req *Request, raw json.RawMessage) (any, error) {
	return t.handler(ctx, req, raw)
}

// ToolOption configures a tool at construction.
type ToolOption func(*toolConfig)

type toolConfig struct {
	description        string
	scopes             []string
	returnErrorMessage bool
}

// WithToolDescription sets the description used in listings.
func WithToolDescription(desc string) ToolOption {
	return func(c *toolConfig) { c.description = desc }
}

// WithToolScopes requires the caller to hold every listed scope to see or
// invoke the tool.
func WithToolScopes(scopes ...string) ToolOption {
	return func(c *toolConfig) { c.scopes = scopes }
}

// WithReturnErrorMessage opts the tool into returning handler errors as
// data: the output schema becomes the {output, error_message} wrapper and an
// invocation failure serializes into it instead of the isError framing.
func WithReturnErrorMessage() ToolOption {
	return func(c *toolConfig) { c.returnErrorMessage = true }
}

// NewTool registers a typed handler under name. A is the declared argument
// struct (use NoArguments for none) and O the declared output struct. The
// input and output schemas are reflected from the type declarations at
// construction time.
func NewTool[A, O any](name string, fn func(ctx context.Context, args Arguments[A]) (O, error), opts ...ToolOption) Tool {
	cfg := toolConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	title := titleFromName(name)
	description := cfg.description
	if description == "" {
		description = "No description"
	}

	inputSchema := reflectSchema[A](name + "Arguments")
	var outputSchema json.RawMessage
	if cfg.returnErrorMessage {
		outputSchema = marshalSchema(reflectSchema[InvocationResult[O]](name + "Output"))
	} else {
		outputSchema = marshalSchema(reflectSchema[O](name + "Output"))
	}
	required := inputSchema.Required

	descriptor := mcp.Tool{
		Name:         name,
		Title:        title,
		Description:  description,
		InputSchema:  marshalSchema(inputSchema),
		OutputSchema: outputSchema,
		Annotations: mcp.ToolAnnotations{
			Title:           title,
			ReadOnlyHint:    false,
			DestructiveHint: false,
			IdempotentHint:  true,
			OpenWorldHint:   true,
		},
	}

	handler := func(ctx context.Context, req *Request, raw json.RawMessage) (any, error) {
		var a A
		if issues := checkArguments(raw, required, &a); issues != nil {
			return nil, mcperr.NewArguments("tool", name, marshalIssues(issues))
		}

		out, err := runToolHandler(ctx, fn, Arguments[A]{Request: req, Inputs: a})
		if err != nil {
			classified := classifyHandlerError(err, func(cause error) error {
				return mcperr.NewToolInvocation(name, "Unknown error").WithCause(cause)
			})
			if cfg.returnErrorMessage {
				msg := classified.Error()
				return InvocationResult[O]{ErrorMessage: &msg}, nil
			}
			return nil, classified
		}
		if cfg.returnErrorMessage {
			return InvocationResult[O]{Output: &out}, nil
		}
		return out, nil
	}

	return Tool{name: name, scopes: cfg.scopes, descriptor: descriptor, handler: handler}
}

// runToolHandler executes the handler with panic containment so a faulty
// handler cannot tear down the dispatch loop.
func runToolHandler[A, O any](ctx context.Context, fn func(ctx context.Context, args Arguments[A]) (O, error), args Arguments[A]) (out O, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return fn(ctx, args)
}

// classifyHandlerError keeps already-classified taxonomy errors intact and
// wraps everything else as an invocation failure.
func classifyHandlerError(err error, wrap func(cause error) error) error {
	var serr *mcperr.ServerError
	if errors.As(err, &serr) {
		return serr
	}
	var perr *mcperr.ProtocolError
	if errors.As(err, &perr) {
		return perr
	}
	return wrap(err)
}
