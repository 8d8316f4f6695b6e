package mcpservice

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yeison-liscano/http-mcp/mcp"
	"github.com/yeison-liscano/http-mcp/mcperr"
)

// Prompt is a registered, schema-described callable that produces a sequence
// of role-tagged text messages.
type Prompt struct {
	name        string
	description string
	scopes      []string
	descriptor  mcp.Prompt
	handler     func(ctx context.Context, req *Request, raw json.RawMessage) ([]mcp.PromptMessage, error)
}

// Name returns the prompt's unique registry name.
func (p Prompt) Name() string { return p.name }

// Description returns the prompt description used in listings and in the
// prompts/get result.
func (p Prompt) Description() string { return p.description }

// Scopes returns the authorization scopes required to see and get the
// prompt. An empty tuple means public.
func (p Prompt) Scopes() []string { return p.scopes }

// Descriptor returns the wire descriptor with its named-argument list.
func (p Prompt) Descriptor() mcp.Prompt { return p.descriptor }

// Invoke validates raw arguments, runs the handler, and classifies the
// outcome the same way tools do.
func (p Prompt) Invoke(ctx context.Context, req *Request, raw json.RawMessage) ([]mcp.PromptMessage, error) {
	return p.handler(ctx, req, raw)
}

// PromptOption configures a prompt at construction.
type PromptOption func(*promptConfig)

type promptConfig struct {
	description string
	scopes      []string
}

// WithPromptDescription sets the description used in listings.
func WithPromptDescription(desc string) PromptOption {
	return func(c *promptConfig) { c.description = desc }
}

// WithPromptScopes requires the caller to hold every listed scope to see or
// get the prompt.
func WithPromptScopes(scopes ...string) PromptOption {
	return func(c *promptConfig) { c.scopes = scopes }
}

// NewPrompt registers a typed prompt handler under name. The named-argument
// list of the descriptor is derived from A's reflected schema: one entry per
// property, flagged required when the property appears in the schema's
// required list.
func NewPrompt[A any](name string, fn func(ctx context.Context, args Arguments[A]) ([]mcp.PromptMessage, error), opts ...PromptOption) Prompt {
	cfg := promptConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	title := titleFromName(name)
	description := cfg.description
	if description == "" {
		description = title
	}

	schema := reflectSchema[A](name + "Arguments")
	required := schema.Required
	requiredSet := make(map[string]bool, len(required))
	for _, r := range required {
		requiredSet[r] = true
	}

	args := []mcp.PromptArgument{}
	if schema.Properties != nil {
		for el := schema.Properties.Oldest(); el != nil; el = el.Next() {
			desc := el.Value.Description
			if desc == "" {
				desc = titleFromName(el.Key)
			}
			args = append(args, mcp.PromptArgument{
				Name:        el.Key,
				Description: desc,
				Required:    requiredSet[el.Key],
			})
		}
	}

	descriptor := mcp.Prompt{
		Name:        name,
		Title:       title,
		Description: description,
		Arguments:   args,
	}

	handler := func(ctx context.Context, req *Request, raw json.RawMessage) ([]mcp.PromptMessage, error) {
		var a A
		if issues := checkArguments(raw, required, &a); issues != nil {
			return nil, mcperr.NewArguments("prompt", name, marshalIssues(issues))
		}
		msgs, err := runPromptHandler(ctx, fn, Arguments[A]{Request: req, Inputs: a})
		if err != nil {
			return nil, classifyHandlerError(err, func(cause error) error {
				return mcperr.NewPromptInvocation(name, "Unknown error").WithCause(cause)
			})
		}
		return msgs, nil
	}

	return Prompt{name: name, description: description, scopes: cfg.scopes, descriptor: descriptor, handler: handler}
}

// NewPromptNoArgs registers a prompt whose handler declares no arguments.
// Validation is skipped and the zero-argument form is called directly.
func NewPromptNoArgs(name string, fn func(ctx context.Context) ([]mcp.PromptMessage, error), opts ...PromptOption) Prompt {
	cfg := promptConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	title := titleFromName(name)
	description := cfg.description
	if description == "" {
		description = title
	}

	descriptor := mcp.Prompt{
		Name:        name,
		Title:       title,
		Description: description,
		Arguments:   []mcp.PromptArgument{},
	}

	handler := func(ctx context.Context, _ *Request, _ json.RawMessage) ([]mcp.PromptMessage, error) {
		msgs, err := runPromptHandler(ctx, func(ctx context.Context, _ Arguments[NoArguments]) ([]mcp.PromptMessage, error) {
			return fn(ctx)
		}, Arguments[NoArguments]{})
		if err != nil {
			return nil, classifyHandlerError(err, func(cause error) error {
				return mcperr.NewPromptInvocation(name, "Unknown error").WithCause(cause)
			})
		}
		return msgs, nil
	}

	return Prompt{name: name, description: description, scopes: cfg.scopes, descriptor: descriptor, handler: handler}
}

func runPromptHandler[A any](ctx context.Context, fn func(ctx context.Context, args Arguments[A]) ([]mcp.PromptMessage, error), args Arguments[A]) (msgs []mcp.PromptMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return fn(ctx, args)
}
