// Package engine is the method dispatcher shared by both transports. It
// routes validated JSON-RPC requests to initialize, tools, and prompts
// handling, owns the supported protocol-version set, and is the single
// place an unclassified fault is converted into a wire-safe internal error.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/yeison-liscano/http-mcp/internal/jsonrpc"
	"github.com/yeison-liscano/http-mcp/internal/logctx"
	"github.com/yeison-liscano/http-mcp/mcp"
	"github.com/yeison-liscano/http-mcp/mcperr"
	"github.com/yeison-liscano/http-mcp/mcpservice"
)

// SupportedProtocolVersions is the closed set of protocol versions the
// dispatcher negotiates at initialize.
var SupportedProtocolVersions = []string{"2025-03-26", "2025-06-18", "2025-11-25"}

// Engine dispatches validated requests against a capability registry. It is
// stateless per call and safe for concurrent use.
type Engine struct {
	srv *mcpservice.Server
	log *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for dispatch diagnostics. Logs are
// discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEngine builds a dispatcher over the given registry.
func NewEngine(srv *mcpservice.Server, opts ...Option) *Engine {
	e := &Engine{srv: srv, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle routes one non-notification request to its handler and always
// returns exactly one response. Unclassified faults are caught here and
// reported as an internal error without leaking their text to the wire.
func (e *Engine) Handle(ctx context.Context, msg *jsonrpc.Request, req *mcpservice.Request) (resp *jsonrpc.Response) {
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: msg.Method, ID: msg.ID.String()})

	defer func() {
		if r := recover(); r != nil {
			e.log.ErrorContext(ctx, "dispatch panic", slog.Any("panic", r))
			resp = jsonrpc.NewErrorResponse(msg.ID, jsonrpc.ErrorCodeInternalError, "Internal error", nil)
		}
	}()

	switch {
	case msg.Method == string(mcp.InitializeMethod):
		return e.handleInitialize(ctx, msg)
	case strings.HasPrefix(msg.Method, mcp.ToolsMethodPrefix):
		return e.handleTools(ctx, msg, req)
	case strings.HasPrefix(msg.Method, mcp.PromptsMethodPrefix):
		return e.handlePrompts(ctx, msg, req)
	default:
		return jsonrpc.NewErrorResponse(msg.ID, jsonrpc.ErrorCodeMethodNotFound, fmt.Sprintf("Method not found: %s", msg.Method), nil)
	}
}

// versionMismatch is the structured data of an unsupported-version error.
type versionMismatch struct {
	Supported []string `json:"supported"`
	Requested string   `json:"requested"`
}

func (e *Engine) handleInitialize(ctx context.Context, msg *jsonrpc.Request) *jsonrpc.Response {
	params, issues := decodeInitializeParams(msg.Params)
	if issues != "" {
		return jsonrpc.NewErrorResponse(msg.ID, jsonrpc.ErrorCodeInvalidParams, issues, nil)
	}

	if !slices.Contains(SupportedProtocolVersions, params.ProtocolVersion) {
		e.log.ErrorContext(ctx, "unsupported protocol version", slog.String("requested", params.ProtocolVersion))
		return jsonrpc.NewErrorResponse(msg.ID, jsonrpc.ErrorCodeInvalidParams, "Unsupported protocol version", versionMismatch{
			Supported: SupportedProtocolVersions,
			Requested: params.ProtocolVersion,
		})
	}

	return e.resultResponse(ctx, msg.ID, mcp.InitializeResult{
		ProtocolVersion: params.ProtocolVersion,
		Capabilities:    e.srv.Capabilities(),
		ServerInfo:      mcp.ServerInfo{Name: e.srv.Name(), Version: e.srv.Version()},
		Instructions:    e.srv.Instructions(),
	})
}

// decodeInitializeParams enforces the three required initialize fields and
// reports every missing field path in one structured issue list.
func decodeInitializeParams(raw json.RawMessage) (mcp.InitializeParams, string) {
	var params mcp.InitializeParams
	fields, err := paramsFields(raw)
	if err != nil {
		return params, missingParamsIssues("protocolVersion", "clientInfo", "capabilities")
	}

	var missing []string
	for _, name := range []string{"protocolVersion", "clientInfo", "capabilities"} {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return params, missingParamsIssues(missing...)
	}
	if err := json.Unmarshal(raw, &params); err != nil || params.ProtocolVersion == "" {
		return params, missingParamsIssues("protocolVersion")
	}
	return params, ""
}

func (e *Engine) handleTools(ctx context.Context, msg *jsonrpc.Request, req *mcpservice.Request) *jsonrpc.Response {
	switch mcp.Method(msg.Method) {
	case mcp.ToolsListMethod:
		return e.resultResponse(ctx, msg.ID, mcp.ToolsListResult{
			Tools:      e.srv.ListTools(req.Scopes()),
			NextCursor: "",
		})
	case mcp.ToolsCallMethod:
		return e.callTool(ctx, msg, req)
	default:
		return jsonrpc.NewErrorResponse(msg.ID, jsonrpc.ErrorCodeMethodNotFound, fmt.Sprintf("Method not found: %s", msg.Method), nil)
	}
}

func (e *Engine) callTool(ctx context.Context, msg *jsonrpc.Request, req *mcpservice.Request) *jsonrpc.Response {
	var params mcp.ToolsCallParams
	if issues := decodeNamedParams(msg.Params, &params); issues != "" {
		return jsonrpc.NewErrorResponse(msg.ID, jsonrpc.ErrorCodeInvalidParams, issues, nil)
	}
	ctx = logctx.WithCapabilityData(ctx, &logctx.CapabilityData{Kind: "tool", Name: params.Name})

	tool, err := e.srv.ResolveTool(params.Name, req.Scopes())
	if err != nil {
		// Not-found (including unauthorized) is a structurally valid tool
		// result with the error indicator set.
		return e.toolErrorResponse(ctx, msg.ID, err)
	}

	out, err := tool.Invoke(ctx, req, params.Arguments)
	if err != nil {
		var perr *mcperr.ProtocolError
		if errors.As(err, &perr) {
			return jsonrpc.NewErrorResponse(msg.ID, jsonrpc.ErrorCode(perr.Code()), perr.Error(), nil)
		}
		e.log.ErrorContext(ctx, "tool invocation failed", faultAttrs(err)...)
		return e.toolErrorResponse(ctx, msg.ID, err)
	}

	payload, merr := json.Marshal(out)
	if merr != nil {
		e.log.ErrorContext(ctx, "tool result marshal failed", slog.Any("error", merr))
		return e.toolErrorResponse(ctx, msg.ID, mcperr.NewToolInvocation(params.Name, "Unknown error"))
	}
	return e.resultResponse(ctx, msg.ID, mcp.ToolsCallResult{
		Content:           []mcp.TextContent{mcp.NewTextContent(string(payload))},
		IsError:           false,
		StructuredContent: payload,
	})
}

func (e *Engine) toolErrorResponse(ctx context.Context, id *jsonrpc.RequestID, err error) *jsonrpc.Response {
	return e.resultResponse(ctx, id, mcp.ToolsCallResult{
		Content: []mcp.TextContent{mcp.NewTextContent(err.Error())},
		IsError: true,
	})
}

func (e *Engine) handlePrompts(ctx context.Context, msg *jsonrpc.Request, req *mcpservice.Request) *jsonrpc.Response {
	switch mcp.Method(msg.Method) {
	case mcp.PromptsListMethod:
		return e.resultResponse(ctx, msg.ID, mcp.PromptsListResult{
			Prompts: e.srv.ListPrompts(req.Scopes()),
		})
	case mcp.PromptsGetMethod:
		return e.getPrompt(ctx, msg, req)
	default:
		return jsonrpc.NewErrorResponse(msg.ID, jsonrpc.ErrorCodeMethodNotFound, fmt.Sprintf("Method not found: %s", msg.Method), nil)
	}
}

func (e *Engine) getPrompt(ctx context.Context, msg *jsonrpc.Request, req *mcpservice.Request) *jsonrpc.Response {
	var params mcp.PromptsGetParams
	if issues := decodeNamedParams(msg.Params, &params); issues != "" {
		return jsonrpc.NewErrorResponse(msg.ID, jsonrpc.ErrorCodeInvalidParams, issues, nil)
	}
	ctx = logctx.WithCapabilityData(ctx, &logctx.CapabilityData{Kind: "prompt", Name: params.Name})

	prompt, err := e.srv.ResolvePrompt(params.Name, req.Scopes())
	if err != nil {
		var serr *mcperr.ServerError
		code := jsonrpc.ErrorCodeResourceNotFound
		if errors.As(err, &serr) {
			code = jsonrpc.ErrorCode(serr.Code())
		}
		return jsonrpc.NewErrorResponse(msg.ID, code, err.Error(), nil)
	}

	msgs, err := prompt.Invoke(ctx, req, params.Arguments)
	if err != nil {
		var perr *mcperr.ProtocolError
		if errors.As(err, &perr) {
			return jsonrpc.NewErrorResponse(msg.ID, jsonrpc.ErrorCode(perr.Code()), perr.Error(), nil)
		}
		e.log.ErrorContext(ctx, "prompt invocation failed", faultAttrs(err)...)
		return e.resultResponse(ctx, msg.ID, mcp.PromptsGetResult{
			Description: err.Error(),
			Messages:    []mcp.PromptMessage{},
		})
	}
	if msgs == nil {
		msgs = []mcp.PromptMessage{}
	}
	return e.resultResponse(ctx, msg.ID, mcp.PromptsGetResult{
		Description: prompt.Description(),
		Messages:    msgs,
	})
}

// faultAttrs renders an invocation failure for logging: the wire-safe error
// itself, plus the underlying cause when one was retained.
func faultAttrs(err error) []any {
	attrs := []any{slog.Any("error", err)}
	if cause := errors.Unwrap(err); cause != nil {
		attrs = append(attrs, slog.Any("cause", cause))
	}
	return attrs
}

func (e *Engine) resultResponse(ctx context.Context, id *jsonrpc.RequestID, result any) *jsonrpc.Response {
	resp, err := jsonrpc.NewResultResponse(id, result)
	if err != nil {
		e.log.ErrorContext(ctx, "result marshal failed", slog.Any("error", err))
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeInternalError, "Internal error", nil)
	}
	return resp
}
