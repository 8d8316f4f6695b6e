// Package httptransport serves the protocol over single-shot HTTP POST
// exchanges: one request body in, one response body out, no streaming and no
// server-held session state. Batched request arrays fan out concurrently and
// the response array preserves the order of its non-notification inputs.
package httptransport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/elnormous/contenttype"
	"github.com/google/uuid"

	"github.com/yeison-liscano/http-mcp/auth"
	"github.com/yeison-liscano/http-mcp/internal/engine"
	"github.com/yeison-liscano/http-mcp/internal/jsonrpc"
	"github.com/yeison-liscano/http-mcp/internal/logctx"
	"github.com/yeison-liscano/http-mcp/mcp"
	"github.com/yeison-liscano/http-mcp/mcpservice"
)

var _ http.Handler = (*Handler)(nil)

var jsonMediaType = contenttype.NewMediaType("application/json")

// maxMessageSize bounds the accepted request body.
const maxMessageSize = 4 * 1024 * 1024

// Option configures the Handler.
type Option func(*newConfig)

type newConfig struct {
	logger *slog.Logger
	state  map[string]any
}

// WithLogger sets the slog logger used by the handler. If not provided, logs
// are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *newConfig) { c.logger = l }
}

// WithState seeds the request state bag handed to every capability handler.
func WithState(state map[string]any) Option {
	return func(c *newConfig) { c.state = state }
}

// Handler is the single-shot HTTP transport. It accepts POSTed JSON-RPC
// payloads, dispatches them, and writes the full response in the same
// exchange.
type Handler struct {
	eng   *engine.Engine
	log   *slog.Logger
	state map[string]any
}

// New builds an http.Handler serving the given capability registry.
func New(srv *mcpservice.Server, opts ...Option) *Handler {
	cfg := newConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Handler{
		eng:   engine.NewEngine(srv, engine.WithLogger(cfg.logger)),
		log:   cfg.logger,
		state: cfg.state,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte("Method Not Allowed"))
		return
	}

	ctx := logctx.WithRequestData(r.Context(), &logctx.RequestData{
		RequestID:  uuid.NewString(),
		Transport:  "http",
		RemoteAddr: r.RemoteAddr,
		UserAgent:  r.UserAgent(),
	})
	r = r.WithContext(ctx)

	mt, mtErr := contenttype.GetMediaType(r)
	if mtErr != nil || !mt.Matches(jsonMediaType) {
		h.log.ErrorContext(ctx, "unsupported media type", slog.String("content_type", r.Header.Get("Content-Type")))
		h.writeResponse(w, http.StatusUnsupportedMediaType,
			jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeInvalidParams,
				"Unsupported Media Type: Content-Type must be application/json", nil))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize+1))
	if err != nil {
		h.writeResponse(w, http.StatusBadRequest,
			jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeInvalidParams, "Parse error: Invalid body", nil))
		return
	}
	if len(body) > maxMessageSize {
		h.log.ErrorContext(ctx, "request body too large", slog.Int("size", len(body)))
		h.writeResponse(w, http.StatusRequestEntityTooLarge,
			jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeInvalidParams, "Request body too large.", nil))
		return
	}

	req := h.serviceRequest(r)

	if isBatch(body) {
		h.serveBatch(w, r, body, req)
		return
	}
	h.serveSingle(w, r, body, req)
}

func (h *Handler) serveSingle(w http.ResponseWriter, r *http.Request, body []byte, req *mcpservice.Request) {
	ctx := r.Context()

	probe, ok := probeMessage(body)
	if !ok {
		h.writeResponse(w, http.StatusBadRequest,
			jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeInvalidParams, "Parse error: Invalid body", nil))
		return
	}

	if strings.HasPrefix(probe.Method, jsonrpc.NotificationPrefix) {
		w.Header().Set("Content-Type", jsonMediaType.String())
		w.WriteHeader(http.StatusOK)
		return
	}

	msg, err := jsonrpc.ParseRequest(body)
	if err != nil || msg.ID == nil {
		h.log.ErrorContext(ctx, "error validating message", slog.Any("error", err))
		h.writeResponse(w, http.StatusBadRequest,
			jsonrpc.NewErrorResponse(probe.requestID(), envelopeErrorCode(probe.Method), "Error validating message request", nil))
		return
	}

	resp := h.eng.Handle(ctx, msg, req)

	// Failed initialization is the one dispatch outcome that surfaces as a
	// non-200 status.
	status := http.StatusOK
	if msg.Method == string(mcp.InitializeMethod) && resp.Error != nil {
		status = http.StatusBadRequest
	}
	h.writeResponse(w, status, resp)
}

func (h *Handler) serveBatch(w http.ResponseWriter, r *http.Request, body []byte, req *mcpservice.Request) {
	ctx := r.Context()

	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		h.writeResponse(w, http.StatusBadRequest,
			jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeInvalidParams, "Parse error: Invalid body", nil))
		return
	}

	msgs := make([]*jsonrpc.Request, 0, len(raws))
	for _, raw := range raws {
		probe, ok := probeMessage(raw)
		if !ok {
			h.writeResponse(w, http.StatusBadRequest,
				jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeInvalidParams, "Parse error: Invalid body", nil))
			return
		}
		if strings.HasPrefix(probe.Method, jsonrpc.NotificationPrefix) {
			continue
		}
		msg, err := jsonrpc.ParseRequest(raw)
		if err != nil || msg.ID == nil {
			h.log.ErrorContext(ctx, "error validating batched message", slog.Any("error", err))
			h.writeResponse(w, http.StatusBadRequest,
				jsonrpc.NewErrorResponse(probe.requestID(), envelopeErrorCode(probe.Method), "Error validating message request", nil))
			return
		}
		msgs = append(msgs, msg)
	}

	responses := make([]*jsonrpc.Response, len(msgs))
	var wg sync.WaitGroup
	for i, msg := range msgs {
		i, msg := i, msg
		wg.Add(1)
		go func() {
			defer wg.Done()
			responses[i] = h.eng.Handle(ctx, msg, req)
		}()
	}
	wg.Wait()

	if len(responses) == 1 {
		h.writeResponse(w, http.StatusOK, responses[0])
		return
	}
	h.writeResponse(w, http.StatusOK, responses)
}

// serviceRequest assembles the capability-facing view of the HTTP request:
// its headers, the scopes granted by host middleware, and the state bag.
func (h *Handler) serviceRequest(r *http.Request) *mcpservice.Request {
	state := map[string]any{}
	for k, v := range h.state {
		state[k] = v
	}
	for k, v := range mcpservice.StateFromContext(r.Context()) {
		state[k] = v
	}
	return mcpservice.NewRequest(
		mcpservice.WithHeaders(r.Header),
		mcpservice.WithScopes(auth.ScopesFromContext(r.Context())),
		mcpservice.WithState(state),
	)
}

func (h *Handler) writeResponse(w http.ResponseWriter, status int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.log.Error("response marshal failed", slog.Any("error", err))
		payload, _ = json.Marshal(jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeInternalError, "Internal error", nil))
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func isBatch(body []byte) bool {
	for _, b := range body {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

// messageProbe is a tolerant pre-validation peek at an incoming payload, used
// to route notifications and to recover the caller's id for error replies.
type messageProbe struct {
	Method string          `json:"method"`
	ID     json.RawMessage `json:"id"`
}

func probeMessage(body []byte) (messageProbe, bool) {
	var probe messageProbe
	if err := json.Unmarshal(body, &probe); err != nil {
		return probe, false
	}
	return probe, true
}

func (p messageProbe) requestID() *jsonrpc.RequestID {
	if len(p.ID) == 0 || string(p.ID) == "null" {
		return nil
	}
	var id jsonrpc.RequestID
	if err := json.Unmarshal(p.ID, &id); err != nil {
		return nil
	}
	return &id
}

// envelopeErrorCode picks the error code for an envelope that failed
// validation: unknown methods report method-not-found, known methods report
// invalid params.
func envelopeErrorCode(method string) jsonrpc.ErrorCode {
	if !mcp.IsSupportedMethod(method) {
		return jsonrpc.ErrorCodeMethodNotFound
	}
	return jsonrpc.ErrorCodeInvalidParams
}
