// Package stdio serves the protocol over newline-delimited JSON-RPC on a
// reader/writer pair, by default the process's stdin and stdout. Messages are
// processed strictly in arrival order: a response is written before the next
// line is read.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/yeison-liscano/http-mcp/internal/engine"
	"github.com/yeison-liscano/http-mcp/internal/jsonrpc"
	"github.com/yeison-liscano/http-mcp/internal/logctx"
	"github.com/yeison-liscano/http-mcp/mcpservice"
)

// maxLineSize bounds a single inbound message line.
const maxLineSize = 4 * 1024 * 1024

// Handler is the line-framed stdio transport. Unlike the HTTP transport there
// is no per-request middleware, so the caller's headers, scopes, and state are
// fixed at construction and apply to every message on the stream.
type Handler struct {
	eng     *engine.Engine
	r       io.Reader
	w       io.Writer
	log     *slog.Logger
	headers http.Header
	scopes  []string
	state   map[string]any
}

// NewHandler constructs a stdio Handler reading from stdin and writing to
// stdout unless overridden.
func NewHandler(srv *mcpservice.Server, opts ...Option) *Handler {
	h := &Handler{
		r:   os.Stdin,
		w:   os.Stdout,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.eng = engine.NewEngine(srv, engine.WithLogger(h.log))
	return h
}

// Serve runs the read loop until EOF on the reader or context cancellation.
// EOF is a clean shutdown and returns nil. A line over maxLineSize is
// discarded and answered with an error response; the session continues with
// the next line.
func (h *Handler) Serve(ctx context.Context) error {
	in := bufio.NewReaderSize(h.r, 64*1024)
	out := bufio.NewWriter(h.w)

	req := mcpservice.NewRequest(
		mcpservice.WithHeaders(h.headers),
		mcpservice.WithScopes(h.scopes),
		mcpservice.WithState(h.state),
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, tooLong, readErr := readLine(in)
		if tooLong {
			h.log.ErrorContext(ctx, "line too long", slog.Int("limit", maxLineSize))
			resp := jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeInvalidParams, "Request body too large.", nil)
			if err := writeResponse(out, resp); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
		} else if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			mctx := logctx.WithRequestData(ctx, &logctx.RequestData{
				RequestID: uuid.NewString(),
				Transport: "stdio",
			})
			if resp := h.handleLine(mctx, trimmed, req); resp != nil {
				if err := writeResponse(out, resp); err != nil {
					return fmt.Errorf("write response: %w", err)
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return fmt.Errorf("read loop: %w", readErr)
		}
	}
}

// readLine reads through the next newline. A line over maxLineSize is
// discarded rather than buffered and reported via tooLong, leaving the reader
// positioned at the following line.
func readLine(r *bufio.Reader) ([]byte, bool, error) {
	var line []byte
	tooLong := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			line = append(line, chunk...)
			if len(line) > maxLineSize {
				tooLong = true
				line = nil
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, tooLong, err
	}
}

// handleLine parses and dispatches one message. It returns nil for
// notifications, which produce no output at all.
func (h *Handler) handleLine(ctx context.Context, line []byte, req *mcpservice.Request) *jsonrpc.Response {
	var probe struct {
		Method string          `json:"method"`
		ID     json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		h.log.ErrorContext(ctx, "parse error", slog.Any("error", err))
		return jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeInvalidParams, "Parse error", nil)
	}

	if strings.HasPrefix(probe.Method, jsonrpc.NotificationPrefix) {
		return nil
	}

	msg, err := jsonrpc.ParseRequest(line)
	if err != nil || msg.ID == nil {
		h.log.ErrorContext(ctx, "error validating message", slog.Any("error", err))
		return jsonrpc.NewErrorResponse(rawRequestID(probe.ID), jsonrpc.ErrorCodeInvalidParams, "Error validating message request", nil)
	}

	return h.eng.Handle(ctx, msg, req)
}

func writeResponse(out *bufio.Writer, resp *jsonrpc.Response) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if _, err := out.Write(payload); err != nil {
		return err
	}
	if err := out.WriteByte('\n'); err != nil {
		return err
	}
	return out.Flush()
}

func rawRequestID(raw json.RawMessage) *jsonrpc.RequestID {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var id jsonrpc.RequestID
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil
	}
	return &id
}
