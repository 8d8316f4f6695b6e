package stdio

import (
	"io"
	"log/slog"
	"net/http"
)

// Option customizes a Handler.
type Option func(*Handler)

// WithIO sets the reader and writer for the handler.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(h *Handler) {
		if r != nil {
			h.r = r
		}
		if w != nil {
			h.w = w
		}
	}
}

// WithReader overrides the input stream.
func WithReader(r io.Reader) Option {
	return func(h *Handler) {
		if r != nil {
			h.r = r
		}
	}
}

// WithWriter overrides the output stream.
func WithWriter(w io.Writer) Option {
	return func(h *Handler) {
		if w != nil {
			h.w = w
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithHeaders sets the synthetic request headers visible to every capability
// handler on the stream.
func WithHeaders(headers http.Header) Option {
	return func(h *Handler) {
		if headers != nil {
			h.headers = headers
		}
	}
}

// WithScopes grants the peer a fixed scope set for the life of the stream.
func WithScopes(scopes ...string) Option {
	return func(h *Handler) { h.scopes = scopes }
}

// WithState seeds the request state bag handed to every capability handler.
func WithState(state map[string]any) Option {
	return func(h *Handler) { h.state = state }
}
