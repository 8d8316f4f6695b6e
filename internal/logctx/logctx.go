// Package logctx enriches slog records with request-scoped attributes
// carried in the context: transport request data, the JSON-RPC message being
// dispatched, and the capability being invoked.
package logctx

import (
	"context"
	"log/slog"
)

// Handler wraps a slog.Handler and appends context-carried groups to every
// record.
type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		r.AddAttrs(slog.Group("req",
			slog.String("id", rd.RequestID),
			slog.String("transport", rd.Transport),
			slog.String("remote_addr", rd.RemoteAddr),
			slog.String("user_agent", rd.UserAgent),
		))
	}

	if msg, ok := ctx.Value(rpcMsgKey{}).(*RPCMessage); ok {
		r.AddAttrs(slog.Group("rpc",
			slog.String("method", msg.Method),
			slog.String("id", msg.ID),
		))
	}

	if cd, ok := ctx.Value(capabilityDataKey{}).(*CapabilityData); ok {
		r.AddAttrs(slog.Group("capability",
			slog.String("kind", cd.Kind),
			slog.String("name", cd.Name),
		))
	}

	return h.Handler.Handle(ctx, r)
}

type requestDataKey struct{}

// RequestData identifies the transport-level request.
type RequestData struct {
	RequestID  string
	Transport  string
	RemoteAddr string
	UserAgent  string
}

func WithRequestData(ctx context.Context, data *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, data)
}

type rpcMsgKey struct{}

// RPCMessage identifies the JSON-RPC message being dispatched.
type RPCMessage struct {
	Method string
	ID     string
}

func WithRPCMessage(ctx context.Context, msg *RPCMessage) context.Context {
	return context.WithValue(ctx, rpcMsgKey{}, msg)
}

type capabilityDataKey struct{}

// CapabilityData identifies the tool or prompt being invoked.
type CapabilityData struct {
	Kind string
	Name string
}

func WithCapabilityData(ctx context.Context, data *CapabilityData) context.Context {
	return context.WithValue(ctx, capabilityDataKey{}, data)
}
