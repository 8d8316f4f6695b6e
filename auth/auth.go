// Package auth defines the authorization-scope contract between the
// protocol engine and its host. The engine never establishes caller
// identity itself: host middleware validates credentials, derives the
// caller's granted scopes, and injects them into the request context. The
// engine only reads them back and applies the subset test.
package auth

import (
	"context"
	"errors"
)

// ErrUnauthorized indicates authentication failed or no valid credentials
// were supplied.
var ErrUnauthorized = errors.New("unauthorized")

// UserInfo represents an authenticated principal.
type UserInfo interface {
	// UserID returns the unique identifier of the principal.
	UserID() string
	// Scopes returns the scopes granted to the principal.
	Scopes() []string
	// Claims unmarshals the principal's claims into the provided struct
	// reference.
	Claims(ref any) error
}

// Authenticator validates bearer tokens and returns the associated
// principal. Implementations return ErrUnauthorized for invalid
// credentials.
type Authenticator interface {
	CheckAuthentication(ctx context.Context, tok string) (UserInfo, error)
}

// HasRequiredScopes reports whether a caller holding granted satisfies a
// capability requiring required: true iff required is empty or a subset of
// granted.
func HasRequiredScopes(granted, required []string) bool {
	if len(required) == 0 {
		return true
	}
	grantedSet := make(map[string]struct{}, len(granted))
	for _, s := range granted {
		grantedSet[s] = struct{}{}
	}
	for _, s := range required {
		if _, ok := grantedSet[s]; !ok {
			return false
		}
	}
	return true
}

type scopesKey struct{}

// ContextWithScopes records the caller's granted scopes for the current
// request.
func ContextWithScopes(ctx context.Context, scopes ...string) context.Context {
	return context.WithValue(ctx, scopesKey{}, scopes)
}

// ScopesFromContext returns the caller's granted scopes, or nil when no
// middleware established any.
func ScopesFromContext(ctx context.Context) []string {
	scopes, _ := ctx.Value(scopesKey{}).([]string)
	return scopes
}
