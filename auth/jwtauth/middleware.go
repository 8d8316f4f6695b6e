package jwtauth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yeison-liscano/http-mcp/auth"
)

func splitScopes(s string) []string {
	return strings.Fields(s)
}

// Middleware returns an http middleware that validates Bearer tokens with a
// and records the token's scopes in the request context. Requests without a
// token pass through unauthenticated (empty scope set, public capabilities
// only); requests with an invalid token are rejected with 401.
func Middleware(a auth.Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			tok, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := a.CheckAuthentication(r.Context(), tok)
			if err != nil {
				if !errors.Is(err, auth.ErrUnauthorized) {
					log.ErrorContext(r.Context(), "authentication check failed", slog.Any("error", err))
				}
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := auth.ContextWithScopes(r.Context(), user.Scopes()...)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
