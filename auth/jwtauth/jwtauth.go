// Package jwtauth is host-side middleware tooling: it validates RFC 9068
// JWT access tokens and injects the caller's granted scopes into the request
// context for the protocol engine to consume. The engine itself never
// depends on this package.
package jwtauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yeison-liscano/http-mcp/auth"
)

// Config controls validation policy for access tokens: issuer, accepted
// audiences, allowed signing algorithms, and clock-skew leeway.
type Config struct {
	Issuer            string
	ExpectedAudiences []string
	AllowedAlgs       []string
	Leeway            time.Duration
}

// DefaultConfig returns a Config with safe algorithm and leeway defaults.
func DefaultConfig() *Config {
	return &Config{AllowedAlgs: []string{"RS256"}, Leeway: 60 * time.Second}
}

type authenticator struct {
	cfg     *Config
	keyfunc jwt.Keyfunc
}

var _ auth.Authenticator = (*authenticator)(nil)

// New constructs an authenticator that validates tokens against a statically
// configured JWKS URI (no discovery). Keys are auto-refreshed.
func New(ctx context.Context, cfg *Config, jwksURI string) (auth.Authenticator, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}
	if jwksURI == "" {
		return nil, errors.New("jwks uri required")
	}

	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURI})
	if err != nil {
		return nil, fmt.Errorf("jwks init failed: %w", err)
	}
	return &authenticator{cfg: cfg, keyfunc: restrictAlgs(cfg, kf.Keyfunc)}, nil
}

// NewFromDiscovery resolves the issuer's jwks_uri through OIDC discovery and
// constructs an authenticator with the same validation policy as New.
func NewFromDiscovery(ctx context.Context, cfg *Config) (auth.Authenticator, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery failed: %w", err)
	}
	var meta struct {
		JwksURI string `json:"jwks_uri"`
	}
	if err := provider.Claims(&meta); err != nil {
		return nil, fmt.Errorf("invalid discovery metadata: %w", err)
	}
	if meta.JwksURI == "" {
		return nil, errors.New("discovery incomplete: missing jwks_uri")
	}

	kf, err := keyfunc.NewDefaultCtx(ctx, []string{meta.JwksURI})
	if err != nil {
		return nil, fmt.Errorf("jwks init failed: %w", err)
	}
	return &authenticator{cfg: cfg, keyfunc: restrictAlgs(cfg, kf.Keyfunc)}, nil
}

func checkConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if cfg.Issuer == "" {
		return errors.New("issuer is required")
	}
	if len(cfg.ExpectedAudiences) == 0 {
		return errors.New("at least one expected audience required")
	}
	if len(cfg.AllowedAlgs) == 0 {
		cfg.AllowedAlgs = []string{"RS256"}
	}
	if cfg.Leeway == 0 {
		cfg.Leeway = 60 * time.Second
	}
	return nil
}

func restrictAlgs(cfg *Config, kf jwt.Keyfunc) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		alg := t.Method.Alg()
		for _, a := range cfg.AllowedAlgs {
			if alg == a {
				return kf(t)
			}
		}
		return nil, fmt.Errorf("disallowed alg: %s", alg)
	}
}

// CheckAuthentication implements auth.Authenticator.
func (a *authenticator) CheckAuthentication(ctx context.Context, tok string) (auth.UserInfo, error) {
	if tok == "" {
		return nil, fmt.Errorf("%w: empty token", auth.ErrUnauthorized)
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods(a.cfg.AllowedAlgs),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(a.cfg.Issuer),
		jwt.WithLeeway(a.cfg.Leeway),
	)
	parsed, err := parser.Parse(tok, a.keyfunc)
	if err != nil {
		return nil, fmt.Errorf("%w: token parse/verify failed: %v", auth.ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}
	if !audIntersects(claims["aud"], a.cfg.ExpectedAudiences) {
		return nil, fmt.Errorf("%w: audience mismatch", auth.ErrUnauthorized)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing sub", auth.ErrUnauthorized)
	}
	return &userInfo{sub: sub, claims: claims}, nil
}

func audIntersects(aud any, wants []string) bool {
	wantSet := make(map[string]struct{}, len(wants))
	for _, w := range wants {
		wantSet[w] = struct{}{}
	}
	switch v := aud.(type) {
	case string:
		_, ok := wantSet[v]
		return ok
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				if _, ok2 := wantSet[s]; ok2 {
					return true
				}
			}
		}
	case []string:
		for _, s := range v {
			if _, ok := wantSet[s]; ok {
				return true
			}
		}
	}
	return false
}

type userInfo struct {
	sub    string
	claims jwt.MapClaims
}

func (u *userInfo) UserID() string { return u.sub }

// Scopes parses the RFC 8693 "scope" claim (space-delimited string) and
// falls back to an "scp" array claim.
func (u *userInfo) Scopes() []string {
	if s, ok := u.claims["scope"].(string); ok && s != "" {
		return splitScopes(s)
	}
	if arr, ok := u.claims["scp"].([]any); ok {
		out := make([]string, 0, len(arr))
		for _, e := range arr {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (u *userInfo) Claims(ref any) error {
	b, err := json.Marshal(map[string]any(u.claims))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, ref)
}
