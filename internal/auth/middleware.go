// Package auth guards the administrative API with service-role bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/supabase-admin/internal/platform/httpx"
)

// DefaultRole is the role claim carried by Supabase service-role keys.
const DefaultRole = "service_role"

type claimsContextKey struct{}

// Claims are the token claims the middleware relies on.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 tokens signed with the project JWT secret.
type Verifier struct {
	secret []byte
	roles  []string
	parser *jwt.Parser
}

// NewVerifier constructs a Verifier accepting the given roles.
func NewVerifier(secret string, roles ...string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("auth: jwt secret required")
	}
	if len(roles) == 0 {
		roles = []string{DefaultRole}
	}
	return &Verifier{
		secret: []byte(secret),
		roles:  roles,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

// Verify parses the token and checks its role claim.
func (v *Verifier) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid token: %w", httpx.ErrUnauthorized)
	}
	if !slices.Contains(v.roles, claims.Role) {
		return nil, fmt.Errorf("role %q not allowed: %w", claims.Role, httpx.ErrForbidden)
	}
	return claims, nil
}

// Middleware rejects requests without a valid bearer token.
func (v *Verifier) Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httpx.RespondError(w, fmt.Errorf("missing bearer token: %w", httpx.ErrUnauthorized))
				return
			}
			claims, err := v.Verify(token)
			if err != nil {
				logger.Warn("admin auth rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
		})
	}
}

// ContextWithClaims stores the claims in context.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext extracts the claims from context.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsContextKey{}).(*Claims)
	return claims
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
