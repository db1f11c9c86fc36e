// Package auth provides bearer token authentication middleware.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/prn-tf/libreport/internal/token"
)

// claimsCtxKey is the context key under which verified claims are stored.
type claimsCtxKey struct{}

// ClaimsFromContext returns the verified claims stored by RequireAuth.
// The second return value is false if the request was not authenticated.
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsCtxKey{}).(*token.Claims)
	return claims, ok
}

// WithClaims stores claims in the context. Exposed for handler tests.
func WithClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey{}, claims)
}

// RequireAuth creates middleware that verifies the Authorization bearer
// token and stores the claims in the request context. Requests without a
// valid token get 401.
func RequireAuth(tokens token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractBearer(r)
			if tokenString == "" {
				unauthorized(w, "missing token")
				return
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("token verification failed")
				unauthorized(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAdmin creates middleware that rejects non-admin requests with
// 403. Must run after RequireAuth.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				unauthorized(w, "missing token")
				return
			}
			if !claims.IsAdmin() {
				writeErrorJSON(w, http.StatusForbidden, "admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractBearer pulls the token out of the Authorization header.
func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(w http.ResponseWriter, msg string) {
	writeErrorJSON(w, http.StatusUnauthorized, msg)
}

func writeErrorJSON(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
