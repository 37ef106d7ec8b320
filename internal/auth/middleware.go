package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/isdelr/smarttodo-be/internal/apperr"
	"github.com/rs/zerolog/log"
)

// UserClaimsKey is the context key for user claims.
type contextKey string

const UserClaimsKey = contextKey("userClaims")

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// Anything other than exactly two space-separated parts with the Bearer scheme is rejected.
func BearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// VerifyHeader is the gate applied to every protected request: it accepts
// only "Bearer <login token>" and reports failures as auth errors.
func (m *TokenManager) VerifyHeader(header string) (*Claims, error) {
	if header == "" {
		return nil, apperr.Auth("Access denied: no token provided")
	}
	tokenStr, ok := BearerToken(header)
	if !ok {
		return nil, apperr.Auth("Access denied: malformed token format")
	}
	claims, err := m.VerifyLoginToken(tokenStr)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindAuth, Message: "Invalid or expired token", Err: err}
	}
	return claims, nil
}

// JWTMiddleware creates a middleware for protecting routes.
func JWTMiddleware(tokens *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := tokens.VerifyHeader(r.Header.Get("Authorization"))
			if err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("Rejected request without a valid bearer token")
				unauthorized(w, apperr.MessageOf(err))
				return
			}

			// Pass claims down via context
			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims stored by JWTMiddleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	return claims, ok && claims != nil
}

// WithClaims stores claims in ctx the way JWTMiddleware does.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, UserClaimsKey, claims)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
