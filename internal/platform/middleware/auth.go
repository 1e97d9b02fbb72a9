package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// JWTValidator validates bearer tokens for operator access.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims are the validated claims handlers can read from context.
type JWTClaims struct {
	Subject string
	Role    string
}

type contextKeySubject struct{}
type contextKeyRole struct{}

// GetSubject retrieves the authenticated operator from the context.
func GetSubject(ctx context.Context) string {
	subject, ok := ctx.Value(contextKeySubject{}).(string)
	if !ok {
		return ""
	}
	return subject
}

// GetRole retrieves the authenticated operator's role from the context.
func GetRole(ctx context.Context) string {
	role, ok := ctx.Value(contextKeyRole{}).(string)
	if !ok {
		return ""
	}
	return role
}

// RequireAuth rejects requests without a valid bearer token and stores the
// validated claims in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", requestID,
					"error", err,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, contextKeySubject{}, claims.Subject)
			ctx = context.WithValue(ctx, contextKeyRole{}, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
