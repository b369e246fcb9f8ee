// Package middleware provides JWT authentication and role checks
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/learnhub/backend/internal/auth/service"
	"github.com/learnhub/backend/internal/models"
)

type contextKey string

const (
	userIDKey contextKey = "userID"
	roleKey   contextKey = "role"
)

// AuthMiddleware validates JWT access token and extracts userID and role
func AuthMiddleware(tokenGenerator *service.TokenGenerator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, status, message := authenticate(r, tokenGenerator)
			if status != 0 {
				respondError(w, status, message)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID retrieves the user ID from context
func GetUserID(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDKey).(int)
	return userID, ok
}

// GetRole retrieves the user role from context
func GetRole(ctx context.Context) (models.Role, bool) {
	role, ok := ctx.Value(roleKey).(models.Role)
	return role, ok
}

// WithUser returns a context carrying userID and role
func WithUser(ctx context.Context, userID int, role models.Role) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

// authenticate returns the enriched context, or a non-zero status with a message
func authenticate(r *http.Request, tokenGenerator *service.TokenGenerator) (context.Context, int, string) {
	token := extractToken(r)
	if token == "" {
		return nil, http.StatusUnauthorized, "authentication required"
	}

	userID, role, err := tokenGenerator.ValidateAccessToken(token)
	if err != nil {
		return nil, http.StatusUnauthorized, "invalid or expired token"
	}

	return WithUser(r.Context(), userID, role), 0, ""
}

// extractToken reads the Bearer token, falling back to the access_token cookie
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
