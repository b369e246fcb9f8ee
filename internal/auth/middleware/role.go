package middleware

import (
	"net/http"

	"github.com/learnhub/backend/internal/auth/service"
	"github.com/learnhub/backend/internal/models"
)

// RoleMiddleware validates JWT access token and checks if user's role is >= requiredRole
func RoleMiddleware(tokenGenerator *service.TokenGenerator, requiredRole models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, status, message := authenticate(r, tokenGenerator)
			if status != 0 {
				respondError(w, status, message)
				return
			}

			role, _ := GetRole(ctx)
			if models.RoleLevel[role] < models.RoleLevel[requiredRole] {
				respondError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
