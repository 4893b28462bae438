package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labmanager/identity-access-service/internal/core/domain"
	"github.com/labmanager/identity-access-service/internal/core/ports"
)

type AuthMiddleware struct {
	auth   ports.AuthService
	logger *slog.Logger
}

func NewAuthMiddleware(auth ports.AuthService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		auth:   auth,
		logger: logger,
	}
}

type contextKey string

const principalKey contextKey = "principal"

// PrincipalFromContext returns the principal stored by RequireRole.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	return p, ok
}

// RequireRole verifies the bearer token, checks the principal's role
// against the allowed list and stores the principal in the request
// context. An empty role list admits any authenticated principal.
func (m *AuthMiddleware) RequireRole(roles []domain.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "invalid authorization header", http.StatusUnauthorized)
			return
		}

		principal, err := m.auth.VerifyToken(parts[1])
		if err != nil {
			m.logger.Debug("token rejected", slog.String("reason", err.Error()))
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		if len(roles) > 0 {
			allowed := false
			for _, role := range roles {
				if principal.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				m.logger.Debug("role denied",
					slog.String("role", string(principal.Role)),
					slog.String("path", r.URL.Path),
				)
				http.Error(w, "access denied", http.StatusForbidden)
				return
			}
		}

		ctx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
