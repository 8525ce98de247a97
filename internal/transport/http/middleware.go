package http

import (
	"context"
	"net/http"
	"strings"

	"mindcoach-service/internal/app"
	"mindcoach-service/internal/domain"
)

type contextKey string

const claimsKey contextKey = "claims"

type authMiddleware struct {
	auth *app.AuthService
}

func newAuthMiddleware(auth *app.AuthService) *authMiddleware {
	return &authMiddleware{auth: auth}
}

// requireUser validates the bearer token and stores its claims in the request context.
func (m *authMiddleware) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}
		claims, err := m.auth.ValidateToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireCoach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := claimsFrom(r.Context()); claims == nil || claims.Role != domain.RoleCoach {
			writeError(w, http.StatusForbidden, domain.ErrForbidden.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func claimsFrom(ctx context.Context) *app.Claims {
	claims, _ := ctx.Value(claimsKey).(*app.Claims)
	return claims
}

// canAccessPlayer lets coaches see everyone and players only themselves.
func canAccessPlayer(claims *app.Claims, playerID string) bool {
	if claims == nil {
		return false
	}
	return claims.Role == domain.RoleCoach || claims.UserID == playerID
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
