// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/atinyakov/storefront/internal/models"
)

// SessionCookie is the name of the httpOnly cookie carrying the session token
// for cookie-authenticated clients.
const SessionCookie = "session"

type ctxKey string

const (
	userKey  ctxKey = "user"
	roleKey  ctxKey = "role"
	tokenKey ctxKey = "token"
)

// Authenticator resolves a session token to the user it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// RequireAuth rejects requests that carry no valid session with 401.
//
// The token is taken from an "Authorization: Bearer" header, or from the
// session cookie when the header is absent. On success the user ID, the
// user's role and the raw token are stored in the request context.
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				unauthorized(w, "authentication required")
				return
			}
			user, err := auth.Authenticate(r.Context(), token)
			if err != nil || user == nil {
				unauthorized(w, "invalid or expired session")
				return
			}
			ctx := context.WithValue(r.Context(), userKey, user.ID)
			ctx = context.WithValue(ctx, roleKey, user.Role)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose authenticated user does not have role
// with 403. It must run after RequireAuth.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetUserRoleFromContext(r.Context()) != role {
				writeError(w, http.StatusForbidden, strings.ToLower(string(role))+" role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TokenFromRequest returns the bearer token or the session cookie value.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// GetUserIDFromContext extracts the authenticated user ID from the request
// context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// GetUserRoleFromContext returns the role of the authenticated user, or "".
func GetUserRoleFromContext(ctx context.Context) models.Role {
	role, _ := ctx.Value(roleKey).(models.Role)
	return role
}

// GetTokenFromContext returns the session token accepted by RequireAuth.
func GetTokenFromContext(ctx context.Context) string {
	s, _ := ctx.Value(tokenKey).(string)
	return s
}

func unauthorized(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusUnauthorized, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{
		Status:  status,
		Error:   http.StatusText(status),
		Message: msg,
	})
}
