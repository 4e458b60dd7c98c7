// Package http provides the demo backend's HTTP handlers: accounts, the
// catalog and checkout.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/atinyakov/storefront/internal/middleware"
	"github.com/atinyakov/storefront/internal/models"
)

// AuthService defines the account operations required by AuthHandler.
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	Logout(ctx context.Context, token string)
}

// AuthHandler handles registration, login, logout and profile requests.
type AuthHandler struct {
	// AuthService performs the underlying account operations.
	AuthService AuthService
	// SessionTTL is the lifetime of the session cookie set on login.
	SessionTTL time.Duration
}

// Register handles POST /api/auth/register.
// It expects a JSON body with an email, a password and an optional full
// name. The account is created but not signed in, so the response carries no
// token. A taken email is answered with 409 and a malformed body with 400.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decode(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	resp, err := h.AuthService.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/auth/login.
// It expects a JSON body with a non-empty email and a password. On success
// the token is returned in the body for bearer clients and in an httpOnly
// cookie, valid for SessionTTL, for cookie clients. The cookie is marked
// Secure when the request arrived over TLS. Wrong credentials and accounts
// still waiting for approval are answered with 400.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(r, &req) || req.Email == "" {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	resp, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    resp.Token,
		Path:     "/",
		MaxAge:   int(h.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /api/auth/logout. It revokes the presented token, if
// any, and expires the session cookie. It always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.TokenFromRequest(r); token != "" {
		h.AuthService.Logout(r.Context(), token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me and returns the profile of the session owner.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.AuthService.Authenticate(r.Context(), middleware.GetTokenFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
