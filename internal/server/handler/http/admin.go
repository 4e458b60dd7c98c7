package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/storefront/internal/models"
)

// AdminService defines the account moderation operations required by
// AdminHandler.
type AdminService interface {
	// PendingUsers lists the accounts waiting for approval.
	PendingUsers(ctx context.Context) ([]models.User, error)
	// ApproveUser activates an account and returns its profile.
	ApproveUser(ctx context.Context, id string) (*models.User, error)
}

// AdminHandler handles requests of administrators. Its routes must be
// mounted behind RequireAuth and RequireRole(models.RoleAdmin).
type AdminHandler struct {
	// AdminService performs the underlying moderation operations.
	AdminService AdminService
}

// PendingUsers handles GET /api/auth/users/pending.
// It responds with a JSON array of profiles, empty when nobody waits.
func (h *AdminHandler) PendingUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.AdminService.PendingUsers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// ApproveUser handles PUT /api/auth/users/{id}/approve.
// It responds with the activated profile, or 404 for an unknown ID.
func (h *AdminHandler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.AdminService.ApproveUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
