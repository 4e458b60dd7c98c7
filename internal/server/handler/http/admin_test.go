package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/service"
)

type fakeAdminService struct {
	pending  []models.User
	approved *models.User
	err      error
	gotID    string
}

func (f *fakeAdminService) PendingUsers(context.Context) ([]models.User, error) {
	return f.pending, f.err
}

func (f *fakeAdminService) ApproveUser(_ context.Context, id string) (*models.User, error) {
	f.gotID = id
	return f.approved, f.err
}

func TestAdminHandler_PendingUsers(t *testing.T) {
	tests := []struct {
		name     string
		service  *fakeAdminService
		wantCode int
		wantBody string
	}{
		{
			name:     "nobody waiting",
			service:  &fakeAdminService{},
			wantCode: http.StatusOK,
			wantBody: `[]`,
		},
		{
			name:     "one pending",
			service:  &fakeAdminService{pending: []models.User{{ID: "u1", Email: "a@b.c", Status: models.UserPending}}},
			wantCode: http.StatusOK,
			wantBody: `[{"userId":"u1","email":"a@b.c","status":"PENDING"}]`,
		},
		{
			name:     "repository failure",
			service:  &fakeAdminService{err: errors.New("db error")},
			wantCode: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &AdminHandler{AdminService: tt.service}
			rec := httptest.NewRecorder()
			h.PendingUsers(rec, httptest.NewRequest(http.MethodGet, "/api/auth/users/pending", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestAdminHandler_ApproveUser(t *testing.T) {
	svc := &fakeAdminService{approved: &models.User{ID: "u1", Status: models.UserActive}}
	h := &AdminHandler{AdminService: svc}

	rec := httptest.NewRecorder()
	h.ApproveUser(rec, withURLParam(httptest.NewRequest(http.MethodPut, "/", nil), "id", "u1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", svc.gotID)
	var user models.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
	assert.Equal(t, models.UserActive, user.Status)

	rec = httptest.NewRecorder()
	h.ApproveUser(rec, httptest.NewRequest(http.MethodPut, "/", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h = &AdminHandler{AdminService: &fakeAdminService{err: service.ErrNotFound}}
	rec = httptest.NewRecorder()
	h.ApproveUser(rec, withURLParam(httptest.NewRequest(http.MethodPut, "/", nil), "id", "ghost"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, service.ErrNotFound.Error(), decodeError(t, rec).Message)
}
