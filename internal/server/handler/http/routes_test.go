package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/repository"
	"github.com/atinyakov/storefront/internal/service"
)

func newTestServer(t *testing.T, approval bool) *httptest.Server {
	t.Helper()
	tokens, err := service.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	catalog := repository.NewMemoryCatalogRepository(repository.DemoProducts(), repository.DemoCoupons())

	auth := service.NewAuthService(repository.NewMemoryUserRepository(), tokens, bcrypt.MinCost, service.WithApproval(approval))
	require.NoError(t, auth.SeedAdmin(context.Background(), "admin@example.com", "admin-secret"))

	router := NewRouter(
		&AuthHandler{AuthService: auth, SessionTTL: time.Hour},
		&CatalogHandler{CatalogService: service.NewCatalogService(catalog)},
		&OrderHandler{OrderService: service.NewOrderService(catalog, repository.NewMemoryOrderRepository())},
		&AdminHandler{AdminService: auth},
		zap.NewNop(),
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, method, url, token string, in any) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func TestRouter_Checkout(t *testing.T) {
	srv := newTestServer(t, false)
	api := srv.URL + "/api"

	resp, _ := call(t, http.MethodPost, api+"/auth/register", "", models.RegisterRequest{Email: "ann@example.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := call(t, http.MethodPost, api+"/auth/login", "", models.LoginRequest{Email: "ann@example.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var auth models.AuthResponse
	require.NoError(t, json.Unmarshal(body, &auth))
	require.NotEmpty(t, auth.Token)

	resp, body = call(t, http.MethodGet, api+"/auth/me", auth.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ann@example.com")

	resp, body = call(t, http.MethodGet, api+"/products", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var products []models.Product
	require.NoError(t, json.Unmarshal(body, &products))
	assert.Len(t, products, 3)

	resp, _ = call(t, http.MethodGet, api+"/coupons/SAVE10", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = call(t, http.MethodPost, api+"/orders", auth.Token, models.CreateOrderRequest{
		Items:      []models.OrderItem{{ProductID: "p2", Quantity: 2}},
		CouponCode: "MINUS500",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	require.NoError(t, json.Unmarshal(body, &order))
	assert.Equal(t, models.Amount(1100), order.Total)

	resp, body = call(t, http.MethodPost, api+"/payments/process", auth.Token, models.PaymentRequest{OrderID: order.ID, CardNumber: "4111111111111111"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var payment models.Payment
	require.NoError(t, json.Unmarshal(body, &payment))
	assert.Equal(t, order.ID, payment.OrderID)

	resp, body = call(t, http.MethodGet, api+"/orders/my-orders", auth.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []models.Order
	require.NoError(t, json.Unmarshal(body, &history))
	require.Len(t, history, 1)
	assert.Equal(t, order.ID, history[0].ID)
	assert.Equal(t, service.OrderPaid, history[0].Status)

	resp, _ = call(t, http.MethodPost, api+"/auth/logout", auth.Token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = call(t, http.MethodGet, api+"/auth/me", auth.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "invalid or expired session")
}

func TestRouter_RejectsNonJSON(t *testing.T) {
	srv := newTestServer(t, false)
	resp, err := http.Post(srv.URL+"/api/auth/login", "text/plain", bytes.NewBufferString("hi"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestRouter_ProtectedWithoutSession(t *testing.T) {
	srv := newTestServer(t, false)
	for _, path := range []string{"/api/auth/me", "/api/orders/my-orders", "/api/auth/users/pending"} {
		resp, _ := call(t, http.MethodGet, srv.URL+path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	resp, _ := call(t, http.MethodPost, srv.URL+"/api/orders", "", models.CreateOrderRequest{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func login(t *testing.T, api, email, password string) (int, string) {
	t.Helper()
	resp, body := call(t, http.MethodPost, api+"/auth/login", "", models.LoginRequest{Email: email, Password: password})
	var auth models.AuthResponse
	_ = json.Unmarshal(body, &auth)
	return resp.StatusCode, auth.Token
}

func TestRouter_ApproveUser(t *testing.T) {
	srv := newTestServer(t, true)
	api := srv.URL + "/api"

	resp, body := call(t, http.MethodPost, api+"/auth/register", "", models.RegisterRequest{Email: "ann@example.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var registered models.AuthResponse
	require.NoError(t, json.Unmarshal(body, &registered))
	assert.Equal(t, models.UserPending, registered.Status)

	code, _ := login(t, api, "ann@example.com", "secret1")
	assert.Equal(t, http.StatusBadRequest, code)

	code, adminToken := login(t, api, "admin@example.com", "admin-secret")
	require.Equal(t, http.StatusOK, code)

	resp, body = call(t, http.MethodGet, api+"/auth/users/pending", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pending []models.User
	require.NoError(t, json.Unmarshal(body, &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, registered.UserID, pending[0].ID)

	resp, _ = call(t, http.MethodPut, api+"/auth/users/missing/approve", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = call(t, http.MethodPut, api+"/auth/users/"+registered.UserID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), models.UserActive)

	code, userToken := login(t, api, "ann@example.com", "secret1")
	require.Equal(t, http.StatusOK, code)

	resp, body = call(t, http.MethodGet, api+"/auth/users/pending", userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(body), "admin role required")
	resp, _ = call(t, http.MethodPut, api+"/auth/users/"+registered.UserID+"/approve", userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = call(t, http.MethodGet, api+"/auth/users/pending", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}
