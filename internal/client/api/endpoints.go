package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/atinyakov/storefront/internal/models"
)

// Login exchanges credentials for a token and profile.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	req := models.LoginRequest{Email: email, Password: password}
	if err := c.Do(ctx, http.MethodPost, "/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account. The backend may or may not sign the user in.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.Do(ctx, http.MethodPost, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the profile the current credentials belong to.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.Do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	if out.ID == "" && out.Email == "" {
		return nil, errors.New("invalid response: profile has no identity")
	}
	return &out, nil
}

// Logout ends the session on the backend.
func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// GetCoupon looks up a coupon by code.
func (c *Client) GetCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	var out models.Coupon
	path := "/coupons/" + url.PathEscape(strings.TrimSpace(code))
	if err := c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProducts returns the catalog.
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := c.Do(ctx, http.MethodGet, "/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProduct returns one catalog entry.
func (c *Client) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var out models.Product
	if err := c.Do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOrder places an order for the given lines.
func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	var out models.Order
	if err := c.Do(ctx, http.MethodPost, "/orders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProcessPayment pays for an order.
func (c *Client) ProcessPayment(ctx context.Context, req models.PaymentRequest) (*models.Payment, error) {
	var out models.Payment
	if err := c.Do(ctx, http.MethodPost, "/payments/process", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyOrders returns the order history of the signed-in user, newest first.
func (c *Client) MyOrders(ctx context.Context) ([]models.Order, error) {
	out := []models.Order{}
	if err := c.Do(ctx, http.MethodGet, "/orders/my-orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PendingUsers lists the accounts waiting for approval. Admins only.
func (c *Client) PendingUsers(ctx context.Context) ([]models.User, error) {
	out := []models.User{}
	if err := c.Do(ctx, http.MethodGet, "/auth/users/pending", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ApproveUser activates a pending account. Admins only.
func (c *Client) ApproveUser(ctx context.Context, id string) (*models.User, error) {
	var out models.User
	path := "/auth/users/" + url.PathEscape(strings.TrimSpace(id)) + "/approve"
	if err := c.Do(ctx, http.MethodPut, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
