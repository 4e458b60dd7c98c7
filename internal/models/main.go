// Package models defines the data exchanged between the storefront client
// and its backend: users, products, coupons, orders and payments.
package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Role is the authorization level of a user.
type Role string

const (
	// RoleUser is a regular shopper.
	RoleUser Role = "USER"
	// RoleAdmin can manage the catalog and approve users.
	RoleAdmin Role = "ADMIN"
)

// User is the profile of the signed-in shopper.
type User struct {
	// ID is the backend identifier of the user.
	ID string `json:"userId,omitempty"`
	// Email is the login name of the user.
	Email string `json:"email,omitempty"`
	// FullName is the display name.
	FullName string `json:"fullName,omitempty"`
	// Role is the authorization level.
	Role Role `json:"role,omitempty"`
	// Status is the account state reported by the backend ("ACTIVE", "PENDING").
	Status string `json:"status,omitempty"`
}

// Account states.
const (
	UserActive  = "ACTIVE"
	UserPending = "PENDING"
)

// Product is a catalog entry. Cart line items keep a full copy of it.
type Product struct {
	ID          string   `json:"id"`
	SKU         string   `json:"sku,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price,omitempty"`
	Stock       int      `json:"stock,omitempty"`
	Active      bool     `json:"isActive,omitempty"`
	ImageURLs   []string `json:"imageUrls,omitempty"`
}

// DiscountType selects how a coupon's DiscountValue is applied.
type DiscountType string

const (
	// DiscountPercentage subtracts DiscountValue percent of the subtotal.
	DiscountPercentage DiscountType = "PERCENTAGE"
	// DiscountFixedAmount subtracts DiscountValue currency units.
	DiscountFixedAmount DiscountType = "FIXED_AMOUNT"
)

// Normalize maps the accepted spellings ("percentage", "fixed-amount", ...)
// onto the backend constants.
func (t DiscountType) Normalize() DiscountType {
	s := strings.ToUpper(strings.TrimSpace(string(t)))
	return DiscountType(strings.ReplaceAll(s, "-", "_"))
}

// Amount is a decimal value that the backend may serialize either as a JSON
// number or as a string. Values that cannot be parsed decode as 0.
type Amount float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*a = 0
			return nil
		}
		b = []byte(strings.TrimSpace(s))
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		*a = 0
		return nil
	}
	*a = Amount(v)
	return nil
}

// Coupon is a discount descriptor returned by GET /coupons/{code}.
// It lives in memory only and is never persisted.
type Coupon struct {
	ID            string       `json:"id,omitempty"`
	Code          string       `json:"code"`
	Description   string       `json:"description,omitempty"`
	DiscountType  DiscountType `json:"discountType"`
	DiscountValue Amount       `json:"discountValue"`
	NewUserOnly   bool         `json:"newUserOnly,omitempty"`
}

// Apply returns subtotal after the discount, floored at zero and rounded to
// a whole currency unit. Any type other than a percentage is applied as a
// fixed amount.
func (c Coupon) Apply(subtotal float64) float64 {
	value := float64(c.DiscountValue)
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}

	var discounted float64
	switch c.DiscountType.Normalize() {
	case DiscountPercentage:
		discounted = subtotal - subtotal*(value/100)
	default:
		discounted = subtotal - value
	}
	return math.Round(math.Max(0, discounted))
}

// OrderItem is one line of an order request.
type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest is the body of POST /orders.
type CreateOrderRequest struct {
	Items           []OrderItem `json:"items"`
	CouponCode      string      `json:"couponCode,omitempty"`
	ShippingAddress string      `json:"shippingAddress,omitempty"`
	BillingAddress  string      `json:"billingAddress,omitempty"`
}

// Order is the backend's view of a placed order.
type Order struct {
	ID         string      `json:"id"`
	UserID     string      `json:"userId,omitempty"`
	Items      []OrderItem `json:"items,omitempty"`
	CouponCode string      `json:"couponCode,omitempty"`
	Subtotal   Amount      `json:"subtotal"`
	Total      Amount      `json:"total"`
	Status     string      `json:"status,omitempty"`
	CreatedAt  time.Time   `json:"createdAt,omitzero"`
}

// PaymentRequest is the body of POST /payments/process. CardNumber is opaque
// to the client layer: callers may pass an already encrypted value.
type PaymentRequest struct {
	OrderID    string `json:"orderId"`
	CardNumber string `json:"cardNumber"`
	CardBrand  string `json:"cardBrand,omitempty"`
}

// Payment is the result of processing a payment.
type Payment struct {
	ID      string `json:"id"`
	OrderID string `json:"orderId"`
	Amount  Amount `json:"amount"`
	Status  string `json:"status"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName,omitempty"`
}

// AuthResponse is returned by login, register and /auth/me. Token is empty
// when the backend relies on a session cookie.
type AuthResponse struct {
	Token    string `json:"token,omitempty"`
	UserID   string `json:"userId,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullName,omitempty"`
	Role     Role   `json:"role,omitempty"`
	Status   string `json:"status,omitempty"`
	Message  string `json:"message,omitempty"`
}

// User extracts the profile part of the response, or nil when the response
// carries no identity.
func (r AuthResponse) User() *User {
	if r.UserID == "" && r.Email == "" {
		return nil
	}
	return &User{
		ID:       r.UserID,
		Email:    r.Email,
		FullName: r.FullName,
		Role:     r.Role,
		Status:   r.Status,
	}
}

// ErrorResponse is the structured error body used by the backend.
type ErrorResponse struct {
	Status  int    `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
