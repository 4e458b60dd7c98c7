// Package service implements the demo backend's business logic: accounts
// and tokens, the catalog and order placement. Persistence is delegated to
// repository interfaces.
package service

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid request")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountPending     = errors.New("account is pending approval")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("admin role required")
	ErrNotFound           = errors.New("not found")
	ErrCouponNotFound     = errors.New("coupon not found")
	ErrOutOfStock         = errors.New("insufficient stock")
	ErrPaymentDeclined    = errors.New("card declined")
	ErrAlreadyPaid        = errors.New("order is already paid")
)
