// Package repository provides the in-memory persistence used by the demo
// backend: users, the product catalog, coupons and orders.
package repository

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = errors.New("already exists")
)
