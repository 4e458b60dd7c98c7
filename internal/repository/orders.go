package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/atinyakov/storefront/internal/models"
)

// MemoryOrderRepository stores orders and payments.
type MemoryOrderRepository struct {
	mu       sync.RWMutex
	orders   map[string]models.Order
	payments map[string]models.Payment
}

// NewMemoryOrderRepository creates an empty repository.
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders:   make(map[string]models.Order),
		payments: make(map[string]models.Payment),
	}
}

// SaveOrder inserts or replaces order.
func (r *MemoryOrderRepository) SaveOrder(_ context.Context, order models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order.Items = append([]models.OrderItem(nil), order.Items...)
	r.orders[order.ID] = order
	return nil
}

// GetOrder returns the order with the given ID.
func (r *MemoryOrderRepository) GetOrder(_ context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return &o, nil
}

// ListOrders returns the orders of userID, newest first.
func (r *MemoryOrderRepository) ListOrders(_ context.Context, userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Order{}
	for _, o := range r.orders {
		if o.UserID != userID {
			continue
		}
		o.Items = append([]models.OrderItem(nil), o.Items...)
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SavePayment records payment and marks its order with status in one step.
func (r *MemoryOrderRepository) SavePayment(_ context.Context, payment models.Payment, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[payment.OrderID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := r.payments[payment.ID]; ok {
		return ErrConflict
	}
	o.Status = status
	r.orders[o.ID] = o
	r.payments[payment.ID] = payment
	return nil
}
