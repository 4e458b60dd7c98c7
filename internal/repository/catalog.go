package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/atinyakov/storefront/internal/models"
)

// MemoryCatalogRepository holds products and coupons.
type MemoryCatalogRepository struct {
	mu       sync.RWMutex
	products map[string]models.Product
	coupons  map[string]models.Coupon
}

// NewMemoryCatalogRepository creates a catalog holding products and coupons.
func NewMemoryCatalogRepository(products []models.Product, coupons []models.Coupon) *MemoryCatalogRepository {
	r := &MemoryCatalogRepository{
		products: make(map[string]models.Product, len(products)),
		coupons:  make(map[string]models.Coupon, len(coupons)),
	}
	for _, p := range products {
		r.products[p.ID] = p
	}
	for _, c := range coupons {
		r.coupons[strings.ToUpper(c.Code)] = c
	}
	return r
}

// ListProducts returns the active products ordered by ID.
func (r *MemoryCatalogRepository) ListProducts(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetProduct returns the product with the given ID.
func (r *MemoryCatalogRepository) GetProduct(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// ReserveStock decrements the stock of every line, or of none when one of
// them cannot be served.
func (r *MemoryCatalogRepository) ReserveStock(_ context.Context, items []models.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	need := make(map[string]int, len(items))
	for _, it := range items {
		need[it.ProductID] += it.Quantity
	}
	for id, qty := range need {
		p, ok := r.products[id]
		if !ok {
			return ErrNotFound
		}
		if p.Stock < qty {
			return ErrConflict
		}
	}
	for id, qty := range need {
		p := r.products[id]
		p.Stock -= qty
		r.products[id] = p
	}
	return nil
}

// GetCoupon returns the coupon with the given code, ignoring case.
func (r *MemoryCatalogRepository) GetCoupon(_ context.Context, code string) (*models.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.coupons[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}
