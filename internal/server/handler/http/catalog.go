package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/storefront/internal/models"
)

// CatalogService defines the read-only catalog operations.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetCoupon(ctx context.Context, code string) (*models.Coupon, error)
}

// CatalogHandler serves products and coupons. None of its routes need a
// session.
type CatalogHandler struct {
	// CatalogService performs the underlying catalog lookups.
	CatalogService CatalogService
}

// ListProducts handles GET /api/products.
// It responds with a JSON array of products, empty when the catalog is.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.CatalogService.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

// GetProduct handles GET /api/products/{id}, or 404 for an unknown ID.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.CatalogService.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetCoupon handles GET /api/coupons/{code}.
// An unknown code is answered with 404.
func (h *CatalogHandler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.CatalogService.GetCoupon(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
