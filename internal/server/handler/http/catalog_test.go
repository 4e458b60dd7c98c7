package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/service"
)

type fakeCatalogService struct {
	products []models.Product
	product  *models.Product
	coupon   *models.Coupon
	err      error
}

func (f *fakeCatalogService) ListProducts(context.Context) ([]models.Product, error) {
	return f.products, f.err
}

func (f *fakeCatalogService) GetProduct(context.Context, string) (*models.Product, error) {
	return f.product, f.err
}

func (f *fakeCatalogService) GetCoupon(context.Context, string) (*models.Coupon, error) {
	return f.coupon, f.err
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestCatalogHandler(t *testing.T) {
	t.Run("empty list is an array", func(t *testing.T) {
		h := &CatalogHandler{CatalogService: &fakeCatalogService{}}
		rec := httptest.NewRecorder()
		h.ListProducts(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("missing product", func(t *testing.T) {
		h := &CatalogHandler{CatalogService: &fakeCatalogService{err: service.ErrNotFound}}
		rec := httptest.NewRecorder()
		h.GetProduct(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/products/x", nil), "id", "x"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("coupon", func(t *testing.T) {
		h := &CatalogHandler{CatalogService: &fakeCatalogService{coupon: &models.Coupon{Code: "SAVE10", DiscountType: models.DiscountPercentage, DiscountValue: 10}}}
		rec := httptest.NewRecorder()
		h.GetCoupon(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/api/coupons/SAVE10", nil), "code", "SAVE10"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":"SAVE10"`)
	})
}
