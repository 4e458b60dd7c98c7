package service

import (
	"context"
	"errors"
	"strings"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/repository"
)

// CatalogRepository defines the catalog operations needed by the services.
type CatalogRepository interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetCoupon(ctx context.Context, code string) (*models.Coupon, error)
	// ReserveStock decrements stock for all items or for none.
	ReserveStock(ctx context.Context, items []models.OrderItem) error
}

// CatalogService serves products and coupons.
type CatalogService struct {
	repo CatalogRepository
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(repo CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

// ListProducts returns the products on sale.
func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.ListProducts(ctx)
}

// GetProduct returns one product.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}

// GetCoupon returns the coupon for code.
func (s *CatalogService) GetCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrInvalidInput
	}
	c, err := s.repo.GetCoupon(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCouponNotFound
	}
	return c, err
}
