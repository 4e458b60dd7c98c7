// Package server assembles the demo backend: seeded in-memory repositories,
// services and the HTTP router.
package server

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/storefront/internal/config"
	"github.com/atinyakov/storefront/internal/repository"
	handler "github.com/atinyakov/storefront/internal/server/handler/http"
	"github.com/atinyakov/storefront/internal/service"
)

// NewHandler builds the API handler of the demo backend.
//
// Parameters:
//
//	opts - token signing, account approval and admin seeding settings
//	cost - bcrypt cost for new passwords; values out of range select bcrypt.DefaultCost
//	log  - request logger; nil discards everything
//
// The catalog is seeded with repository.DemoProducts and
// repository.DemoCoupons. An admin account is created from opts.AdminEmail
// and opts.AdminPassword when the password is set.
func NewHandler(opts config.ServerOptions, cost int, log *zap.Logger) (http.Handler, error) {
	if log == nil {
		log = zap.NewNop()
	}

	tokens, err := service.NewTokenIssuer(opts.JWTSecret, opts.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("init token issuer: %w", err)
	}

	users := repository.NewMemoryUserRepository()
	catalog := repository.NewMemoryCatalogRepository(repository.DemoProducts(), repository.DemoCoupons())
	orders := repository.NewMemoryOrderRepository()

	auth := service.NewAuthService(users, tokens, cost, service.WithApproval(opts.RequireApproval))
	if opts.AdminPassword != "" {
		if err := auth.SeedAdmin(context.Background(), opts.AdminEmail, opts.AdminPassword); err != nil {
			return nil, fmt.Errorf("seed admin account: %w", err)
		}
		log.Info("admin account ready", zap.String("email", opts.AdminEmail))
	}

	authHandler := &handler.AuthHandler{
		AuthService: auth,
		SessionTTL:  opts.TokenTTL,
	}
	catalogHandler := &handler.CatalogHandler{CatalogService: service.NewCatalogService(catalog)}
	orderHandler := &handler.OrderHandler{OrderService: service.NewOrderService(catalog, orders)}
	adminHandler := &handler.AdminHandler{AdminService: auth}

	return handler.NewRouter(authHandler, catalogHandler, orderHandler, adminHandler, log), nil
}
