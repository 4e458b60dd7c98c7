package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/storefront/internal/middleware"
	"github.com/atinyakov/storefront/internal/models"
)

// NewRouter constructs and returns the HTTP handler serving the storefront
// API. It applies JSON content-type enforcement and request logging to every
// route, and mounts the public catalog and account endpoints, the protected
// checkout endpoints and the admin-only moderation endpoints under /api.
//
// Parameters:
//
//	authHandler    - handler for registration, login, logout and profile
//	catalogHandler - handler for products and coupons
//	orderHandler   - handler for orders and payments
//	adminHandler   - handler for account approval
//	logger         - structured logger for the request logging middleware
//
// Routes:
//
//	POST /api/auth/register              → authHandler.Register
//	POST /api/auth/login                 → authHandler.Login
//	POST /api/auth/logout                → authHandler.Logout
//	GET  /api/products                   → catalogHandler.ListProducts
//	GET  /api/products/{id}              → catalogHandler.GetProduct
//	GET  /api/coupons/{code}             → catalogHandler.GetCoupon
//	GET  /api/auth/me                    → authHandler.Me (protected)
//	POST /api/orders                     → orderHandler.CreateOrder (protected)
//	GET  /api/orders/my-orders           → orderHandler.MyOrders (protected)
//	POST /api/payments/process           → orderHandler.ProcessPayment (protected)
//	GET  /api/auth/users/pending         → adminHandler.PendingUsers (admin)
//	PUT  /api/auth/users/{id}/approve    → adminHandler.ApproveUser (admin)
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json"): rejects requests whose body is not JSON
//  2. WithRequestLogging(logger): logs every request and its outcome
//  3. RequireAuth: on protected and admin routes, accepts a bearer token or the session cookie
//  4. RequireRole(models.RoleAdmin): on admin routes only, answers 403 to everyone else
func NewRouter(
	authHandler *AuthHandler,
	catalogHandler *CatalogHandler,
	orderHandler *OrderHandler,
	adminHandler *AdminHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/products", catalogHandler.ListProducts)
		r.Get("/products/{id}", catalogHandler.GetProduct)
		r.Get("/coupons/{code}", catalogHandler.GetCoupon)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(authHandler.AuthService))
			r.Get("/auth/me", authHandler.Me)
			r.Post("/orders", orderHandler.CreateOrder)
			r.Get("/orders/my-orders", orderHandler.MyOrders)
			r.Post("/payments/process", orderHandler.ProcessPayment)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Get("/auth/users/pending", adminHandler.PendingUsers)
				r.Put("/auth/users/{id}/approve", adminHandler.ApproveUser)
			})
		})
	})

	return r
}
