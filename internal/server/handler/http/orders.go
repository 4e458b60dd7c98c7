package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/storefront/internal/middleware"
	"github.com/atinyakov/storefront/internal/models"
)

// OrderService defines order placement, payment and order history.
type OrderService interface {
	CreateOrder(ctx context.Context, userID string, req models.CreateOrderRequest) (*models.Order, error)
	ProcessPayment(ctx context.Context, userID string, req models.PaymentRequest) (*models.Payment, error)
	// ListOrders returns the orders of userID, newest first.
	ListOrders(ctx context.Context, userID string) ([]models.Order, error)
}

// OrderHandler handles checkout requests of the authenticated user. Its
// routes must be mounted behind RequireAuth, which supplies the user ID.
type OrderHandler struct {
	// OrderService performs order placement and payment.
	OrderService OrderService
}

// CreateOrder handles POST /api/orders.
// It decodes the order lines and shipping address, places the order for the
// session owner and responds with 201 and the pending order. Unknown
// products are answered with 404 and insufficient stock with 409.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if !decode(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	order, err := h.OrderService.CreateOrder(r.Context(), middleware.GetUserIDFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// ProcessPayment handles POST /api/payments/process.
// It expects a JSON body naming the order to pay. A declined payment is
// answered with 402 and an order that is already paid with 409.
func (h *OrderHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentRequest
	if !decode(r, &req) || req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	payment, err := h.OrderService.ProcessPayment(r.Context(), middleware.GetUserIDFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// MyOrders handles GET /api/orders/my-orders and returns the order history of
// the session owner.
func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.OrderService.ListOrders(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}
