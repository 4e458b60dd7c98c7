// Package checkout turns the cart into an order: it looks up coupons,
// previews the discounted total and submits the order and its payment.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/storefront/internal/client/api"
	"github.com/atinyakov/storefront/internal/client/cart"
	"github.com/atinyakov/storefront/internal/models"
)

var (
	// ErrEmptyCart is returned when there is nothing to order.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNoCoupon is returned for a blank coupon code.
	ErrNoCoupon = errors.New("enter a coupon code")
	// ErrNoCard is returned when no card number was given.
	ErrNoCard = errors.New("card number is required")
)

// Card is the payment instrument. Number is passed through untouched.
type Card struct {
	Number string
	Brand  string
}

// Request describes an order to place from the current cart.
type Request struct {
	CouponCode      string
	ShippingAddress string
	BillingAddress  string
	Card            Card
}

// Result is a placed and paid order.
type Result struct {
	Order   *models.Order
	Payment *models.Payment
}

// Service runs checkout against the backend.
type Service struct {
	client *api.Client
	cart   *cart.Store
	log    *zap.Logger
}

// New creates a Service.
func New(client *api.Client, store *cart.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{client: client, cart: store, log: log}
}

// ApplyCoupon looks code up on the backend. The caller drops any coupon it
// held when an error is returned.
func (s *Service) ApplyCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrNoCoupon
	}
	coupon, err := s.client.GetCoupon(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("coupon %q: %w", code, err)
	}
	return coupon, nil
}

// Preview returns the cart total after coupon.
func (s *Service) Preview(coupon *models.Coupon) float64 {
	return cart.PreviewTotal(s.cart.TotalPrice(), coupon)
}

// PlaceOrder creates an order from the cart and pays for it. The cart is
// cleared only when both steps succeed.
func (s *Service) PlaceOrder(ctx context.Context, req Request) (*Result, error) {
	items := s.cart.Snapshot()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	if strings.TrimSpace(req.Card.Number) == "" {
		return nil, ErrNoCard
	}

	order, err := s.client.CreateOrder(ctx, models.CreateOrderRequest{
		Items:           items,
		CouponCode:      strings.TrimSpace(req.CouponCode),
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	payment, err := s.client.ProcessPayment(ctx, models.PaymentRequest{
		OrderID:    order.ID,
		CardNumber: req.Card.Number,
		CardBrand:  req.Card.Brand,
	})
	if err != nil {
		return nil, fmt.Errorf("process payment for order %s: %w", order.ID, err)
	}

	s.log.Info("order placed",
		zap.String("order", order.ID),
		zap.String("payment", payment.ID),
		zap.Int("lines", len(items)),
	)
	s.cart.Clear()
	return &Result{Order: order, Payment: payment}, nil
}
