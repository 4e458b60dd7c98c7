package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/repository"
)

// Order and payment states.
const (
	OrderPending     = "PENDING"
	OrderPaid        = "PAID"
	PaymentCompleted = "COMPLETED"
)

// OrderRepository defines the persistence operations needed by the
// OrderService.
type OrderRepository interface {
	SaveOrder(ctx context.Context, order models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	// ListOrders returns the orders of a user, newest first.
	ListOrders(ctx context.Context, userID string) ([]models.Order, error)
	// SavePayment stores payment and sets the order's status.
	SavePayment(ctx context.Context, payment models.Payment, status string) error
}

// OrderService places and pays orders. Prices and discounts are taken from
// the catalog.
type OrderService struct {
	catalog CatalogRepository
	orders  OrderRepository
	now     func() time.Time
}

// NewOrderService constructs an OrderService.
func NewOrderService(catalog CatalogRepository, orders OrderRepository) *OrderService {
	return &OrderService{catalog: catalog, orders: orders, now: time.Now}
}

// CreateOrder prices req, reserves stock and stores a pending order for
// userID.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, req models.CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrInvalidInput)
	}

	var subtotal float64
	for _, it := range req.Items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity of %s must be positive", ErrInvalidInput, it.ProductID)
		}
		p, err := s.catalog.GetProduct(ctx, it.ProductID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && !p.Active) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, it.ProductID)
		}
		if err != nil {
			return nil, err
		}
		subtotal += p.Price * float64(it.Quantity)
	}

	total := subtotal
	code := strings.TrimSpace(req.CouponCode)
	if code != "" {
		coupon, err := s.catalog.GetCoupon(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCouponNotFound
		}
		if err != nil {
			return nil, err
		}
		total = coupon.Apply(subtotal)
		code = coupon.Code
	}

	if err := s.catalog.ReserveStock(ctx, req.Items); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrOutOfStock
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	order := models.Order{
		ID:         uuid.NewString(),
		UserID:     userID,
		Items:      append([]models.OrderItem(nil), req.Items...),
		CouponCode: code,
		Subtotal:   models.Amount(subtotal),
		Total:      models.Amount(total),
		Status:     OrderPending,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.orders.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns the order history of userID, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orders.ListOrders(ctx, userID)
}

// ProcessPayment charges the card for one of userID's pending orders.
func (s *OrderService) ProcessPayment(ctx context.Context, userID string, req models.PaymentRequest) (*models.Payment, error) {
	order, err := s.orders.GetOrder(ctx, req.OrderID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && order.UserID != userID) {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, req.OrderID)
	}
	if err != nil {
		return nil, err
	}
	if order.Status == OrderPaid {
		return nil, ErrAlreadyPaid
	}
	if !validCardNumber(req.CardNumber) {
		return nil, ErrPaymentDeclined
	}

	payment := models.Payment{
		ID:      uuid.NewString(),
		OrderID: order.ID,
		Amount:  order.Total,
		Status:  PaymentCompleted,
	}
	if err := s.orders.SavePayment(ctx, payment, OrderPaid); err != nil {
		return nil, err
	}
	return &payment, nil
}

// validCardNumber applies the Luhn checksum to a 12 to 19 digit number.
// Spaces and dashes are ignored.
func validCardNumber(number string) bool {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(number)
	if len(digits) < 12 || len(digits) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
