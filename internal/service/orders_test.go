package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/repository"
)

const validCard = "4111 1111 1111 1111"

func newOrderService() (*OrderService, *repository.MemoryCatalogRepository) {
	catalog := repository.NewMemoryCatalogRepository(repository.DemoProducts(), repository.DemoCoupons())
	return NewOrderService(catalog, repository.NewMemoryOrderRepository()), catalog
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	svc, catalog := newOrderService()

	order, err := svc.CreateOrder(ctx, "u1", models.CreateOrderRequest{
		Items:      []models.OrderItem{{ProductID: "p1", Quantity: 2}, {ProductID: "p2", Quantity: 1}},
		CouponCode: "save10",
	})
	require.NoError(t, err)
	assert.Equal(t, models.Amount(5800), order.Subtotal)
	assert.Equal(t, models.Amount(5220), order.Total)
	assert.Equal(t, "SAVE10", order.CouponCode)
	assert.Equal(t, OrderPending, order.Status)

	p1, _ := catalog.GetProduct(ctx, "p1")
	assert.Equal(t, 18, p1.Stock)
}

func TestCreateOrder_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  models.CreateOrderRequest
		want error
	}{
		{name: "no items", req: models.CreateOrderRequest{}, want: ErrInvalidInput},
		{name: "zero quantity", req: models.CreateOrderRequest{Items: []models.OrderItem{{ProductID: "p1"}}}, want: ErrInvalidInput},
		{name: "unknown product", req: models.CreateOrderRequest{Items: []models.OrderItem{{ProductID: "zzz", Quantity: 1}}}, want: ErrNotFound},
		{name: "inactive product", req: models.CreateOrderRequest{Items: []models.OrderItem{{ProductID: "p4", Quantity: 1}}}, want: ErrNotFound},
		{name: "unknown coupon", req: models.CreateOrderRequest{Items: []models.OrderItem{{ProductID: "p1", Quantity: 1}}, CouponCode: "BOGUS"}, want: ErrCouponNotFound},
		{name: "out of stock", req: models.CreateOrderRequest{Items: []models.OrderItem{{ProductID: "p1", Quantity: 21}}}, want: ErrOutOfStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newOrderService()
			_, err := svc.CreateOrder(context.Background(), "u1", tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestProcessPayment(t *testing.T) {
	ctx := context.Background()
	svc, _ := newOrderService()
	order, err := svc.CreateOrder(ctx, "u1", models.CreateOrderRequest{Items: []models.OrderItem{{ProductID: "p3", Quantity: 2}}})
	require.NoError(t, err)

	_, err = svc.ProcessPayment(ctx, "u2", models.PaymentRequest{OrderID: order.ID, CardNumber: validCard})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ProcessPayment(ctx, "u1", models.PaymentRequest{OrderID: order.ID, CardNumber: "4111 1111 1111 1112"})
	assert.ErrorIs(t, err, ErrPaymentDeclined)

	payment, err := svc.ProcessPayment(ctx, "u1", models.PaymentRequest{OrderID: order.ID, CardNumber: validCard})
	require.NoError(t, err)
	assert.Equal(t, models.Amount(900), payment.Amount)
	assert.Equal(t, PaymentCompleted, payment.Status)

	_, err = svc.ProcessPayment(ctx, "u1", models.PaymentRequest{OrderID: order.ID, CardNumber: validCard})
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	_, err = svc.ProcessPayment(ctx, "u1", models.PaymentRequest{OrderID: "missing", CardNumber: validCard})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrders(t *testing.T) {
	ctx := context.Background()
	svc, _ := newOrderService()
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	first, err := svc.CreateOrder(ctx, "u1", models.CreateOrderRequest{Items: []models.OrderItem{{ProductID: "p2", Quantity: 1}}})
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, "u1", models.CreateOrderRequest{Items: []models.OrderItem{{ProductID: "p3", Quantity: 2}}})
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, "u2", models.CreateOrderRequest{Items: []models.OrderItem{{ProductID: "p2", Quantity: 1}}})
	require.NoError(t, err)

	orders, err := svc.ListOrders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
	assert.False(t, orders[0].CreatedAt.IsZero())
}

func TestValidCardNumber(t *testing.T) {
	assert.True(t, validCardNumber("4111111111111111"))
	assert.True(t, validCardNumber("5555-5555-5555-4444"))
	assert.False(t, validCardNumber("4111111111111112"))
	assert.False(t, validCardNumber("4111"))
	assert.False(t, validCardNumber("4111a11111111111"))
}
