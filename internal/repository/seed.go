package repository

import "github.com/atinyakov/storefront/internal/models"

// DemoProducts is the catalog the demo backend starts with.
func DemoProducts() []models.Product {
	return []models.Product{
		{ID: "p1", SKU: "LAMP-01", Name: "Desk lamp", Price: 2500, Stock: 20, Active: true},
		{ID: "p2", SKU: "MUG-01", Name: "Coffee mug", Price: 800, Stock: 100, Active: true},
		{ID: "p3", SKU: "NOTE-01", Name: "Notebook", Price: 450, Stock: 50, Active: true},
		{ID: "p4", SKU: "PEN-09", Name: "Fountain pen", Price: 3900, Stock: 0, Active: false},
	}
}

// DemoCoupons are the coupons the demo backend accepts.
func DemoCoupons() []models.Coupon {
	return []models.Coupon{
		{ID: "c1", Code: "SAVE10", Description: "10% off", DiscountType: models.DiscountPercentage, DiscountValue: 10},
		{ID: "c2", Code: "MINUS500", Description: "500 off", DiscountType: models.DiscountFixedAmount, DiscountValue: 500},
		{ID: "c3", Code: "WELCOME", Description: "15% off the first order", DiscountType: models.DiscountPercentage, DiscountValue: 15, NewUserOnly: true},
	}
}
