package cart

import "github.com/atinyakov/storefront/internal/models"

// PreviewTotal returns what the shopper would pay for subtotal with coupon.
// A nil coupon returns subtotal unchanged. The backend's total is
// authoritative; this only previews it.
func PreviewTotal(subtotal float64, coupon *models.Coupon) float64 {
	if coupon == nil {
		return subtotal
	}
	return coupon.Apply(subtotal)
}
