package pricing

import (
	"github.com/jafarshop/shopapi/internal/domain"
)

// PriceLine computes the effective amount of one cart line:
// unit price reduced by the per-line discount, times quantity.
// A discount percent outside [0, 100] is treated as no discount.
func PriceLine(item domain.CartItem) float64 {
	pct := item.DiscountPercent
	if pct < 0 || pct > 100 {
		pct = 0
	}
	return item.UnitPrice * (1 - pct/100) * float64(item.Quantity)
}

// EffectiveUnitPrice is the per-unit price after the line discount.
// This is the value snapshotted onto order line items.
func EffectiveUnitPrice(item domain.CartItem) float64 {
	pct := item.DiscountPercent
	if pct < 0 || pct > 100 {
		pct = 0
	}
	return item.UnitPrice * (1 - pct/100)
}

// Subtotal sums PriceLine over all cart items. An empty cart yields 0.
func Subtotal(cart domain.Cart) float64 {
	var total float64
	for _, item := range cart {
		total += PriceLine(item)
	}
	return total
}
