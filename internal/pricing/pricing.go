package pricing

import (
	"github.com/google/uuid"

	"github.com/coldbreeze/storefront/internal/models"
)

// Item is one priced cart line at computation time.
type Item struct {
	UnitPriceInCents int64
	Quantity         int64
}

// CouponSnapshot is the immutable view of a coupon embedded into a totals
// computation and stored on the order as a reference.
type CouponSnapshot struct {
	ID    uuid.UUID           `json:"id"`
	Code  string              `json:"code"`
	Type  models.DiscountType `json:"discount_type"`
	Value int64               `json:"discount_value"`
}

type Totals struct {
	SubtotalInCents int64 `json:"subtotal_in_cents"`
	DiscountInCents int64 `json:"discount_in_cents"`
	ShippingInCents int64 `json:"shipping_in_cents"`
	TotalInCents    int64 `json:"total_in_cents"`
}

// ComputeTotals derives subtotal, discount, shipping and total in integer
// cents. It is pure: identical inputs always produce identical totals, which
// is what keeps the stored order and the external payment charge in
// agreement.
//
// The percentage basis is the subtotal only, never shipping. A fixed
// discount is capped at the subtotal, so the total can never go negative.
func ComputeTotals(items []Item, coupon *CouponSnapshot, shippingInCents int64) Totals {
	var subtotal int64
	for _, it := range items {
		subtotal += it.UnitPriceInCents * it.Quantity
	}

	var discount int64
	if coupon != nil {
		switch coupon.Type {
		case models.DiscountPercent:
			// round half up, in integer math
			discount = (subtotal*coupon.Value + 50) / 100
		case models.DiscountFixed:
			discount = coupon.Value
		}
		if discount < 0 {
			discount = 0
		}
		if discount > subtotal {
			discount = subtotal
		}
	}

	return Totals{
		SubtotalInCents: subtotal,
		DiscountInCents: discount,
		ShippingInCents: shippingInCents,
		TotalInCents:    subtotal - discount + shippingInCents,
	}
}
