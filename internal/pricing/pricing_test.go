package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/coldbreeze/storefront/internal/models"
)

func TestComputeTotalsNoCoupon(t *testing.T) {
	items := []Item{{UnitPriceInCents: 5000, Quantity: 2}}

	totals := ComputeTotals(items, nil, 1000)

	require.Equal(t, int64(10000), totals.SubtotalInCents)
	require.Equal(t, int64(0), totals.DiscountInCents)
	require.Equal(t, int64(1000), totals.ShippingInCents)
	require.Equal(t, int64(11000), totals.TotalInCents)
}

func TestComputeTotalsPercentCoupon(t *testing.T) {
	items := []Item{{UnitPriceInCents: 5000, Quantity: 2}}
	coupon := &CouponSnapshot{ID: uuid.New(), Code: "TEN", Type: models.DiscountPercent, Value: 10}

	totals := ComputeTotals(items, coupon, 1000)

	require.Equal(t, int64(10000), totals.SubtotalInCents)
	require.Equal(t, int64(1000), totals.DiscountInCents)
	require.Equal(t, int64(10000), totals.TotalInCents)
}

func TestComputeTotalsFixedCouponExceedsSubtotal(t *testing.T) {
	items := []Item{{UnitPriceInCents: 5000, Quantity: 2}}
	coupon := &CouponSnapshot{ID: uuid.New(), Code: "BIG", Type: models.DiscountFixed, Value: 15000}

	totals := ComputeTotals(items, coupon, 1000)

	require.Equal(t, int64(10000), totals.DiscountInCents, "fixed discount is capped at the subtotal")
	require.Equal(t, int64(1000), totals.TotalInCents, "shipping only")
}

func TestComputeTotalsPercentBasisExcludesShipping(t *testing.T) {
	items := []Item{{UnitPriceInCents: 10000, Quantity: 1}}
	coupon := &CouponSnapshot{Type: models.DiscountPercent, Value: 50}

	totals := ComputeTotals(items, coupon, 2000)

	// 50% of 10000, not of 12000
	require.Equal(t, int64(5000), totals.DiscountInCents)
	require.Equal(t, int64(7000), totals.TotalInCents)
}

func TestComputeTotalsPercentRoundsHalfUp(t *testing.T) {
	items := []Item{{UnitPriceInCents: 3333, Quantity: 3}} // subtotal 9999
	coupon := &CouponSnapshot{Type: models.DiscountPercent, Value: 10}

	totals := ComputeTotals(items, coupon, 0)

	require.Equal(t, int64(1000), totals.DiscountInCents)
}

func TestComputeTotalsTotalIdentity(t *testing.T) {
	cases := []struct {
		items    []Item
		coupon   *CouponSnapshot
		shipping int64
	}{
		{[]Item{{5000, 2}}, nil, 1000},
		{[]Item{{199, 3}, {2500, 1}}, &CouponSnapshot{Type: models.DiscountPercent, Value: 33}, 790},
		{[]Item{{100, 1}}, &CouponSnapshot{Type: models.DiscountFixed, Value: 100}, 500},
		{nil, &CouponSnapshot{Type: models.DiscountFixed, Value: 9999}, 0},
	}
	for _, tc := range cases {
		totals := ComputeTotals(tc.items, tc.coupon, tc.shipping)

		remaining := totals.SubtotalInCents - totals.DiscountInCents
		if remaining < 0 {
			remaining = 0
		}
		require.Equal(t, remaining+totals.ShippingInCents, totals.TotalInCents)
		require.GreaterOrEqual(t, totals.DiscountInCents, int64(0))
		require.LessOrEqual(t, totals.DiscountInCents, totals.SubtotalInCents)
		require.GreaterOrEqual(t, totals.TotalInCents, int64(0))
	}
}

func TestComputeTotalsDeterministic(t *testing.T) {
	items := []Item{{UnitPriceInCents: 777, Quantity: 13}}
	coupon := &CouponSnapshot{Type: models.DiscountPercent, Value: 7}

	first := ComputeTotals(items, coupon, 1490)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, ComputeTotals(items, coupon, 1490))
	}
}
