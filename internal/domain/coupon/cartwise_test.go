package coupon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cartWise(threshold string, pct int) *CartWise {
	return &CartWise{
		Meta:            Meta{ID: 1, Name: "cart", Active: true},
		Threshold:       d(threshold),
		DiscountPercent: pct,
	}
}

func TestCartWisePolicy_CalculateDiscount(t *testing.T) {
	p := CartWisePolicy{}

	tests := []struct {
		name           string
		coupon         *CartWise
		items          []Item
		wantApplicable bool
		wantDiscount   decimal.Decimal
	}{
		{
			name:   "threshold met",
			coupon: cartWise("100", 10),
			items: []Item{
				{ProductID: 1, Quantity: 2, UnitPrice: d("60")},
				{ProductID: 2, Quantity: 1, UnitPrice: d("30")},
			},
			wantApplicable: true,
			wantDiscount:   d("15.00"),
		},
		{
			name:   "threshold not met",
			coupon: cartWise("200", 15),
			items: []Item{
				{ProductID: 1, Quantity: 2, UnitPrice: d("50")},
			},
			wantDiscount: d("0"),
		},
		{
			name:   "total equal to threshold is not enough",
			coupon: cartWise("100", 10),
			items: []Item{
				{ProductID: 1, Quantity: 2, UnitPrice: d("50")},
			},
			wantDiscount: d("0"),
		},
		{
			name:   "rounds half up",
			coupon: cartWise("10", 15),
			items: []Item{
				{ProductID: 1, Quantity: 3, UnitPrice: d("9.99")},
			},
			wantApplicable: true,
			wantDiscount:   d("4.50"),
		},
		{
			name:         "empty cart",
			coupon:       cartWise("1", 10),
			items:        nil,
			wantDiscount: d("0"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := Cart{Items: tt.items}
			assert.Equal(t, tt.wantApplicable, p.IsApplicable(tt.coupon, cart))
			assertDecimal(t, tt.wantDiscount, p.CalculateDiscount(tt.coupon, cart))
		})
	}
}

func TestCartWisePolicy_Apply(t *testing.T) {
	p := CartWisePolicy{}

	t.Run("distributes proportionally", func(t *testing.T) {
		cart := Cart{Items: []Item{
			{ProductID: 1, Quantity: 2, UnitPrice: d("50")},
			{ProductID: 2, Quantity: 1, UnitPrice: d("50")},
		}}

		out := p.Apply(cartWise("100", 10), cart)

		require.Len(t, out.Items, 2)
		assertDecimal(t, d("10.00"), out.Items[0].Discount)
		assertDecimal(t, d("5.00"), out.Items[1].Discount)
	})

	t.Run("uneven shares", func(t *testing.T) {
		cart := Cart{Items: []Item{
			{ProductID: 1, Quantity: 2, UnitPrice: d("60")},
			{ProductID: 2, Quantity: 1, UnitPrice: d("30")},
		}}

		out := p.Apply(cartWise("100", 10), cart)

		assertDecimal(t, d("12.00"), out.Items[0].Discount)
		assertDecimal(t, d("3.00"), out.Items[1].Discount)
	})

	t.Run("overwrites existing discount", func(t *testing.T) {
		cart := Cart{Items: []Item{
			{ProductID: 1, Quantity: 2, UnitPrice: d("60"), Discount: d("7")},
			{ProductID: 2, Quantity: 1, UnitPrice: d("30"), Discount: d("1")},
		}}

		out := p.Apply(cartWise("100", 10), cart)

		assertDecimal(t, d("12.00"), out.Items[0].Discount)
		assertDecimal(t, d("3.00"), out.Items[1].Discount)
	})

	t.Run("below threshold is a no-op", func(t *testing.T) {
		cart := Cart{Items: []Item{
			{ProductID: 1, Quantity: 1, UnitPrice: d("100")},
		}}

		out := p.Apply(cartWise("200", 10), cart)

		assert.Equal(t, cart, out)
		assert.True(t, out.Items[0].Discount.IsZero())
	})

	t.Run("total equal to threshold is a no-op", func(t *testing.T) {
		cart := Cart{Items: []Item{
			{ProductID: 1, Quantity: 2, UnitPrice: d("50")},
		}}
		c := cartWise("100", 10)

		out := p.Apply(c, cart)

		assert.Equal(t, cart, out)
		assert.True(t, p.CalculateDiscount(c, cart).IsZero())
	})

	t.Run("does not modify input", func(t *testing.T) {
		cart := Cart{Items: []Item{
			{ProductID: 1, Quantity: 2, UnitPrice: d("60")},
		}}

		_ = p.Apply(cartWise("100", 10), cart)

		assert.True(t, cart.Items[0].Discount.IsZero())
	})

	t.Run("line discounts sum to cart discount within rounding", func(t *testing.T) {
		cart := Cart{Items: []Item{
			{ProductID: 1, Quantity: 1, UnitPrice: d("10.00")},
			{ProductID: 2, Quantity: 1, UnitPrice: d("10.00")},
			{ProductID: 3, Quantity: 1, UnitPrice: d("10.01")},
			{ProductID: 4, Quantity: 3, UnitPrice: d("3.33")},
		}}
		coupon := cartWise("1", 17)

		want := p.CalculateDiscount(coupon, cart)
		out := p.Apply(coupon, cart)

		sum := decimal.Zero
		for _, item := range out.Items {
			sum = sum.Add(item.Discount)
		}
		tolerance := d("0.01").Mul(decimal.NewFromInt(int64(len(cart.Items))))
		assert.True(t, sum.Sub(want).Abs().LessThanOrEqual(tolerance),
			"line sum %s drifted from %s by more than %s", sum, want, tolerance)
	})
}

func TestCartWisePolicy_WrongCoupon(t *testing.T) {
	p := CartWisePolicy{}
	cart := Cart{Items: []Item{{ProductID: 1, Quantity: 1, UnitPrice: d("500")}}}
	other := &ProductWise{ProductID: 1, DiscountPercent: 10}

	assert.False(t, p.IsApplicable(other, cart))
	assert.True(t, p.CalculateDiscount(other, cart).IsZero())
	assert.Equal(t, cart, p.Apply(other, cart))
}
