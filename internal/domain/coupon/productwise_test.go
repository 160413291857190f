package coupon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func productWise(productID int64, pct int) *ProductWise {
	return &ProductWise{
		Meta:            Meta{ID: 2, Name: "product", Active: true},
		ProductID:       productID,
		DiscountPercent: pct,
	}
}

func TestProductWisePolicy(t *testing.T) {
	p := ProductWisePolicy{}

	t.Run("single matching line", func(t *testing.T) {
		cart := Cart{Items: []Item{{ProductID: 1, Quantity: 2, UnitPrice: d("100")}}}
		c := productWise(1, 20)

		assert.True(t, p.IsApplicable(c, cart))
		assertDecimal(t, d("40.00"), p.CalculateDiscount(c, cart))
	})

	t.Run("no matching line", func(t *testing.T) {
		cart := Cart{Items: []Item{{ProductID: 2, Quantity: 2, UnitPrice: d("100")}}}
		c := productWise(1, 20)

		assert.False(t, p.IsApplicable(c, cart))
		assertDecimal(t, d("0"), p.CalculateDiscount(c, cart))
		assert.Equal(t, cart, p.Apply(c, cart))
	})

	t.Run("aggregate is not rounded", func(t *testing.T) {
		cart := Cart{Items: []Item{
			{ProductID: 1, Quantity: 1, UnitPrice: d("0.99")},
			{ProductID: 3, Quantity: 1, UnitPrice: d("5")},
			{ProductID: 1, Quantity: 1, UnitPrice: d("0.99")},
		}}
		c := productWise(1, 15)

		// 2 * (0.99 * 15 / 100) = 0.297
		assertDecimal(t, d("0.297"), p.CalculateDiscount(c, cart))

		out := p.Apply(c, cart)
		assertDecimal(t, d("0.15"), out.Items[0].Discount)
		assert.True(t, out.Items[1].Discount.IsZero())
		assertDecimal(t, d("0.15"), out.Items[2].Discount)
	})

	t.Run("apply overwrites matching lines only", func(t *testing.T) {
		cart := Cart{Items: []Item{
			{ProductID: 1, Quantity: 2, UnitPrice: d("20"), Discount: d("3")},
			{ProductID: 2, Quantity: 1, UnitPrice: d("10"), Discount: d("4")},
		}}

		out := p.Apply(productWise(1, 50), cart)

		assertDecimal(t, d("20.00"), out.Items[0].Discount)
		assertDecimal(t, d("4"), out.Items[1].Discount)
		assertDecimal(t, d("3"), cart.Items[0].Discount)
	})
}
