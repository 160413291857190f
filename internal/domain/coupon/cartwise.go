package coupon

import "github.com/shopspring/decimal"

// CartWisePolicy prices *CartWise coupons.
//
// Apply spreads the discount over all lines in proportion to each line's
// share of the cart total and OVERWRITES any discount already on a line.
// Because each line is rounded on its own, the line discounts may differ
// from the cart discount by up to a cent per line.
type CartWisePolicy struct{}

var _ Policy = CartWisePolicy{}

func (CartWisePolicy) Supports(k Kind) bool { return k == KindCartWise }

func (CartWisePolicy) IsApplicable(c Coupon, cart Cart) bool {
	cw, ok := c.(*CartWise)
	if !ok {
		return false
	}
	return cart.Total().GreaterThan(cw.Threshold)
}

func (p CartWisePolicy) CalculateDiscount(c Coupon, cart Cart) decimal.Decimal {
	if !p.IsApplicable(c, cart) {
		return zero
	}
	cw := c.(*CartWise)
	return Percent(cart.Total(), cw.DiscountPercent)
}

// Apply leaves the cart unchanged unless its total strictly exceeds the
// threshold. A total equal to the threshold gets no line discounts, the same
// as CalculateDiscount.
func (p CartWisePolicy) Apply(c Coupon, cart Cart) Cart {
	out := cart.Clone()
	if !p.IsApplicable(c, out) {
		return out
	}
	cw := c.(*CartWise)

	total := out.Total()
	discount := Percent(total, cw.DiscountPercent)
	for i := range out.Items {
		share := Share(out.Items[i].Total(), total)
		out.Items[i].Discount = Round2(discount.Mul(share))
	}
	return out
}
