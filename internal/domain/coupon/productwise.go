package coupon

import "github.com/shopspring/decimal"

// ProductWisePolicy prices *ProductWise coupons.
//
// CalculateDiscount sums the exact per-line percentages; rounding happens
// once, when the pipeline prices the cart. Apply rounds every matching
// line on its own and OVERWRITES the line's existing discount.
type ProductWisePolicy struct{}

var _ Policy = ProductWisePolicy{}

func (ProductWisePolicy) Supports(k Kind) bool { return k == KindProductWise }

func (ProductWisePolicy) IsApplicable(c Coupon, cart Cart) bool {
	pw, ok := c.(*ProductWise)
	if !ok {
		return false
	}
	for _, item := range cart.Items {
		if item.ProductID == pw.ProductID {
			return true
		}
	}
	return false
}

func (ProductWisePolicy) CalculateDiscount(c Coupon, cart Cart) decimal.Decimal {
	pw, ok := c.(*ProductWise)
	if !ok {
		return zero
	}
	sum := zero
	for _, item := range cart.Items {
		if item.ProductID == pw.ProductID {
			sum = sum.Add(PercentExact(item.Total(), pw.DiscountPercent))
		}
	}
	return sum
}

func (ProductWisePolicy) Apply(c Coupon, cart Cart) Cart {
	out := cart.Clone()
	pw, ok := c.(*ProductWise)
	if !ok {
		return out
	}
	for i, item := range out.Items {
		if item.ProductID == pw.ProductID {
			out.Items[i].Discount = Percent(item.Total(), pw.DiscountPercent)
		}
	}
	return out
}
