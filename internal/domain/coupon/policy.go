package coupon

import "github.com/shopspring/decimal"

// Policy prices one coupon kind against a cart.
//
// IsApplicable and CalculateDiscount never modify the cart. Apply returns
// a new cart carrying the coupon's per-item discounts and leaves the
// argument untouched; when the coupon is not applicable the returned cart
// equals the input. Whether Apply overwrites or adds to an item's existing
// discount is policy specific and documented on each implementation.
type Policy interface {
	Supports(k Kind) bool
	IsApplicable(c Coupon, cart Cart) bool
	CalculateDiscount(c Coupon, cart Cart) decimal.Decimal
	Apply(c Coupon, cart Cart) Cart
}
