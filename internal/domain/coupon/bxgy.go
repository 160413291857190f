package coupon

import (
	"math"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// RepetitionMode selects how the cart's bundle capacity is combined with
// a coupon's repetition limit.
type RepetitionMode string

const (
	// RepetitionCapped grants min(capacity, limit) bundles: never more than
	// the cart qualifies for, never more than the limit.
	RepetitionCapped RepetitionMode = "capped"
	// RepetitionLegacy grants max(capacity, limit) bundles. This matches the
	// service this engine replaces and grants `limit` bundles even to carts
	// that do not fulfil the buy requirements.
	RepetitionLegacy RepetitionMode = "legacy"
)

// ParseRepetitionMode parses a configured mode; empty means capped.
func ParseRepetitionMode(s string) (RepetitionMode, error) {
	switch RepetitionMode(s) {
	case "", RepetitionCapped:
		return RepetitionCapped, nil
	case RepetitionLegacy:
		return RepetitionLegacy, nil
	default:
		return "", errors.Errorf("unknown repetition mode %q", s)
	}
}

// BuyXGetYPolicy prices *BuyXGetY coupons.
//
// Apply ADDS the value of the free units to each granted line's existing
// discount, unlike the cart-wise and product-wise policies which overwrite.
type BuyXGetYPolicy struct {
	Mode RepetitionMode
}

var _ Policy = BuyXGetYPolicy{}

// NewBuyXGetYPolicy returns a policy using the given repetition mode.
func NewBuyXGetYPolicy(mode RepetitionMode) BuyXGetYPolicy {
	return BuyXGetYPolicy{Mode: mode}
}

func (BuyXGetYPolicy) Supports(k Kind) bool { return k == KindBuyXGetY }

// Repetitions returns how many bundles the cart earns under c.
func (p BuyXGetYPolicy) Repetitions(c *BuyXGetY, cart Cart) int {
	if len(c.Buy) == 0 {
		return c.RepetitionLimit
	}

	capacity := -1
	for _, req := range c.Buy {
		if req.Quantity <= 0 {
			return 0
		}
		n := cart.Quantity(req.ProductID) / req.Quantity
		if capacity < 0 || n < capacity {
			capacity = n
		}
	}

	if p.Mode == RepetitionLegacy {
		return max(capacity, c.RepetitionLimit)
	}
	return max(min(capacity, c.RepetitionLimit), 0)
}

// freeUnits returns perBundle*reps, saturating at math.MaxInt. Non-positive
// inputs grant nothing.
func freeUnits(perBundle, reps int) int {
	if perBundle <= 0 || reps <= 0 {
		return 0
	}
	if perBundle > math.MaxInt/reps {
		return math.MaxInt
	}
	return perBundle * reps
}

func (p BuyXGetYPolicy) IsApplicable(c Coupon, cart Cart) bool {
	bx, ok := c.(*BuyXGetY)
	if !ok {
		return false
	}
	return p.Repetitions(bx, cart) > 0
}

func (p BuyXGetYPolicy) CalculateDiscount(c Coupon, cart Cart) decimal.Decimal {
	bx, ok := c.(*BuyXGetY)
	if !ok {
		return zero
	}
	reps := p.Repetitions(bx, cart)
	if reps <= 0 {
		return zero
	}

	sum := zero
	for _, g := range bx.Get {
		remaining := min(cart.Quantity(g.ProductID), freeUnits(g.Quantity, reps))
		for _, item := range cart.Items {
			if remaining <= 0 {
				break
			}
			if item.ProductID != g.ProductID {
				continue
			}
			free := min(item.Quantity, remaining)
			sum = sum.Add(LineTotal(item.UnitPrice, free))
			remaining -= free
		}
	}
	return sum
}

func (p BuyXGetYPolicy) Apply(c Coupon, cart Cart) Cart {
	out := cart.Clone()
	bx, ok := c.(*BuyXGetY)
	if !ok {
		return out
	}
	reps := p.Repetitions(bx, out)
	if reps <= 0 {
		return out
	}

	for _, g := range bx.Get {
		remaining := min(out.Quantity(g.ProductID), freeUnits(g.Quantity, reps))
		for i := range out.Items {
			if remaining <= 0 {
				break
			}
			item := &out.Items[i]
			if item.ProductID != g.ProductID {
				continue
			}
			free := min(item.Quantity, remaining)
			item.Discount = item.Discount.Add(LineTotal(item.UnitPrice, free))
			remaining -= free
		}
	}
	return out
}
