package coupon

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// Round2 rounds d half away from zero to two decimal places. All amounts
// in the engine are non-negative, so this is plain half-up rounding.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Percent returns pct percent of amount, rounded half-up to two places.
func Percent(amount decimal.Decimal, pct int) decimal.Decimal {
	return Round2(PercentExact(amount, pct))
}

// PercentExact returns pct percent of amount without rounding.
func PercentExact(amount decimal.Decimal, pct int) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(pct))).Div(hundred)
}

// Share returns part/whole rounded half-up to four places, or zero when
// whole is zero.
func Share(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return zero
	}
	return part.DivRound(whole, 4)
}

// LineTotal returns price * qty.
func LineTotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}
