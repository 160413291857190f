package coupon

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrCouponNotFound is returned when no coupon exists for the given id.
	ErrCouponNotFound = errors.New("coupon not found")
	// ErrCouponExpired is returned for coupons past their expiry and for
	// coupons that were explicitly deactivated. Callers see both the same way.
	ErrCouponExpired = errors.New("coupon expired or inactive")
	// ErrInvalidCouponTypeChange is returned when an update tries to change
	// the kind of an existing coupon.
	ErrInvalidCouponTypeChange = errors.New("cannot change coupon type on update")
	// ErrInvalidCoupon is returned when a coupon definition fails validation.
	ErrInvalidCoupon = errors.New("invalid coupon")
	// ErrInvalidCart is returned when a cart carries negative quantities or prices.
	ErrInvalidCart = errors.New("invalid cart")
)

// NoPolicyForKindError indicates the dispatcher has no policy registered
// for a coupon kind. It is a wiring fault, never a client error.
type NoPolicyForKindError struct {
	Kind Kind
}

func (e *NoPolicyForKindError) Error() string {
	return fmt.Sprintf("no policy registered for coupon kind %s", e.Kind)
}

// ValidationError describes the first field of a coupon definition that
// failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid coupon: %s %s", e.Field, e.Reason)
}

// Unwrap allows errors.Is(err, ErrInvalidCoupon).
func (e *ValidationError) Unwrap() error {
	return ErrInvalidCoupon
}
