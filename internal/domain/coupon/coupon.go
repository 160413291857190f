package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Kind enumerates the supported coupon policies.
type Kind string

const (
	// KindCartWise discounts the whole cart once its value exceeds a threshold.
	KindCartWise Kind = "CART_WISE"
	// KindProductWise discounts every line of a single product.
	KindProductWise Kind = "PRODUCT_WISE"
	// KindBuyXGetY grants free units of some products for buying others.
	KindBuyXGetY Kind = "BUY_X_GET_Y"
)

// Kinds returns every kind the engine must be able to price.
func Kinds() []Kind {
	return []Kind{KindCartWise, KindProductWise, KindBuyXGetY}
}

// Slug renders the kind lowercased with hyphens, e.g. "cart-wise".
func (k Kind) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(k)), "_", "-")
}

// ParseKind accepts the enum name, its slug, and the legacy "bxgy" spelling.
func ParseKind(s string) (Kind, error) {
	norm := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_")
	switch norm {
	case string(KindCartWise):
		return KindCartWise, nil
	case string(KindProductWise):
		return KindProductWise, nil
	case string(KindBuyXGetY), "BXGY":
		return KindBuyXGetY, nil
	default:
		return "", errors.Wrapf(ErrInvalidCoupon, "unknown coupon type %q", s)
	}
}

// Meta holds the fields shared by every coupon kind.
type Meta struct {
	ID          int64
	Name        string `validate:"required"`
	Description string
	ExpiresAt   time.Time
	Active      bool
}

// Base returns the shared coupon fields.
func (m *Meta) Base() *Meta { return m }

// Expired reports whether the coupon's expiry is strictly before now.
func (m *Meta) Expired(now time.Time) bool {
	return m.ExpiresAt.Before(now)
}

// Coupon is one of *CartWise, *ProductWise or *BuyXGetY. The set is
// closed: only types in this package can implement it.
type Coupon interface {
	Kind() Kind
	Base() *Meta
	Expired(now time.Time) bool
	sealed()
}

// CartWise discounts DiscountPercent of the cart total once the total
// strictly exceeds Threshold.
type CartWise struct {
	Meta
	Threshold       decimal.Decimal `validate:"gt=0"`
	DiscountPercent int             `validate:"min=0,max=100"`
}

// ProductWise discounts DiscountPercent of every line for ProductID.
type ProductWise struct {
	Meta
	ProductID       int64 `validate:"gt=0"`
	DiscountPercent int   `validate:"min=0,max=100"`
}

// BuyRequirement is one product the buyer must purchase per repetition.
type BuyRequirement struct {
	ProductID int64 `validate:"gt=0"`
	Quantity  int   `validate:"gt=0,max=2147483647"`
}

// FreeGrant is one product granted for free per repetition.
type FreeGrant struct {
	ProductID int64 `validate:"gt=0"`
	Quantity  int   `validate:"gt=0,max=2147483647"`
}

// BuyXGetY grants Get for every fulfilment of Buy, at most RepetitionLimit times.
type BuyXGetY struct {
	Meta
	RepetitionLimit int              `validate:"min=1,max=2147483647"`
	Buy             []BuyRequirement `validate:"required,min=1,dive"`
	Get             []FreeGrant      `validate:"required,min=1,dive"`
}

func (*CartWise) Kind() Kind    { return KindCartWise }
func (*ProductWise) Kind() Kind { return KindProductWise }
func (*BuyXGetY) Kind() Kind    { return KindBuyXGetY }

func (*CartWise) sealed()    {}
func (*ProductWise) sealed() {}
func (*BuyXGetY) sealed()    {}

var (
	_ Coupon = (*CartWise)(nil)
	_ Coupon = (*ProductWise)(nil)
	_ Coupon = (*BuyXGetY)(nil)
)

// Repository is the coupon store the engine reads from. FindByID and
// Delete return ErrCouponNotFound on a miss. FindAll returns coupons in
// insertion order.
type Repository interface {
	FindByID(ctx context.Context, id int64) (Coupon, error)
	FindAll(ctx context.Context) ([]Coupon, error)
	Create(ctx context.Context, c Coupon) (Coupon, error)
	Save(ctx context.Context, c Coupon) (Coupon, error)
	Delete(ctx context.Context, id int64) error
}
