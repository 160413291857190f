package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// ListingFilter controls which stored coupons ApplicableCoupons considers.
type ListingFilter string

const (
	// ListUsable skips inactive and expired coupons, matching ApplyCoupon.
	ListUsable ListingFilter = "usable"
	// ListAll considers every stored coupon regardless of state.
	ListAll ListingFilter = "all"
)

// ParseListingFilter parses a configured filter; empty means usable.
func ParseListingFilter(s string) (ListingFilter, error) {
	switch ListingFilter(s) {
	case "", ListUsable:
		return ListUsable, nil
	case ListAll:
		return ListAll, nil
	default:
		return "", errors.Errorf("unknown listing filter %q", s)
	}
}

// PricedCart is a cart after a coupon has been applied.
type PricedCart struct {
	Items         []Item
	TotalPrice    decimal.Decimal
	TotalDiscount decimal.Decimal
	FinalPrice    decimal.Decimal
}

// ApplicableCoupon is one entry of the applicable coupons listing.
type ApplicableCoupon struct {
	CouponID int64
	Type     string
	Discount decimal.Decimal
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMeterProvider sets the meter provider for coupon counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meterProvider = mp }
}

// WithListingFilter sets which coupons ApplicableCoupons considers.
func WithListingFilter(f ListingFilter) Option {
	return func(s *Service) { s.listing = f }
}

// Service looks up coupons, enforces their lifecycle and prices carts
// through the dispatcher. It also owns coupon administration.
type Service struct {
	repo       Repository
	dispatcher *Dispatcher
	listing    ListingFilter
	now        func() time.Time

	meterProvider metric.MeterProvider
	applied       metric.Int64Counter
	rejected      metric.Int64Counter
}

// NewService creates a Service backed by repo and dispatcher.
func NewService(repo Repository, dispatcher *Dispatcher, opts ...Option) (*Service, error) {
	s := &Service{
		repo:          repo,
		dispatcher:    dispatcher,
		listing:       ListUsable,
		now:           time.Now,
		meterProvider: noop.NewMeterProvider(),
	}
	for _, opt := range opts {
		opt(s)
	}

	meter := s.meterProvider.Meter("github.com/0pain01/Monk-coupon/internal/domain/coupon")
	var err error
	if s.applied, err = meter.Int64Counter("coupon.applied",
		metric.WithDescription("Coupons successfully applied to a cart"),
	); err != nil {
		return nil, errors.Wrap(err, "create applied counter")
	}
	if s.rejected, err = meter.Int64Counter("coupon.rejected",
		metric.WithDescription("Coupon applications rejected before pricing"),
	); err != nil {
		return nil, errors.Wrap(err, "create rejected counter")
	}
	return s, nil
}

// ApplyCoupon prices cart with the coupon identified by id.
//
// An expired coupon that is still active is deactivated and saved before
// ErrCouponExpired is returned. A failed save is logged and does not change
// the result. The caller's cart is never modified.
func (s *Service) ApplyCoupon(ctx context.Context, id int64, cart Cart) (*PricedCart, error) {
	if err := cart.Validate(); err != nil {
		return nil, err
	}

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			s.reject(ctx, "not_found")
			return nil, errors.Wrapf(ErrCouponNotFound, "coupon %d", id)
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	meta := c.Base()
	if meta.Expired(s.now()) {
		if meta.Active {
			meta.Active = false
			if _, err := s.repo.Save(ctx, c); err != nil {
				// The coupon stays rejected; the next request retries the write-back.
				meta.Active = true
				zctx.From(ctx).Error("Deactivate expired coupon",
					zap.Int64("coupon_id", id),
					zap.Error(err),
				)
			} else {
				zctx.From(ctx).Info("Deactivated expired coupon",
					zap.Int64("coupon_id", id),
					zap.Time("expires_at", meta.ExpiresAt),
				)
			}
		}
		s.reject(ctx, "expired")
		return nil, errors.Wrapf(ErrCouponExpired, "coupon %d has expired", id)
	}
	if !meta.Active {
		s.reject(ctx, "inactive")
		return nil, errors.Wrapf(ErrCouponExpired, "coupon %d is inactive", id)
	}

	policy, err := s.dispatcher.Dispatch(c.Kind())
	if err != nil {
		return nil, err
	}

	discount := Round2(policy.CalculateDiscount(c, cart))
	applied := policy.Apply(c, cart)

	total := Round2(applied.Total())
	s.applied.Add(ctx, 1, metric.WithAttributes(attribute.String("type", c.Kind().Slug())))

	return &PricedCart{
		Items:         applied.Items,
		TotalPrice:    total,
		TotalDiscount: discount,
		FinalPrice:    Round2(total.Sub(discount)),
	}, nil
}

// ApplicableCoupons lists the stored coupons applicable to cart, in
// storage order, with the discount each would produce.
func (s *Service) ApplicableCoupons(ctx context.Context, cart Cart) ([]ApplicableCoupon, error) {
	if err := cart.Validate(); err != nil {
		return nil, err
	}

	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}

	now := s.now()
	result := make([]ApplicableCoupon, 0, len(all))
	for _, c := range all {
		if s.listing == ListUsable && (!c.Base().Active || c.Expired(now)) {
			continue
		}
		policy, err := s.dispatcher.Dispatch(c.Kind())
		if err != nil {
			return nil, err
		}
		if !policy.IsApplicable(c, cart) {
			continue
		}
		result = append(result, ApplicableCoupon{
			CouponID: c.Base().ID,
			Type:     c.Kind().Slug(),
			Discount: policy.CalculateDiscount(c, cart),
		})
	}
	return result, nil
}

// Create validates and stores a new coupon.
func (s *Service) Create(ctx context.Context, c Coupon) (Coupon, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}
	c.Base().ID = 0
	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, errors.Wrap(err, "create coupon")
	}
	return created, nil
}

// Get returns the coupon with the given id.
func (s *Service) Get(ctx context.Context, id int64) (Coupon, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return nil, errors.Wrapf(ErrCouponNotFound, "coupon %d", id)
		}
		return nil, errors.Wrap(err, "get coupon")
	}
	return c, nil
}

// List returns all stored coupons.
func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}
	return all, nil
}

// Update replaces the coupon stored under id with c. The kind of a
// coupon cannot change.
func (s *Service) Update(ctx context.Context, id int64, c Coupon) (Coupon, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil || existing.Kind() != c.Kind() {
		return nil, ErrInvalidCouponTypeChange
	}
	if err := Validate(c); err != nil {
		return nil, err
	}

	c.Base().ID = id
	saved, err := s.repo.Save(ctx, c)
	if err != nil {
		return nil, errors.Wrap(err, "update coupon")
	}
	return saved, nil
}

// Delete removes the coupon stored under id and returns its name.
func (s *Service) Delete(ctx context.Context, id int64) (string, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return "", errors.Wrapf(ErrCouponNotFound, "coupon %d", id)
		}
		return "", errors.Wrap(err, "delete coupon")
	}
	return existing.Base().Name, nil
}

func (s *Service) reject(ctx context.Context, reason string) {
	s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
