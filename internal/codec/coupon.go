package codec

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/0pain01/Monk-coupon/internal/domain/coupon"
)

// localTimeLayout is accepted for expires_at values without a zone; they
// are read as UTC.
const localTimeLayout = "2006-01-02T15:04:05"

// DecodeCoupon parses a coupon definition:
//
//	{"id","name","description","type","expires_at","active","details":{...}}
//
// "details" may appear before "type"; it is decoded once the kind is known.
func DecodeCoupon(data []byte) (coupon.Coupon, error) {
	var (
		meta    coupon.Meta
		kind    coupon.Kind
		details []byte
	)
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			meta.ID, err = decodeInt64(d)
		case "name":
			meta.Name, err = d.Str()
		case "description":
			meta.Description, err = decodeOptStr(d)
		case "type":
			var s string
			if s, err = d.Str(); err == nil {
				kind, err = coupon.ParseKind(s)
			}
		case "expires_at":
			meta.ExpiresAt, err = decodeTime(d)
		case "active":
			meta.Active, err = d.Bool()
		case "details":
			var raw jx.Raw
			if raw, err = d.Raw(); err == nil {
				details = append([]byte(nil), raw...)
			}
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, coupon.ErrInvalidCoupon) {
			return nil, err
		}
		return nil, malformed(err, "coupon")
	}
	if kind == "" {
		return nil, &coupon.ValidationError{Field: "type", Reason: "is required"}
	}

	c, err := decodeDetails(kind, meta, details)
	if err != nil {
		return nil, malformed(err, "details")
	}
	return c, nil
}

func decodeOptStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

func decodeTime(d *jx.Decoder) (time.Time, error) {
	s, err := d.Str()
	if err != nil {
		return time.Time{}, err
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.ParseInLocation(localTimeLayout, s, time.UTC)
}

func decodeDetails(kind coupon.Kind, meta coupon.Meta, data []byte) (coupon.Coupon, error) {
	if len(data) == 0 {
		data = []byte("{}")
	}
	d := jx.DecodeBytes(data)

	switch kind {
	case coupon.KindCartWise:
		c := &coupon.CartWise{Meta: meta}
		err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "threshold":
				c.Threshold, err = decodeDecimal(d)
			case "discount":
				c.DiscountPercent, err = decodeInt(d)
			default:
				return d.Skip()
			}
			if err != nil {
				return errors.Wrap(err, key)
			}
			return nil
		})
		return c, err
	case coupon.KindProductWise:
		c := &coupon.ProductWise{Meta: meta}
		err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "product_id":
				c.ProductID, err = decodeInt64(d)
			case "discount":
				c.DiscountPercent, err = decodeInt(d)
			default:
				return d.Skip()
			}
			if err != nil {
				return errors.Wrap(err, key)
			}
			return nil
		})
		return c, err
	case coupon.KindBuyXGetY:
		c := &coupon.BuyXGetY{Meta: meta}
		err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "repetition_limit":
				c.RepetitionLimit, err = decodeInt(d)
			case "buy_products":
				err = decodeProductQuantities(d, func(id int64, qty int) {
					c.Buy = append(c.Buy, coupon.BuyRequirement{ProductID: id, Quantity: qty})
				})
			case "get_products":
				err = decodeProductQuantities(d, func(id int64, qty int) {
					c.Get = append(c.Get, coupon.FreeGrant{ProductID: id, Quantity: qty})
				})
			default:
				return d.Skip()
			}
			if err != nil {
				return errors.Wrap(err, key)
			}
			return nil
		})
		return c, err
	default:
		return nil, &coupon.NoPolicyForKindError{Kind: kind}
	}
}

func decodeProductQuantities(d *jx.Decoder, add func(id int64, qty int)) error {
	return d.Arr(func(d *jx.Decoder) error {
		var (
			id  int64
			qty int
		)
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "product_id":
				id, err = decodeInt64(d)
			case "quantity":
				qty, err = decodeInt(d)
			default:
				return d.Skip()
			}
			if err != nil {
				return errors.Wrap(err, key)
			}
			return nil
		}); err != nil {
			return err
		}
		add(id, qty)
		return nil
	})
}

// EncodeCoupon renders a single coupon definition.
func EncodeCoupon(c coupon.Coupon) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	writeCoupon(e, c)
	return append([]byte(nil), e.Bytes()...)
}

// EncodeCoupons renders a JSON array of coupon definitions.
func EncodeCoupons(list []coupon.Coupon) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.Arr(func(e *jx.Encoder) {
		for _, c := range list {
			writeCoupon(e, c)
		}
	})
	return append([]byte(nil), e.Bytes()...)
}

func writeCoupon(e *jx.Encoder, c coupon.Coupon) {
	meta := c.Base()
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(meta.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(meta.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(meta.Description) })
		e.Field("type", func(e *jx.Encoder) { e.Str(c.Kind().Slug()) })
		e.Field("expires_at", func(e *jx.Encoder) { e.Str(meta.ExpiresAt.UTC().Format(time.RFC3339)) })
		e.Field("active", func(e *jx.Encoder) { e.Bool(meta.Active) })
		e.Field("details", func(e *jx.Encoder) { writeDetails(e, c) })
	})
}

func writeDetails(e *jx.Encoder, c coupon.Coupon) {
	e.Obj(func(e *jx.Encoder) {
		switch c := c.(type) {
		case *coupon.CartWise:
			e.Field("threshold", func(e *jx.Encoder) { money(e, c.Threshold) })
			e.Field("discount", func(e *jx.Encoder) { e.Int(c.DiscountPercent) })
		case *coupon.ProductWise:
			e.Field("product_id", func(e *jx.Encoder) { e.Int64(c.ProductID) })
			e.Field("discount", func(e *jx.Encoder) { e.Int(c.DiscountPercent) })
		case *coupon.BuyXGetY:
			e.Field("repetition_limit", func(e *jx.Encoder) { e.Int(c.RepetitionLimit) })
			e.Field("buy_products", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, b := range c.Buy {
						writeProductQuantity(e, b.ProductID, b.Quantity)
					}
				})
			})
			e.Field("get_products", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, g := range c.Get {
						writeProductQuantity(e, g.ProductID, g.Quantity)
					}
				})
			})
		}
	})
}

func writeProductQuantity(e *jx.Encoder, id int64, qty int) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("product_id", func(e *jx.Encoder) { e.Int64(id) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(qty) })
	})
}
