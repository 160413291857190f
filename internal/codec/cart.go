package codec

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/0pain01/Monk-coupon/internal/domain/coupon"
)

// DecodeCartRequest parses {"cart":{"items":[{"product_id","quantity","price"}]}}.
func DecodeCartRequest(data []byte) (coupon.Cart, error) {
	var (
		cart    coupon.Cart
		hasCart bool
	)
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "cart" {
			return d.Skip()
		}
		hasCart = true
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key != "items" {
				return d.Skip()
			}
			return d.Arr(func(d *jx.Decoder) error {
				item, err := decodeItem(d)
				if err != nil {
					return errors.Wrapf(err, "item %d", len(cart.Items))
				}
				cart.Items = append(cart.Items, item)
				return nil
			})
		})
	})
	if err != nil {
		return coupon.Cart{}, malformed(err, "cart")
	}
	if !hasCart {
		return coupon.Cart{}, errors.Wrap(ErrMalformed, "missing cart")
	}
	return cart, nil
}

func decodeItem(d *jx.Decoder) (coupon.Item, error) {
	var item coupon.Item
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "product_id":
			item.ProductID, err = decodeInt64(d)
		case "quantity":
			item.Quantity, err = decodeInt(d)
		case "price":
			item.UnitPrice, err = decodeDecimal(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	return item, err
}

// EncodeApplicable renders {"applicable_coupons":[{"coupon_id","type","discount"}]}.
func EncodeApplicable(list []coupon.ApplicableCoupon) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.Obj(func(e *jx.Encoder) {
		e.Field("applicable_coupons", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, c := range list {
					e.Obj(func(e *jx.Encoder) {
						e.Field("coupon_id", func(e *jx.Encoder) { e.Int64(c.CouponID) })
						e.Field("type", func(e *jx.Encoder) { e.Str(c.Type) })
						e.Field("discount", func(e *jx.Encoder) { money(e, c.Discount) })
					})
				}
			})
		})
	})
	return append([]byte(nil), e.Bytes()...)
}

// EncodePricedCart renders the apply-coupon response under "updated_cart".
func EncodePricedCart(p *coupon.PricedCart) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.Obj(func(e *jx.Encoder) {
		e.Field("updated_cart", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("items", func(e *jx.Encoder) {
					e.Arr(func(e *jx.Encoder) {
						for _, item := range p.Items {
							e.Obj(func(e *jx.Encoder) {
								e.Field("product_id", func(e *jx.Encoder) { e.Int64(item.ProductID) })
								e.Field("quantity", func(e *jx.Encoder) { e.Int(item.Quantity) })
								e.Field("price", func(e *jx.Encoder) { e.Raw([]byte(item.UnitPrice.String())) })
								e.Field("total_discount", func(e *jx.Encoder) { money(e, item.Discount) })
							})
						}
					})
				})
				e.Field("total_price", func(e *jx.Encoder) { money(e, p.TotalPrice) })
				e.Field("total_discount", func(e *jx.Encoder) { money(e, p.TotalDiscount) })
				e.Field("final_price", func(e *jx.Encoder) { money(e, p.FinalPrice) })
			})
		})
	})
	return append([]byte(nil), e.Bytes()...)
}
