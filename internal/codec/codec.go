// Package codec reads and writes the JSON wire format of the coupon API.
package codec

import (
	"math"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// ErrMalformed is returned for bodies that are not valid JSON of the
// expected shape.
var ErrMalformed = errors.New("malformed request body")

func malformed(err error, what string) error {
	return errors.Wrapf(ErrMalformed, "%s: %v", what, err)
}

// decodeDecimal accepts both JSON numbers and numeric strings.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(string(n))
	case jx.Null:
		return decimal.Zero, d.Null()
	default:
		return decimal.Decimal{}, errors.Errorf("expected number, got %s", d.Next())
	}
}

// decodeInt64 accepts both JSON integers and numeric strings.
func decodeInt64(d *jx.Decoder) (int64, error) {
	v, err := decodeDecimal(d)
	if err != nil {
		return 0, err
	}
	if !v.IsInteger() {
		return 0, errors.Errorf("expected integer, got %s", v)
	}
	if !v.BigInt().IsInt64() {
		return 0, errors.Errorf("integer %s out of range", v)
	}
	return v.IntPart(), nil
}

// decodeInt decodes quantities, percentages and limits, which are stored
// as 32-bit integers.
func decodeInt(d *jx.Decoder) (int, error) {
	v, err := decodeInt64(d)
	if err != nil {
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, errors.Errorf("integer %d out of range", v)
	}
	return int(v), nil
}

// money writes v as a JSON number with two decimals.
func money(e *jx.Encoder, v decimal.Decimal) {
	e.Raw([]byte(v.StringFixed(2)))
}

// EncodeError renders the error body used by every failing endpoint.
func EncodeError(code int, message string) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	})
	return append([]byte(nil), e.Bytes()...)
}

// EncodeMessage renders {"message": message}.
func EncodeMessage(message string) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.Obj(func(e *jx.Encoder) {
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	})
	return append([]byte(nil), e.Bytes()...)
}
