package coupon

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher(t *testing.T) {
	disp, err := NewDispatcher(DefaultPolicies(RepetitionCapped)...)
	require.NoError(t, err)

	for _, k := range Kinds() {
		t.Run(string(k), func(t *testing.T) {
			p, err := disp.Dispatch(k)
			require.NoError(t, err)
			assert.True(t, p.Supports(k))
		})
	}

	_, err = disp.Dispatch(Kind("PERCENT_OFF_EVERYTHING"))
	var npErr *NoPolicyForKindError
	require.True(t, errors.As(err, &npErr))
	assert.Equal(t, Kind("PERCENT_OFF_EVERYTHING"), npErr.Kind)
}

func TestNewDispatcher_MissingKind(t *testing.T) {
	_, err := NewDispatcher(CartWisePolicy{}, NewBuyXGetYPolicy(RepetitionCapped))

	var npErr *NoPolicyForKindError
	require.True(t, errors.As(err, &npErr))
	assert.Equal(t, KindProductWise, npErr.Kind)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "cart-wise", KindCartWise.Slug())
	assert.Equal(t, "product-wise", KindProductWise.Slug())
	assert.Equal(t, "buy-x-get-y", KindBuyXGetY.Slug())

	for in, want := range map[string]Kind{
		"CART_WISE":    KindCartWise,
		"cart-wise":    KindCartWise,
		"product_wise": KindProductWise,
		"buy-x-get-y":  KindBuyXGetY,
		"BXGY":         KindBuyXGetY,
		"bxgy":         KindBuyXGetY,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("free-shipping")
	require.ErrorIs(t, err, ErrInvalidCoupon)
}
