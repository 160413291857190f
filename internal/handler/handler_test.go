package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0pain01/Monk-coupon/internal/domain/coupon"
)

// --- Mock implementations ---

type mockCouponRepo struct {
	byID    map[int64]coupon.Coupon
	order   []int64
	listErr error
}

func newMockRepo(coupons ...coupon.Coupon) *mockCouponRepo {
	m := &mockCouponRepo{byID: make(map[int64]coupon.Coupon)}
	for _, c := range coupons {
		m.byID[c.Base().ID] = c
		m.order = append(m.order, c.Base().ID)
	}
	return m
}

func (m *mockCouponRepo) FindByID(_ context.Context, id int64) (coupon.Coupon, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, coupon.ErrCouponNotFound
	}
	return c, nil
}

func (m *mockCouponRepo) FindAll(_ context.Context) ([]coupon.Coupon, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]coupon.Coupon, 0, len(m.order))
	for _, id := range m.order {
		if c, ok := m.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCouponRepo) Create(_ context.Context, c coupon.Coupon) (coupon.Coupon, error) {
	c.Base().ID = int64(len(m.order) + 1)
	m.byID[c.Base().ID] = c
	m.order = append(m.order, c.Base().ID)
	return c, nil
}

func (m *mockCouponRepo) Save(_ context.Context, c coupon.Coupon) (coupon.Coupon, error) {
	m.byID[c.Base().ID] = c
	return c, nil
}

func (m *mockCouponRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return coupon.ErrCouponNotFound
	}
	delete(m.byID, id)
	return nil
}

// --- Helpers ---

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, repo coupon.Repository) http.Handler {
	t.Helper()
	disp, err := coupon.NewDispatcher(coupon.DefaultPolicies(coupon.RepetitionCapped)...)
	require.NoError(t, err)
	svc, err := coupon.NewService(repo, disp, coupon.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)

	r := chi.NewRouter()
	NewHandler(HandlerConfig{MaxBodyBytes: 4096}, svc).Register(r)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func meta(id int64, name string, active bool, expires time.Time) coupon.Meta {
	return coupon.Meta{ID: id, Name: name, ExpiresAt: expires, Active: active}
}

const cartBody = `{"cart":{"items":[
	{"product_id":1,"quantity":2,"price":60},
	{"product_id":2,"quantity":1,"price":30}
]}}`

// --- Tests ---

func TestApplyCoupon(t *testing.T) {
	future := testNow.Add(24 * time.Hour)
	past := testNow.Add(-24 * time.Hour)
	repo := newMockRepo(
		&coupon.CartWise{Meta: meta(1, "TENOFF", true, future), Threshold: decimal.NewFromInt(100), DiscountPercent: 10},
		&coupon.CartWise{Meta: meta(2, "OLD", true, past), Threshold: decimal.NewFromInt(100), DiscountPercent: 10},
	)
	srv := newTestServer(t, repo)

	t.Run("applied", func(t *testing.T) {
		w := do(srv, http.MethodPost, "/coupons/apply-coupon/1", cartBody)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"updated_cart":{
			"items":[
				{"product_id":1,"quantity":2,"price":60.00,"total_discount":12.00},
				{"product_id":2,"quantity":1,"price":30.00,"total_discount":3.00}
			],
			"total_price":150.00,"total_discount":15.00,"final_price":135.00
		}}`, w.Body.String())
	})

	t.Run("expired", func(t *testing.T) {
		w := do(srv, http.MethodPost, "/coupons/apply-coupon/2", cartBody)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"code":400`)
		assert.False(t, repo.byID[2].Base().Active)
	})

	t.Run("not found", func(t *testing.T) {
		w := do(srv, http.MethodPost, "/coupons/apply-coupon/99", cartBody)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		w := do(srv, http.MethodPost, "/coupons/apply-coupon/abc", cartBody)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		w := do(srv, http.MethodPost, "/coupons/apply-coupon/1", `{"cart":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative quantity", func(t *testing.T) {
		w := do(srv, http.MethodPost, "/coupons/apply-coupon/1",
			`{"cart":{"items":[{"product_id":1,"quantity":-1,"price":60}]}}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("body too large", func(t *testing.T) {
		w := do(srv, http.MethodPost, "/coupons/apply-coupon/1", `{"cart":{"items":[],"pad":"`+strings.Repeat("x", 5000)+`"}}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestApplicableCoupons(t *testing.T) {
	future := testNow.Add(24 * time.Hour)
	srv := newTestServer(t, newMockRepo(
		&coupon.CartWise{Meta: meta(1, "TENOFF", true, future), Threshold: decimal.NewFromInt(100), DiscountPercent: 10},
		&coupon.ProductWise{Meta: meta(2, "P9", true, future), ProductID: 9, DiscountPercent: 50},
		&coupon.BuyXGetY{
			Meta:            meta(3, "B2G1", true, future),
			RepetitionLimit: 1,
			Buy:             []coupon.BuyRequirement{{ProductID: 1, Quantity: 2}},
			Get:             []coupon.FreeGrant{{ProductID: 2, Quantity: 1}},
		},
	))

	w := do(srv, http.MethodPost, "/coupons/applicable-coupons", cartBody)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"applicable_coupons":[
		{"coupon_id":1,"type":"cart-wise","discount":15.00},
		{"coupon_id":3,"type":"buy-x-get-y","discount":30.00}
	]}`, w.Body.String())
}

func TestApplicableCoupons_StorageFailure(t *testing.T) {
	repo := newMockRepo()
	repo.listErr = errors.New("db down")
	srv := newTestServer(t, repo)

	w := do(srv, http.MethodPost, "/coupons/applicable-coupons", cartBody)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":500,"message":"internal error"}`, w.Body.String())
}

func TestCouponCRUD(t *testing.T) {
	repo := newMockRepo()
	srv := newTestServer(t, repo)

	w := do(srv, http.MethodPost, "/coupons", `{
		"name":"TENOFF","description":"10% over 100","type":"cart-wise",
		"expires_at":"2030-01-01T00:00:00Z","active":true,
		"details":{"threshold":100,"discount":10}
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"id":1`)

	w = do(srv, http.MethodGet, "/coupons/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"id":1,"name":"TENOFF","description":"10% over 100","type":"cart-wise",
		"expires_at":"2030-01-01T00:00:00Z","active":true,
		"details":{"threshold":100.00,"discount":10}
	}`, w.Body.String())

	w = do(srv, http.MethodGet, "/coupons", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "[{"))

	w = do(srv, http.MethodPut, "/coupons/1", `{
		"name":"TWENTYOFF","type":"CART_WISE","expires_at":"2030-01-01T00:00:00Z","active":true,
		"details":{"threshold":200,"discount":20}
	}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"TWENTYOFF"`)

	w = do(srv, http.MethodPut, "/coupons/1", `{
		"name":"SWITCH","type":"product-wise","expires_at":"2030-01-01T00:00:00Z",
		"details":{"product_id":1,"discount":20}
	}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cannot change coupon type")

	w = do(srv, http.MethodPost, "/coupons", `{
		"name":"BROKEN","type":"cart-wise","expires_at":"2030-01-01T00:00:00Z",
		"details":{"threshold":100,"discount":150}
	}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(srv, http.MethodDelete, "/coupons/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Deleted coupon: TWENTYOFF (ID: 1)"}`, w.Body.String())

	w = do(srv, http.MethodDelete, "/coupons/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(srv, http.MethodGet, "/coupons/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: errors.Wrap(coupon.ErrCouponNotFound, "coupon 1"), want: http.StatusNotFound},
		{err: coupon.ErrCouponExpired, want: http.StatusBadRequest},
		{err: coupon.ErrInvalidCouponTypeChange, want: http.StatusBadRequest},
		{err: &coupon.ValidationError{Field: "Name", Reason: "is required"}, want: http.StatusBadRequest},
		{err: coupon.ErrInvalidCart, want: http.StatusBadRequest},
		{err: &coupon.NoPolicyForKindError{Kind: "X"}, want: http.StatusInternalServerError},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			got, msg := mapError(tt.err)
			assert.Equal(t, tt.want, got)
			if got == http.StatusInternalServerError {
				assert.Equal(t, "internal error", msg)
			}
		})
	}
}
