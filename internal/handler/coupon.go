package handler

import (
	"fmt"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/0pain01/Monk-coupon/internal/codec"
)

// CreateCoupon handles POST /coupons.
func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	body, err := h.readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := codec.DecodeCoupon(body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.coupons.Create(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	zctx.From(r.Context()).Info("Coupon created",
		zap.Int64("coupon_id", created.Base().ID),
		zap.String("type", created.Kind().Slug()),
	)
	writeJSON(w, http.StatusCreated, codec.EncodeCoupon(created))
}

// ListCoupons handles GET /coupons.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	all, err := h.coupons.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, codec.EncodeCoupons(all))
}

// GetCoupon handles GET /coupons/{id}.
func (h *Handler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := couponID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.coupons.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, codec.EncodeCoupon(c))
}

// UpdateCoupon handles PUT /coupons/{id}. The coupon type cannot change.
func (h *Handler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := couponID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := h.readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := codec.DecodeCoupon(body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.coupons.Update(r.Context(), id, c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, codec.EncodeCoupon(updated))
}

// DeleteCoupon handles DELETE /coupons/{id}.
func (h *Handler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := couponID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	name, err := h.coupons.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, codec.EncodeMessage(fmt.Sprintf("Deleted coupon: %s (ID: %d)", name, id)))
}

// ApplicableCoupons handles POST /coupons/applicable-coupons.
func (h *Handler) ApplicableCoupons(w http.ResponseWriter, r *http.Request) {
	body, err := h.readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cart, err := codec.DecodeCartRequest(body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := h.coupons.ApplicableCoupons(r.Context(), cart)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, codec.EncodeApplicable(list))
}

// ApplyCoupon handles POST /coupons/apply-coupon/{id}.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := couponID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := h.readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cart, err := codec.DecodeCartRequest(body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	priced, err := h.coupons.ApplyCoupon(r.Context(), id, cart)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, codec.EncodePricedCart(priced))
}
