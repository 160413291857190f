// Package handler exposes the coupon service over HTTP.
package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/0pain01/Monk-coupon/internal/codec"
	"github.com/0pain01/Monk-coupon/internal/domain/coupon"
)

const defaultMaxBodyBytes = 1 << 20

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// Handler serves the coupon API, delegating to the coupon service.
type Handler struct {
	coupons      *coupon.Service
	maxBodyBytes int64
}

// NewHandler constructs a Handler backed by the coupon service.
func NewHandler(cfg HandlerConfig, coupons *coupon.Service) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Handler{
		coupons:      coupons,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// Register mounts the coupon routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/coupons", func(r chi.Router) {
		r.Post("/", h.CreateCoupon)
		r.Get("/", h.ListCoupons)
		r.Get("/{id}", h.GetCoupon)
		r.Put("/{id}", h.UpdateCoupon)
		r.Delete("/{id}", h.DeleteCoupon)

		r.Post("/applicable-coupons", h.ApplicableCoupons)
		r.Post("/apply-coupon/{id}", h.ApplyCoupon)
	})
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		return nil, errors.Wrapf(codec.ErrMalformed, "read body: %v", err)
	}
	return body, nil
}

func couponID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Wrapf(codec.ErrMalformed, "invalid coupon id %q", raw)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
