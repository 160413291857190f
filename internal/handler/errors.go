package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/0pain01/Monk-coupon/internal/codec"
	"github.com/0pain01/Monk-coupon/internal/domain/coupon"
)

// mapError converts domain errors to a status code and client message.
// Internal failures get a generic message.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, coupon.ErrCouponNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, coupon.ErrCouponExpired),
		errors.Is(err, coupon.ErrInvalidCouponTypeChange),
		errors.Is(err, coupon.ErrInvalidCoupon),
		errors.Is(err, coupon.ErrInvalidCart),
		errors.Is(err, codec.ErrMalformed):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := mapError(err)
	if status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, codec.EncodeError(status, message))
}
