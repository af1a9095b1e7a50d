package gateway

import (
	"errors"
	"net/http"

	"github.com/example/zastore/pkg/catalog"
	"github.com/example/zastore/pkg/checkout"
	"github.com/example/zastore/pkg/orders"
	"github.com/example/zastore/pkg/settings"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps service errors onto HTTP statuses and the message shown to
// the caller. Unknown errors become a generic 500.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, orders.ErrNotAuthenticated):
		return http.StatusUnauthorized, orders.ErrNotAuthenticated.Error()
	case errors.Is(err, orders.ErrInvalidForm),
		errors.Is(err, orders.ErrInvalidStatus),
		errors.Is(err, orders.ErrInvalidTracking),
		errors.Is(err, settings.ErrInvalidSettings),
		errors.Is(err, catalog.ErrInvalidFilter):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, orders.ErrEmptyCart):
		return http.StatusBadRequest, orders.ErrEmptyCart.Error()
	case errors.Is(err, orders.ErrStoreClosed):
		return http.StatusConflict, orders.ErrStoreClosed.Error()
	case errors.Is(err, orders.ErrOrderNotFound):
		return http.StatusNotFound, orders.ErrOrderNotFound.Error()
	case errors.Is(err, catalog.ErrProductNotFound):
		return http.StatusNotFound, catalog.ErrProductNotFound.Error()
	case errors.Is(err, orders.ErrPersistence):
		return http.StatusInternalServerError, orders.ErrPersistence.Error()
	case errors.Is(err, orders.ErrStatusUpdate):
		return http.StatusInternalServerError, orders.ErrStatusUpdate.Error()
	case errors.Is(err, orders.ErrTrackerUnavailable):
		return http.StatusInternalServerError, orders.ErrTrackerUnavailable.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (g *Gateway) fail(c *gin.Context, err error) {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		g.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}

	body := gin.H{"success": false, "error": msg}
	var verr *checkout.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	}
	c.JSON(code, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}
