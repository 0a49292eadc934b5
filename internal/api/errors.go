package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/triplewalk/internal/httputil"
	"github.com/persistorai/triplewalk/internal/metrics"
	"github.com/persistorai/triplewalk/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeInternalError    = "internal_error"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeValidationError  = "validation_error"
	ErrCodeStoreUnavailable = "store_unavailable"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondServiceError maps a service error onto a response. Unexpected
// errors are logged with action and reported as 500.
func respondServiceError(c *gin.Context, log *logrus.Logger, err error, action string) {
	switch {
	case errors.Is(err, models.ErrInvalidRequest), errors.Is(err, models.ErrInvalidExpression):
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
	case errors.Is(err, models.ErrNodeNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, models.ErrStoreUnavailable):
		log.WithError(err).Error(action)
		respondError(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "graph store unavailable")
	default:
		log.WithError(err).Error(action)
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
