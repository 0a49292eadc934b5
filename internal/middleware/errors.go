package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/persistorai/triplewalk/internal/httputil"
	"github.com/persistorai/triplewalk/internal/metrics"
)

// respondError counts the rejection under its error code and aborts with the
// shared error envelope.
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}
