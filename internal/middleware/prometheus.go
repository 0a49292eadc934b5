package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/triplewalk/internal/metrics"
)

// PrometheusMiddleware counts requests by route pattern and records their
// latency. WebSocket upgrades are counted but not timed: their handler runs
// for the lifetime of the stream.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		upgrade := isWebSocketUpgrade(c)

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		metrics.RequestsTotal.WithLabelValues(method, path, status).Inc()

		if !upgrade {
			metrics.RequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		}
	}
}

func isWebSocketUpgrade(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}
