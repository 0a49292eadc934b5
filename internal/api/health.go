// Package api provides HTTP handlers for triplewalk.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/triplewalk/internal/ws"
)

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	store     Pinger
	hub       *ws.Hub
	log       *logrus.Logger
	version   string
	backend   string
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler with the given dependencies.
func NewHealthHandler(store Pinger, hub *ws.Hub, log *logrus.Logger, version, backend string) *HealthHandler {
	return &HealthHandler{
		store:     store,
		hub:       hub,
		log:       log,
		version:   version,
		backend:   backend,
		startTime: time.Now(),
	}
}

// readinessResponse is the JSON payload returned by the readiness endpoint.
type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// healthResponse is the JSON payload returned by the health/liveness endpoint.
type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Backend       string  `json:"backend"`
	Store         string  `json:"store"`
	Streams       int     `json:"streams"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Liveness handles GET /api/v1/health. A failing store does not fail liveness.
func (h *HealthHandler) Liveness(c *gin.Context) {
	resp := healthResponse{
		Status:        "ok",
		Version:       h.version,
		Backend:       h.backend,
		Store:         "connected",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.store.Ping(ctx); err != nil {
			resp.Store = "disconnected"
		}
	} else {
		resp.Store = "not_configured"
	}

	if h.hub != nil {
		resp.Streams = h.hub.StreamCount()
	}

	c.JSON(http.StatusOK, resp)
}

// Readiness handles GET /api/v1/ready and fails while the store is unreachable.
func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := map[string]string{"store": "ok"}
	status := "ready"
	statusCode := http.StatusOK

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if h.store == nil {
		checks["store"] = "not_configured"
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	} else if err := h.store.Ping(ctx); err != nil {
		h.log.WithError(err).Error("readiness: store ping failed")
		checks["store"] = "error"
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, readinessResponse{
		Status: status,
		Checks: checks,
	})
}
