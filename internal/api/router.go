package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/triplewalk/internal/middleware"
	"github.com/persistorai/triplewalk/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log         *logrus.Logger
	Query       QueryService
	Store       Pinger
	Hub         *ws.Hub
	CORSOrigins []string
	Version     string
	Backend     string
	// APIKey enables bearer authentication on every route except health.
	APIKey    string
	RateLimit float64
	RateBurst int
}

// Router-level limits.
const (
	maxBodySize      = 1 << 20 // 1 MB
	defaultRateLimit = 100     // requests per second per IP
	defaultRateBurst = 200     // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	rateLimit, rateBurst := deps.RateLimit, deps.RateBurst
	if rateLimit <= 0 {
		rateLimit = defaultRateLimit
	}

	if rateBurst <= 0 {
		rateBurst = defaultRateBurst
	}

	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Store, deps.Hub, log, deps.Version, deps.Backend)
	queries := NewQueryHandler(deps.Query, log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	if deps.APIKey != "" {
		api.Use(middleware.APIKeyAuth(deps.APIKey, log))
	}

	// Path expressions.
	api.POST("/walk", queries.Walk)
	api.GET("/walk/stream", streamHandler(ctx, log, deps.Hub, deps.Query, deps.CORSOrigins))

	// Labels.
	api.GET("/labels", queries.Labels)
	api.GET("/find", queries.Find)
	api.GET("/related", queries.Related)

	// Recursive closure.
	api.POST("/closure", queries.Closure)
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
