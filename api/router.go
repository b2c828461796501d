package api

import (
	"orderlifecycle/api/health"
	"orderlifecycle/api/middleware"
	"orderlifecycle/api/order"
	"orderlifecycle/config"
	"orderlifecycle/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Router Route configuration
type Router struct {
	engine           *gin.Engine
	config           *config.Config
	registry         *prometheus.Registry
	healthController *health.Controller
	orderController  *order.Controller
}

// NewRouter builds the gin engine and its middleware chain. registry may be
// nil, which disables the HTTP metrics and the /metrics endpoint.
func NewRouter(
	cfg *config.Config,
	registry *prometheus.Registry,
	healthController *health.Controller,
	orderController *order.Controller,
) *Router {
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// order matters: the request id must exist before anything logs
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.RecoveryMiddleware())
	engine.Use(middleware.LoggingMiddleware())
	if registry != nil {
		engine.Use(middleware.MetricsMiddleware(metrics.NewHTTPMetrics(registry)))
	}
	engine.Use(middleware.CORSMiddleware(&cfg.CORS))
	engine.Use(middleware.RateLimitMiddleware(&cfg.Server.RateLimit))

	return &Router{
		engine:           engine,
		config:           cfg,
		registry:         registry,
		healthController: healthController,
		orderController:  orderController,
	}
}

// SetupRoutes Set up all routes
func (r *Router) SetupRoutes() {
	apiGroup := r.engine.Group("/api/v1")
	{
		r.healthController.RegisterRoutes(apiGroup)
		r.orderController.RegisterRoutes(apiGroup)
	}

	if r.registry != nil {
		path := r.config.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, gin.WrapH(metrics.Handler(r.registry)))
	}

	r.engine.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"name":    r.config.App.Name,
			"version": r.config.App.Version,
			"env":     r.config.App.Env,
			"health":  "/api/v1/health",
		})
	})
}

// GetEngine Get Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
