// Package api assembles the HTTP surface: routing, authentication, and
// rate limiting around the analyzer.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/trackscan/trackscan/api/handler"
	"github.com/trackscan/trackscan/api/middleware"
	"github.com/trackscan/trackscan/cache"
	"github.com/trackscan/trackscan/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health is mounted at both /health and /api/v1/health, outside auth, so
// monitoring probes always work.
func NewRouter(an handler.Analyzer, pr handler.Prober, cc *cache.Cache, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.GinMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/health", handler.Health(an))

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(an))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/analyze", handler.Analyze(an, cfg))
	protected.POST("/probe", handler.Probe(pr, cc))
	protected.GET("/report", handler.Report(an))
	protected.GET("/records", handler.Records(an))

	return r
}
