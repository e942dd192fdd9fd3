package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mailforge/mailforge/api/handler"
	"github.com/mailforge/mailforge/api/middleware"
	"github.com/mailforge/mailforge/config"
	"github.com/mailforge/mailforge/pipeline"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(p *pipeline.Pipeline, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health: no auth required.
	v1.GET("/health", handler.Health(startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Template-free generation with full diagnostics.
	protected.POST("/generate", handler.Generate(p))

	// Template-driven generation across all model strategies.
	protected.POST("/generate/template", handler.GenerateTemplate(p))

	// Plain-text email generation from uploaded documents.
	protected.POST("/generate/text", handler.GenerateText(p))

	return r
}
