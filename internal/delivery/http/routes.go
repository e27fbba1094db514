package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/recipebox/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	// Set Gin mode based on environment
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, logger))
	if cfg.Auth.Enabled() {
		v1.Use(AuthMiddleware(cfg.Auth.Token))
	}
	if cfg.Server.MaxBodyBytes > 0 {
		v1.Use(BodySizeLimit(cfg.Server.MaxBodyBytes))
	}
	{
		ingredients := v1.Group("/ingredients")
		{
			ingredients.POST("/search", handler.SearchIngredients)
			ingredients.POST("/candidates", handler.ExtractCandidates)
		}
	}

	return router
}
