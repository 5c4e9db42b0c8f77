package http

import (
	"github.com/gin-gonic/gin"
	"github.com/nutriscan/backend/config"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogger(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		lookup := v1.Group("/lookup")
		{
			lookup.POST("", handler.Lookup)
			lookup.GET("/progress/:searchId", handler.Progress)
		}

		v1.POST("/label/ingredients", handler.CleanIngredients)
		v1.POST("/nutrition/scale", handler.ScaleNutrition)
	}

	return router
}
