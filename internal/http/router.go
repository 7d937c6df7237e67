package http

import (
	"github.com/gin-gonic/gin"

	"github.com/booklib/server/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply auth middleware if enabled
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	// Create controllers with appropriate interfaces
	health := NewHealthController(cfg.Database, cfg.Version)
	downloadsController := NewDownloadsController(cfg.DownloadService, cfg.DownloadLister, cfg.HistoryStore, cfg.Metrics)
	analyticsController := NewAnalyticsController(cfg.AnalyticsRepo)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Metrics endpoint
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Download endpoints
	router.POST("/api/books/:id/download", downloadsController.Download)
	router.GET("/api/downloads/my", downloadsController.MyDownloads)
	router.GET("/api/downloads/history", downloadsController.MyHistory)

	// Analytics endpoints (admin only)
	router.GET("/api/downloads/analytics", auth.RequireAdmin(), analyticsController.GetAnalytics)

	return router
}
