package http

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/layer-3/walletauth/internal/metrics"
	"github.com/layer-3/walletauth/service"
)

// SetupRouter sets up the Gin router. collector may be nil.
func SetupRouter(authService *service.AuthService, logger logrus.FieldLogger, collector *metrics.Collector) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), LoggingMiddleware(logger))
	if collector != nil {
		router.Use(collector.Middleware())
		router.GET("/metrics", collector.Handler())
	}

	handlers := NewAuthHandlers(authService)

	router.GET("/health", handlers.Health)

	auth := router.Group("/auth")
	{
		auth.POST("/challenge", handlers.Challenge)
		auth.POST("/verify", handlers.Verify)
		auth.POST("/refresh", handlers.Refresh)
	}

	// Protected routes
	protected := router.Group("/auth")
	protected.Use(AuthMiddleware(authService))
	{
		protected.GET("/me", handlers.Me)
		protected.POST("/logout", handlers.Logout)
	}

	return router
}
