package http

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/service"
)

const bearerPrefix = "Bearer "

// AuthMiddleware creates middleware that validates access tokens
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, bearerPrefix) || len(auth) == len(bearerPrefix) {
			abortWithError(c, core.ErrUnauthorized)
			return
		}

		identity, err := authService.ValidateAccessToken(c.Request.Context(), strings.TrimPrefix(auth, bearerPrefix))
		if err != nil {
			abortWithError(c, core.ErrUnauthorized)
			return
		}

		c.Set("user_id", identity.UserID)
		c.Set("wallet_address", identity.WalletAddress)
		c.Request = c.Request.WithContext(core.WithIdentity(c.Request.Context(), *identity))

		c.Next()
	}
}

// LoggingMiddleware provides structured request logging
func LoggingMiddleware(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"latency":    time.Since(start),
			"client_ip":  c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
			"user_id":    c.GetString("user_id"),
		}).Info("HTTP request")
	}
}
