// internal/api/handlers/middleware.go
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stackvity/receipt-gateway/internal/config"
	"github.com/stackvity/receipt-gateway/internal/utils"
	"go.uber.org/zap"
)

// MiddlewareConfig holds the dependencies shared by every middleware in the
// chain.
type MiddlewareConfig struct {
	Logger *zap.Logger
	Config *config.Config
}

// MiddlewareSetup returns the complete middleware chain for the application.
// Request logging runs first so every downstream handler's logs carry the
// same request_id.
func MiddlewareSetup(cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		RequestLoggerMiddleware(cfg.Logger)(c)
	}
}

// RequestLoggerMiddleware assigns a request id to the request context and
// logs the completed request with its latency and status.
func RequestLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const operation = "RequestLoggerMiddleware"
		requestID := uuid.New().String()
		ctx := context.WithValue(c.Request.Context(), utils.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		logger.Info("request handled",
			zap.String("operation", operation),
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
		)
	}
}
