// internal/api/handlers/health_handler.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthHandler serves the liveness endpoint used by load balancers and
// orchestration platforms. It intentionally does not probe Postgres, Redis
// or the engines — a degraded dependency should not flip the ingest
// process's own liveness and trigger a restart loop.
type HealthHandler struct {
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler instance.
func NewHealthHandler(logger *zap.Logger) *HealthHandler {
	return &HealthHandler{logger: logger.Named("HealthHandler")}
}

// HealthCheck implements GET /health.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "receipt-gateway",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
