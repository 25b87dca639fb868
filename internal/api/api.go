// internal/api/api.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stackvity/receipt-gateway/internal/api/handlers"
	"github.com/stackvity/receipt-gateway/internal/api/routes"
	"github.com/stackvity/receipt-gateway/internal/config"
	"go.uber.org/zap"
)

// API encapsulates the Gin engine and handler dependencies for the ingest
// HTTP server.
type API struct {
	Engine  *gin.Engine
	Handler *handlers.Handler
	Config  *config.Config
	Logger  *zap.Logger
}

// NewAPI creates and configures a new API instance: Gin engine, middleware,
// and routes.
func NewAPI(handler *handlers.Handler, cfg *config.Config, logger *zap.Logger) (*API, error) {
	const operation = "api.NewAPI"

	logger.Info("Initializing API", zap.String("operation", operation))

	if cfg.Environment == config.DevelopmentEnvironment {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.Use(handlers.MiddlewareSetup(handlers.MiddlewareConfig{
		Logger: logger,
		Config: cfg,
	}))

	routes.SetupRouter(engine, handler.RecognitionHandler, handler.ImageHandler, handler.HealthHandler)

	api := &API{
		Engine:  engine,
		Handler: handler,
		Config:  cfg,
		Logger:  logger,
	}

	logger.Info("API initialized successfully", zap.String("operation", operation))
	return api, nil
}

// StartServer starts the Gin HTTP server and blocks until it receives a
// shutdown signal.
func (api *API) StartServer() error {
	const operation = "api.StartServer"

	api.Logger.Info("Starting HTTP server", zap.String("operation", operation), zap.String("address", api.Config.HTTPServerAddress), zap.String("environment", api.Config.Environment))

	server := &http.Server{
		Addr:    api.Config.HTTPServerAddress,
		Handler: api.Engine,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			api.Logger.Fatal("HTTP server failed to start", zap.String("operation", operation), zap.Error(err))
		}
	}()

	<-quit
	api.Logger.Info("Shutting down server...", zap.String("operation", operation))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		api.Logger.Fatal("Server forced to shutdown", zap.String("operation", operation), zap.Error(err))
		return fmt.Errorf("server shutdown forced: %w", err)
	}

	api.Logger.Info("Server exited properly", zap.String("operation", operation))
	return nil
}
