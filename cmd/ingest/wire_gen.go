// Code generated by Wire would normally live here (wire_gen.go). Wire
// codegen cannot run in this environment, so this file hand-writes the
// same dependency graph wire.go declares, in this build order:
// config -> logger -> infra clients -> cache -> repositories -> queue and
// publisher -> services -> handlers -> API.

//go:build !wireinject
// +build !wireinject

package main

import (
	"context"
	"fmt"

	"github.com/stackvity/receipt-gateway/internal/api"
	"github.com/stackvity/receipt-gateway/internal/api/handlers"
	"github.com/stackvity/receipt-gateway/internal/cache"
	"github.com/stackvity/receipt-gateway/internal/config"
	"github.com/stackvity/receipt-gateway/internal/data/repositories/postgres"
	"github.com/stackvity/receipt-gateway/internal/domain/services"
	"github.com/stackvity/receipt-gateway/internal/events"
	"github.com/stackvity/receipt-gateway/internal/queue"
	"github.com/stackvity/receipt-gateway/internal/storage"
	"github.com/stackvity/receipt-gateway/internal/utils"
	pgdb "github.com/stackvity/receipt-gateway/pkg/database/postgres"
	redisdb "github.com/stackvity/receipt-gateway/pkg/database/redis"

	"github.com/go-playground/validator/v10"
)

// InitializeAPI assembles the ingest process's dependency graph and returns
// the ready-to-run API, a cleanup func for its pooled connections, and any
// construction error.
func InitializeAPI(ctx context.Context) (*api.API, func(), error) {
	cfg, err := config.LoadConfig(ctx, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := utils.NewLogger(&cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	dbPool, err := pgdb.NewPostgresDB(ctx, &cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	rdb, err := redisdb.NewRedisClient(ctx, &cfg, logger)
	if err != nil {
		dbPool.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	blobStore, err := storage.NewCloudStorage(ctx, &cfg, logger)
	if err != nil {
		dbPool.Close()
		rdb.Close()
		return nil, nil, fmt.Errorf("init blob store: %w", err)
	}

	jobCache := cache.NewRedisCache(rdb, logger)

	rawImageRepo := postgres.NewImageRepository(dbPool, logger)
	rawRecognitionRepo := postgres.NewRecognitionRepository(dbPool, logger)
	imageRepo := postgres.NewCachedImageRepository(rawImageRepo, jobCache, logger)
	recognitionRepo := postgres.NewCachedRecognitionRepository(rawRecognitionRepo, jobCache, logger)

	jobQueue := queue.NewRedisQueue(rdb, logger)
	publisher := events.NewRedisPublisher(rdb, logger)

	validate := validator.New()
	ingestService := services.NewIngestService(blobStore, jobCache, imageRepo, recognitionRepo, jobQueue, publisher, validate, logger)

	recognitionHandler := handlers.NewRecognitionHandler(ingestService, recognitionRepo, logger)
	imageHandler := handlers.NewImageHandler(imageRepo, blobStore, logger)
	healthHandler := handlers.NewHealthHandler(logger)
	handler := handlers.NewHandler(recognitionHandler, imageHandler, healthHandler)

	apiServer, err := api.NewAPI(handler, &cfg, logger)
	if err != nil {
		dbPool.Close()
		rdb.Close()
		return nil, nil, fmt.Errorf("init API: %w", err)
	}

	cleanup := func() {
		dbPool.Close()
		rdb.Close()
	}
	return apiServer, cleanup, nil
}
