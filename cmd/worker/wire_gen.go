// Code generated by Wire would normally live here (wire_gen.go). Wire
// codegen cannot run in this environment, so this file hand-writes the
// worker's dependency graph, in this build order:
// config -> logger -> infra clients -> cache -> repositories -> queue and
// publisher -> engines -> rate limiter -> processor -> workerApp.

//go:build !wireinject
// +build !wireinject

package main

import (
	"context"
	"fmt"

	"github.com/stackvity/receipt-gateway/internal/cache"
	"github.com/stackvity/receipt-gateway/internal/config"
	"github.com/stackvity/receipt-gateway/internal/data/repositories/postgres"
	"github.com/stackvity/receipt-gateway/internal/domain/services"
	"github.com/stackvity/receipt-gateway/internal/engines"
	"github.com/stackvity/receipt-gateway/internal/events"
	"github.com/stackvity/receipt-gateway/internal/queue"
	"github.com/stackvity/receipt-gateway/internal/storage"
	"github.com/stackvity/receipt-gateway/internal/utils"
	pgdb "github.com/stackvity/receipt-gateway/pkg/database/postgres"
	redisdb "github.com/stackvity/receipt-gateway/pkg/database/redis"
	"golang.org/x/time/rate"
)

// fleetRateLimit is the cap of jobs started per second across every
// executor goroutine in this process; each worker process applies it
// independently.
const fleetRateLimit = 10

// InitializeWorker assembles the worker process's dependency graph and
// returns the ready-to-run workerApp, a cleanup func for its pooled
// connections, and any construction error.
func InitializeWorker(ctx context.Context) (*workerApp, func(), error) {
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

	aligner := engines.NewAlignerClient(cfg.AlignerURL, cfg.OCREngineTimeout, logger)
	tesseract := engines.NewTesseractClient(cfg.TesseractURL, cfg.OCREngineTimeout, logger)
	paddleocr := engines.NewPaddleOCRClient(cfg.PaddleOCRURL, cfg.OCREngineTimeout, logger)

	limiter := rate.NewLimiter(rate.Limit(fleetRateLimit), fleetRateLimit)

	processor := services.NewRecognitionProcessor(
		imageRepo, recognitionRepo, blobStore, jobCache,
		aligner, tesseract, paddleocr,
		publisher, limiter,
		cfg.ConfidenceThresholdHigh, cfg.ConfidenceThresholdLow,
		logger,
	)

	app := &workerApp{
		Config:    &cfg,
		Logger:    logger,
		Queue:     jobQueue,
		Processor: processor,
	}

	cleanup := func() {
		dbPool.Close()
		rdb.Close()
	}
	return app, cleanup, nil
}
