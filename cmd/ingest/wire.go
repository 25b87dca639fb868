//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/wire"
	"github.com/stackvity/receipt-gateway/internal/api"
	"github.com/stackvity/receipt-gateway/internal/api/handlers"
	"github.com/stackvity/receipt-gateway/internal/cache"
	"github.com/stackvity/receipt-gateway/internal/config"
	"github.com/stackvity/receipt-gateway/internal/data/repositories/interfaces"
	postgresRepo "github.com/stackvity/receipt-gateway/internal/data/repositories/postgres"
	"github.com/stackvity/receipt-gateway/internal/domain/services"
	"github.com/stackvity/receipt-gateway/internal/events"
	"github.com/stackvity/receipt-gateway/internal/queue"
	"github.com/stackvity/receipt-gateway/internal/storage"
	"github.com/stackvity/receipt-gateway/internal/utils"
	pgdb "github.com/stackvity/receipt-gateway/pkg/database/postgres"
	redisdb "github.com/stackvity/receipt-gateway/pkg/database/redis"
)

// repositorySet provides the raw Postgres repositories wrapped in the
// read-through/write-through caching decorator spec §4.2 requires, and
// binds the decorated type to the interface the service layer depends on.
var repositorySet = wire.NewSet(
	postgresRepo.NewImageRepository,
	postgresRepo.NewRecognitionRepository,
	postgresRepo.NewCachedImageRepository,
	postgresRepo.NewCachedRecognitionRepository,
	wire.Bind(new(interfaces.ImageRepository), new(*postgresRepo.CachedImageRepository)),
	wire.Bind(new(interfaces.RecognitionRepository), new(*postgresRepo.CachedRecognitionRepository)),
)

// infraSet provides the shared Postgres pool, Redis client, and blob store.
var infraSet = wire.NewSet(
	pgdb.NewPostgresDB,
	redisdb.NewRedisClient,
	storage.NewCloudStorage,
)

// redisAdapterSet provides the Redis-backed cache, queue, and event
// publisher adapters, bound to their facade interfaces.
var redisAdapterSet = wire.NewSet(
	cache.NewRedisCache,
	queue.NewRedisQueue,
	events.NewRedisPublisher,
	wire.Bind(new(cache.Cache), new(*cache.RedisCache)),
	wire.Bind(new(queue.Producer), new(*queue.RedisQueue)),
	wire.Bind(new(events.Publisher), new(*events.RedisPublisher)),
)

// serviceSet provides the Ingest Service (C4).
var serviceSet = wire.NewSet(
	services.NewIngestService,
)

// validatorSet provides the struct-tag validator IngestService uses to
// enforce UploadMetadata's constraints.
var validatorSet = wire.NewSet(
	validator.New,
)

// handlerSet provides the HTTP edge handlers and the grouped Handler struct.
var handlerSet = wire.NewSet(
	handlers.NewRecognitionHandler,
	handlers.NewImageHandler,
	handlers.NewHealthHandler,
	handlers.NewHandler,
)

var utilsSet = wire.NewSet(
	utils.NewLogger,
)

var configSet = wire.NewSet(
	config.LoadConfig,
)

var apiSet = wire.NewSet(
	api.NewAPI,
)

// InitializeAPI assembles the ingest process's dependency graph.
func InitializeAPI(ctx context.Context) (*api.API, func(), error) {
	panic(wire.Build(
		configSet,
		utilsSet,
		infraSet,
		redisAdapterSet,
		repositorySet,
		serviceSet,
		validatorSet,
		handlerSet,
		apiSet,
	))
}
