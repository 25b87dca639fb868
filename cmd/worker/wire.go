//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/stackvity/receipt-gateway/internal/cache"
	"github.com/stackvity/receipt-gateway/internal/config"
	"github.com/stackvity/receipt-gateway/internal/data/repositories/interfaces"
	postgresRepo "github.com/stackvity/receipt-gateway/internal/data/repositories/postgres"
	"github.com/stackvity/receipt-gateway/internal/domain/services"
	"github.com/stackvity/receipt-gateway/internal/engines"
	"github.com/stackvity/receipt-gateway/internal/events"
	"github.com/stackvity/receipt-gateway/internal/queue"
	"github.com/stackvity/receipt-gateway/internal/storage"
	"github.com/stackvity/receipt-gateway/internal/utils"
	pgdb "github.com/stackvity/receipt-gateway/pkg/database/postgres"
	redisdb "github.com/stackvity/receipt-gateway/pkg/database/redis"
)

// repositorySet provides the raw Postgres repositories wrapped in the
// read-through/write-through caching decorator spec §4.2 requires, and
// binds the decorated type to the interface the processor depends on.
var repositorySet = wire.NewSet(
	postgresRepo.NewImageRepository,
	postgresRepo.NewRecognitionRepository,
	postgresRepo.NewCachedImageRepository,
	postgresRepo.NewCachedRecognitionRepository,
	wire.Bind(new(interfaces.ImageRepository), new(*postgresRepo.CachedImageRepository)),
	wire.Bind(new(interfaces.RecognitionRepository), new(*postgresRepo.CachedRecognitionRepository)),
)

var infraSet = wire.NewSet(
	pgdb.NewPostgresDB,
	redisdb.NewRedisClient,
	storage.NewCloudStorage,
)

var redisAdapterSet = wire.NewSet(
	cache.NewRedisCache,
	queue.NewRedisQueue,
	events.NewRedisPublisher,
	wire.Bind(new(cache.Cache), new(*cache.RedisCache)),
	wire.Bind(new(queue.Queue), new(*queue.RedisQueue)),
	wire.Bind(new(events.Publisher), new(*events.RedisPublisher)),
)

// enginesSet provides the three C1 engine clients.
var enginesSet = wire.NewSet(
	engines.NewAlignerClient,
	engines.NewTesseractClient,
	engines.NewPaddleOCRClient,
	wire.Bind(new(engines.ImageAligner), new(*engines.AlignerClient)),
	wire.Bind(new(engines.TextRecognizer), new(*engines.TesseractClient)),
)

var serviceSet = wire.NewSet(
	services.NewRecognitionProcessor,
)

var utilsSet = wire.NewSet(
	utils.NewLogger,
)

var configSet = wire.NewSet(
	config.LoadConfig,
)

// InitializeWorker assembles the worker process's dependency graph.
func InitializeWorker(ctx context.Context) (*workerApp, func(), error) {
	panic(wire.Build(
		configSet,
		utilsSet,
		infraSet,
		redisAdapterSet,
		repositorySet,
		enginesSet,
		serviceSet,
		wire.Struct(new(workerApp), "*"),
	))
}
