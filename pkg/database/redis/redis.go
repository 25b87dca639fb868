// pkg/database/redis/redis.go
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stackvity/receipt-gateway/internal/config"
	"go.uber.org/zap"
)

// NewRedisClient parses REDIS_URL and returns a connected *redis.Client
// shared across the cache, queue and event publisher adapters.
func NewRedisClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("connected to Redis", zap.String("addr", opts.Addr))
	return rdb, nil
}
