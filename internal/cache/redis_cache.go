// internal/cache/redis_cache.go
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ Cache = (*RedisCache)(nil)

// RedisCache implements Cache over a shared *redis.Client — the same
// connection pool the queue and event bus transports use, per the
// REDIS_URL configuration surface.
type RedisCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedisCache creates a new RedisCache instance.
func NewRedisCache(rdb *redis.Client, logger *zap.Logger) *RedisCache {
	return &RedisCache{rdb: rdb, logger: logger.Named("RedisCache")}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (c *RedisCache) GetBinary(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) SetBinary(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		c.logger.Warn("cache exists failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return n > 0, nil
}
