// internal/events/redis_publisher.go
package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ Publisher = (*RedisPublisher)(nil)

// RedisPublisher publishes Events to Channel over Redis Pub/Sub. It never
// returns an error to the caller: a publish failure is logged and swallowed,
// matching the best-effort delivery contract of spec §4.3.
type RedisPublisher struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedisPublisher creates a new RedisPublisher instance.
func NewRedisPublisher(rdb *redis.Client, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, logger: logger.Named("RedisPublisher")}
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, event *Event) {
	const operation = "RedisPublisher.Publish"

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event", zap.String("operation", operation), zap.String("kind", string(event.Kind)), zap.Error(err))
		return
	}

	if err := p.rdb.Publish(ctx, Channel, data).Err(); err != nil {
		p.logger.Warn("event publish failed", zap.String("operation", operation), zap.String("kind", string(event.Kind)), zap.String("recognition_id", event.RecognitionID.String()), zap.Error(err))
		return
	}

	p.logger.Debug("event published", zap.String("operation", operation), zap.String("kind", string(event.Kind)), zap.String("recognition_id", event.RecognitionID.String()))
}
