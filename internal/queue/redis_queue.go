// internal/queue/redis_queue.go
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ Queue = (*RedisQueue)(nil)

// RedisQueue implements Queue over go-redis/v9 lists (FIFO body) plus a
// sorted-set lease table for visibility-timeout tracking, in the spirit of
// the reliable-queue pattern: BLMOVE atomically hands a payload from the
// waiting list to the queue's processing list, and Dequeue then records a
// lease (deadline in a ZSET, payload in a hash) and drops the processing-list
// copy. The lease is what keeps a crashed worker's in-flight job
// discoverable for the reclaimer to requeue.
type RedisQueue struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedisQueue creates a new RedisQueue instance.
func NewRedisQueue(rdb *redis.Client, logger *zap.Logger) *RedisQueue {
	return &RedisQueue{rdb: rdb, logger: logger.Named("RedisQueue")}
}

func waitingKey(queue string) string   { return "queue:" + queue }
func processingKey(queue string) string { return "queue:" + queue + ":processing" }
func leasesKey(queue string) string    { return "queue:" + queue + ":leases" }
func leasePayloadKey(queue string) string { return "queue:" + queue + ":lease_payload" }
func delayedKey(queue string) string   { return "queue:" + queue + ":delayed" }

// Enqueue implements Producer.
func (q *RedisQueue) Enqueue(ctx context.Context, queueName string, env Envelope) error {
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	if env.ProducedAt.IsZero() {
		env.ProducedAt = time.Now().UTC()
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := q.rdb.RPush(ctx, waitingKey(queueName), data).Err(); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	return nil
}

// Dequeue implements Consumer. It blocks up to pollTimeout waiting for a
// payload, then registers a lease valid for visibilityTimeout.
func (q *RedisQueue) Dequeue(ctx context.Context, queueName string, pollTimeout, visibilityTimeout time.Duration) (DequeueResult, error) {
	raw, err := q.rdb.BLMove(ctx, waitingKey(queueName), processingKey(queueName), "LEFT", "RIGHT", pollTimeout).Result()
	if errors.Is(err, redis.Nil) {
		return DequeueResult{}, ErrEmpty
	}
	if err != nil {
		return DequeueResult{}, fmt.Errorf("dequeue: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return DequeueResult{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	env.Attempt++

	// The lease keeps the envelope with the incremented Attempt, so a Nack or
	// a reclaim puts the counted attempt back on the waiting list.
	leased, err := json.Marshal(env)
	if err != nil {
		return DequeueResult{}, fmt.Errorf("marshal envelope: %w", err)
	}

	receipt := uuid.NewString()
	deadline := time.Now().Add(visibilityTimeout)

	pipe := q.rdb.TxPipeline()
	pipe.ZAdd(ctx, leasesKey(queueName), redis.Z{Score: float64(deadline.UnixNano()), Member: receipt})
	pipe.HSet(ctx, leasePayloadKey(queueName), receipt, leased)
	if _, err := pipe.Exec(ctx); err != nil {
		return DequeueResult{}, fmt.Errorf("register lease: %w", err)
	}

	// The raw bytes moved into the processing list are superseded by the
	// lease record; remove one copy so the processing list doesn't grow
	// unbounded across redeliveries.
	q.rdb.LRem(ctx, processingKey(queueName), 1, raw)

	return DequeueResult{Env: env, Receipt: receipt}, nil
}

// Ack implements Consumer.
func (q *RedisQueue) Ack(ctx context.Context, queueName, receipt string) error {
	pipe := q.rdb.TxPipeline()
	pipe.ZRem(ctx, leasesKey(queueName), receipt)
	pipe.HDel(ctx, leasePayloadKey(queueName), receipt)
	_, err := pipe.Exec(ctx)
	return err
}

// Nack implements Consumer: the payload is returned to the waiting list,
// either immediately (delay<=0) or via the delayed ZSET for the reclaimer
// to promote once delay elapses.
func (q *RedisQueue) Nack(ctx context.Context, queueName, receipt string, delay time.Duration) error {
	raw, err := q.rdb.HGet(ctx, leasePayloadKey(queueName), receipt).Result()
	if errors.Is(err, redis.Nil) {
		return nil // lease already reclaimed or acked
	}
	if err != nil {
		return fmt.Errorf("lookup lease payload: %w", err)
	}

	pipe := q.rdb.TxPipeline()
	pipe.ZRem(ctx, leasesKey(queueName), receipt)
	pipe.HDel(ctx, leasePayloadKey(queueName), receipt)
	if delay <= 0 {
		pipe.RPush(ctx, waitingKey(queueName), raw)
	} else {
		pipe.ZAdd(ctx, delayedKey(queueName), redis.Z{Score: float64(time.Now().Add(delay).UnixNano()), Member: raw})
	}
	_, err = pipe.Exec(ctx)
	return err
}

// QueueLength implements Consumer.
func (q *RedisQueue) QueueLength(ctx context.Context, queueName string) (int64, error) {
	return q.rdb.LLen(ctx, waitingKey(queueName)).Result()
}

// ReclaimExpired promotes delayed Nack'd payloads whose delay has elapsed,
// and any lease whose visibility timeout has passed without an Ack/Nack
// (a worker that crashed mid-job), back onto the waiting list. Callers
// should invoke this periodically from a background goroutine in the
// worker process.
func (q *RedisQueue) ReclaimExpired(ctx context.Context, queueName string) (int, error) {
	now := float64(time.Now().UnixNano())
	reclaimed := 0

	delayedReady, err := q.rdb.ZRangeByScore(ctx, delayedKey(queueName), &redis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%f", now)}).Result()
	if err != nil {
		return 0, fmt.Errorf("scan delayed: %w", err)
	}
	for _, raw := range delayedReady {
		pipe := q.rdb.TxPipeline()
		pipe.ZRem(ctx, delayedKey(queueName), raw)
		pipe.RPush(ctx, waitingKey(queueName), raw)
		if _, err := pipe.Exec(ctx); err == nil {
			reclaimed++
		}
	}

	expiredLeases, err := q.rdb.ZRangeByScore(ctx, leasesKey(queueName), &redis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%f", now)}).Result()
	if err != nil {
		return reclaimed, fmt.Errorf("scan leases: %w", err)
	}
	for _, receipt := range expiredLeases {
		raw, err := q.rdb.HGet(ctx, leasePayloadKey(queueName), receipt).Result()
		if err != nil {
			continue
		}
		pipe := q.rdb.TxPipeline()
		pipe.ZRem(ctx, leasesKey(queueName), receipt)
		pipe.HDel(ctx, leasePayloadKey(queueName), receipt)
		pipe.RPush(ctx, waitingKey(queueName), raw)
		if _, err := pipe.Exec(ctx); err == nil {
			reclaimed++
			q.logger.Warn("reclaimed expired lease", zap.String("queue", queueName), zap.String("receipt", receipt))
		}
	}

	return reclaimed, nil
}
