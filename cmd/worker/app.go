// cmd/worker/app.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/stackvity/receipt-gateway/internal/config"
	"github.com/stackvity/receipt-gateway/internal/domain/entities"
	"github.com/stackvity/receipt-gateway/internal/domain/services"
	"github.com/stackvity/receipt-gateway/internal/queue"
	"go.uber.org/zap"
)

// pollTimeout is how long one Dequeue call blocks waiting for a job before
// an executor loops back to check ctx.Done().
const pollTimeout = 5 * time.Second

// visibilityTimeout bounds how long a dequeued job may stay unacknowledged
// before ReclaimExpired puts it back on the waiting list.
const visibilityTimeout = 2 * time.Minute

// reclaimInterval is how often the background reclaimer sweeps for expired
// leases and ready delayed retries.
const reclaimInterval = 30 * time.Second

// workerApp is the assembled worker process: N executor goroutines
// consuming ocr-jobs through RecognitionProcessor, plus a background
// reclaimer for the queue's visibility-timeout leases.
type workerApp struct {
	Config    *config.Config
	Logger    *zap.Logger
	Queue     *queue.RedisQueue
	Processor *services.RecognitionProcessor
}

// Run starts the executor pool and reclaimer and blocks until ctx is
// cancelled, then drains in-flight executors before returning.
func (a *workerApp) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < a.Config.WorkerConcurrency; i++ {
		wg.Add(1)
		go a.runExecutor(ctx, &wg, i)
	}

	wg.Add(1)
	go a.runReclaimer(ctx, &wg)

	a.Logger.Info("worker started", zap.Int("concurrency", a.Config.WorkerConcurrency))
	<-ctx.Done()
	a.Logger.Info("shutdown signal received, draining executors")
	wg.Wait()
	a.Logger.Info("worker exited cleanly")
}

func (a *workerApp) runExecutor(ctx context.Context, wg *sync.WaitGroup, id int) {
	defer wg.Done()
	log := a.Logger.Named("executor").With(zap.Int("executor_id", id))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result, err := a.Queue.Dequeue(ctx, queue.JobsQueue, pollTimeout, visibilityTimeout)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			log.Warn("dequeue failed, backing off", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		var job entities.Job
		if err := json.Unmarshal(result.Env.Payload, &job); err != nil {
			log.Error("failed to unmarshal job envelope, acking to drop it", zap.Error(err))
			if ackErr := a.Queue.Ack(ctx, queue.JobsQueue, result.Receipt); ackErr != nil {
				log.Error("ack failed after unmarshal error", zap.Error(ackErr))
			}
			continue
		}

		queueWaitTime := time.Since(job.EnqueuedAt)
		procErr := a.Processor.ProcessJob(ctx, &job, queueWaitTime)
		if procErr != nil {
			if result.Env.Attempt >= queue.MaxAttempts {
				log.Error("job exhausted retries, acking to drop it", zap.String("recognition_id", job.RecognitionID.String()), zap.Error(procErr))
				if ackErr := a.Queue.Ack(ctx, queue.JobsQueue, result.Receipt); ackErr != nil {
					log.Error("ack failed after retry exhaustion", zap.Error(ackErr))
				}
				continue
			}
			delay := queue.RetryBackoff(result.Env.Attempt)
			if err := a.Queue.Nack(ctx, queue.JobsQueue, result.Receipt, delay); err != nil {
				log.Error("nack failed", zap.Error(err))
			}
			continue
		}

		if err := a.Queue.Ack(ctx, queue.JobsQueue, result.Receipt); err != nil {
			log.Error("ack failed after successful processing", zap.String("recognition_id", job.RecognitionID.String()), zap.Error(err))
		}
	}
}

// runReclaimer periodically promotes ready delayed retries and
// visibility-timeout-expired leases back onto the waiting list, so a
// crashed executor's in-flight job is not lost.
func (a *workerApp) runReclaimer(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	log := a.Logger.Named("reclaimer")
	ticker := time.NewTicker(reclaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.Queue.ReclaimExpired(ctx, queue.JobsQueue)
			if err != nil {
				log.Warn("reclaim pass failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("reclaimed jobs", zap.Int("count", n))
			}
		}
	}
}
