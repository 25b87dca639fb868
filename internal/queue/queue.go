// internal/queue/queue.go
package queue

import (
	"context"
	"errors"
	"time"
)

// JobsQueue is the durable FIFO topic name spec §6 calls ocr-jobs.
const JobsQueue = "ocr-jobs"

// Retry policy for ocr-jobs per spec §4.4 step 5: 3 attempts, exponential
// backoff starting at 2s.
const (
	MaxAttempts          = 3
	InitialRetryBackoff  = 2 * time.Second
)

// RetryBackoff returns the Nack delay for the given attempt number
// (1-indexed, as populated by Dequeue), doubling from InitialRetryBackoff.
func RetryBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	backoff := InitialRetryBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	return backoff
}

// Standard queue errors.
var (
	ErrEmpty   = errors.New("queue: empty")
	ErrInvalid = errors.New("queue: invalid")
)

// Envelope is the unit of transport through the queue: the Job payload plus
// backend-owned delivery metadata. Producers set everything except
// Attempt, which the backend manages on Dequeue; consumers must treat it
// as read-only.
type Envelope struct {
	ID         string    `json:"id"`
	Payload    []byte    `json:"payload"`
	ProducedAt time.Time `json:"producedAt"`
	Attempt    int       `json:"attempt"`
}

// DequeueResult pairs a leased Envelope with the opaque receipt needed to
// Ack, Nack or extend its lease.
type DequeueResult struct {
	Env     Envelope
	Receipt string
}

// Producer publishes Job envelopes.
type Producer interface {
	Enqueue(ctx context.Context, queue string, env Envelope) error
}

// Consumer leases envelopes for processing. Dequeue returns ErrEmpty if
// nothing is available within pollTimeout.
type Consumer interface {
	Dequeue(ctx context.Context, queue string, pollTimeout, visibilityTimeout time.Duration) (DequeueResult, error)
	Ack(ctx context.Context, queue, receipt string) error
	Nack(ctx context.Context, queue, receipt string, delay time.Duration) error

	// QueueLength reports the current waiting count, used by C4 to compute
	// ocr.queued's position/estimatedWait fields.
	QueueLength(ctx context.Context, queue string) (int64, error)
}

// Queue combines Producer and Consumer, the shape C4 and C5 depend on.
type Queue interface {
	Producer
	Consumer
}
