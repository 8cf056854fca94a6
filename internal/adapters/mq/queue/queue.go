// Package queue carries reload jobs from request handlers to the reload worker.
//
// The queue is bounded and never blocks the caller: a full queue is reported
// as ErrFull so the transport can signal backpressure.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/scoring"
	"github.com/okian/gigmatch/pkg/metrics"
)

const defaultCapacity = 4

// Outcome is the result of a reload job. Previous is the snapshot that was
// replaced, nil on the first successful reload.
type Outcome struct {
	Model    *scoring.Model
	Previous *scoring.Model
	Err      error
}

// Job asks the worker to fit a new snapshot from Sources. The worker sends
// exactly one Outcome on Done.
type Job struct {
	ID         string
	Sources    model.Sources
	EnqueuedAt time.Time
	Done       chan Outcome
}

// NewJob creates a job with a fresh id and a buffered reply channel.
func NewJob(src model.Sources) Job {
	return Job{
		ID:         uuid.NewString(),
		Sources:    src,
		EnqueuedAt: time.Now(),
		Done:       make(chan Outcome, 1),
	}
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. It returns ErrFull or ErrClosed instead of blocking.
	Enqueue(ctx context.Context, j Job) error

	// Dequeue returns a channel that receives jobs as they become available.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the number of pending jobs.
	Len(ctx context.Context) int

	// Close stops accepting jobs and closes the dequeue channel.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateReloadQueueCapacity(q.capacity)
	metrics.UpdateReloadQueueSize(0)
	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", j.ID, err)
	}

	select {
	case q.jobs <- j:
		metrics.UpdateReloadQueueSize(len(q.jobs))
		return nil
	default:
		metrics.RecordReloadRejected()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns a channel that receives jobs as they become available.
// Once ctx is done every job still queued, and every job enqueued until
// Close, is answered with an abandoned Outcome instead of being delivered.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for j := range q.jobs {
			select {
			case out <- j:
				metrics.UpdateReloadQueueSize(len(q.jobs))
			case <-ctx.Done():
				abandon(j, ctx.Err())
				for rest := range q.jobs {
					abandon(rest, ctx.Err())
				}
				metrics.UpdateReloadQueueSize(0)
				return
			}
		}
	}()
	return out
}

func abandon(j Job, err error) {
	j.Done <- Outcome{Err: fmt.Errorf("reload %s abandoned: %w", j.ID, err)}
}

// Len returns the number of pending jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.jobs)
}

// Capacity returns the maximum number of pending jobs.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

var _ Queue = (*InMemoryQueue)(nil)
