// Package worker runs reload jobs off the request path: it fits a new
// snapshot and swaps it in, one job at a time.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/gigmatch/internal/adapters/mq/queue"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/scoring"
	"github.com/okian/gigmatch/pkg/logger"
	"github.com/okian/gigmatch/pkg/metrics"
)

// Fitter builds a snapshot from dataset sources.
type Fitter interface {
	Fit(ctx context.Context, src model.Sources) (*scoring.Model, error)
}

// FitterFunc adapts a function to Fitter.
type FitterFunc func(ctx context.Context, src model.Sources) (*scoring.Model, error)

// Fit calls f.
func (f FitterFunc) Fit(ctx context.Context, src model.Sources) (*scoring.Model, error) {
	return f(ctx, src)
}

// Swapper installs a snapshot and returns the one it replaced.
type Swapper interface {
	Swap(ctx context.Context, m *scoring.Model) (*scoring.Model, error)
}

// Queue defines how the worker receives jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Reloader processes reload jobs sequentially so swaps never interleave.
type Reloader struct {
	queue   Queue
	fitter  Fitter
	swapper Swapper
	name    string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewReloader creates a reload worker with configuration options.
func NewReloader(q Queue, fitter Fitter, swapper Swapper, opts ...Option) *Reloader {
	w := &Reloader{
		queue:    q,
		fitter:   fitter,
		swapper:  swapper,
		name:     "reloader",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("worker")
	}
	if w.name != "reloader" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run processes jobs until ctx is cancelled, Shutdown is called or the queue
// is closed.
func (w *Reloader) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			j.Done <- w.process(ctx, j)
		}
	}
}

// Shutdown stops the worker after the job in progress, if any.
func (w *Reloader) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *Reloader) process(ctx context.Context, j queue.Job) queue.Outcome {
	start := time.Now()
	w.logger.Info(ctx, "reload started",
		logger.String("job", j.ID),
		logger.String("freelancers", j.Sources.FreelancersPath),
		logger.String("interactions", j.Sources.InteractionsPath),
		logger.Duration("queued", start.Sub(j.EnqueuedAt)),
	)

	m, err := w.fitter.Fit(ctx, j.Sources)
	if err != nil {
		metrics.RecordErrorByComponent("worker", "fit_error")
		w.logger.Error(ctx, "reload failed, keeping current snapshot",
			logger.String("job", j.ID),
			logger.Error(err),
		)
		return queue.Outcome{Err: fmt.Errorf("reload %s: %w", j.ID, err)}
	}

	prev, err := w.swapper.Swap(ctx, m)
	if err != nil {
		metrics.RecordErrorByComponent("worker", "swap_error")
		w.logger.Error(ctx, "snapshot swap failed", logger.String("job", j.ID), logger.Error(err))
		return queue.Outcome{Err: fmt.Errorf("reload %s: %w", j.ID, err)}
	}

	fields := []logger.Field{
		logger.String("job", j.ID),
		logger.String("version", m.Version),
		logger.Int("freelancers", m.Freelancers()),
		logger.Duration("took", time.Since(start)),
	}
	if prev != nil {
		fields = append(fields, logger.String("replaced", prev.Version))
	}
	w.logger.Info(ctx, "reload complete", fields...)
	return queue.Outcome{Model: m, Previous: prev}
}
