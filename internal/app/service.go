// Package service wires the snapshot store, the reload worker, the scoring
// engine and the result cache behind the operations the HTTP API needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/gigmatch/internal/adapters/cache"
	"github.com/okian/gigmatch/internal/adapters/mq/queue"
	"github.com/okian/gigmatch/internal/adapters/mq/worker"
	"github.com/okian/gigmatch/internal/adapters/repository"
	"github.com/okian/gigmatch/internal/domain/dataset"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/scoring"
	"github.com/okian/gigmatch/internal/domain/types"
	"github.com/okian/gigmatch/pkg/logger"
	"github.com/okian/gigmatch/pkg/metrics"
)

const (
	defaultReloadQueueSize = 4
	shutdownTimeout        = 10 * time.Second
)

// Service implements the API dependencies for the recommendation system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    *repository.SnapshotStore
	engine   *scoring.Engine
	cache    cache.Cache
	reloads  *queue.InMemoryQueue
	reloader *worker.Reloader
	group    singleflight.Group

	// Configuration
	sources         model.Sources
	reloadQueueSize int
	fitOpts         []scoring.FitOption

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSources sets the default dataset files used by Fit and Reload.
func WithSources(src model.Sources) Option {
	return func(s *Service) {
		s.sources = src
	}
}

// WithReloadQueueSize sets how many reloads may wait for the worker.
func WithReloadQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.reloadQueueSize = size
		}
	}
}

// WithSVDRank sets the number of latent components of the collaborative model.
func WithSVDRank(rank int) Option {
	return func(s *Service) {
		if rank > 0 {
			s.fitOpts = append(s.fitOpts, scoring.WithRank(rank))
		}
	}
}

// WithMaxDF sets the document-frequency ceiling of the vocabulary.
func WithMaxDF(p float64) Option {
	return func(s *Service) {
		s.fitOpts = append(s.fitOpts, scoring.WithMaxDF(p))
	}
}

// WithCache sets the result cache.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		store:           repository.NewSnapshotStore(),
		engine:          scoring.NewEngine(),
		cache:           cache.Nop{},
		reloadQueueSize: defaultReloadQueueSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// Start launches the reload worker.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.reloads = queue.NewInMemoryQueue(queue.WithCapacity(s.reloadQueueSize))
	s.reloader = worker.NewReloader(s.reloads, worker.FitterFunc(s.build), s.store,
		worker.WithLogger(s.logger.Named("worker")),
	)
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.reloader.Run(runCtx)

	s.started = true
	s.logger.Info(ctx, "recommendation service started",
		logger.Int("reloadQueueSize", s.reloadQueueSize),
		logger.String("freelancers", s.sources.FreelancersPath),
		logger.String("interactions", s.sources.InteractionsPath),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.reloads.Close(); err != nil {
		s.logger.Error(ctx, "error closing reload queue", logger.Error(err))
	}
	if err := s.reloader.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "reload worker did not stop cleanly", logger.Error(err))
	}
	s.cancel()
	if err := s.cache.Close(); err != nil {
		s.logger.Warn(ctx, "error closing cache", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "recommendation service stopped")
}

// Fit loads src synchronously and installs the result. Empty paths fall back
// to the configured sources. It is used at startup where a failure is fatal.
func (s *Service) Fit(ctx context.Context, src model.Sources) (repository.Info, error) {
	src = s.resolve(src)
	m, err := s.build(ctx, src)
	if err != nil {
		return repository.Info{}, err
	}
	if _, err := s.store.Swap(ctx, m); err != nil {
		return repository.Info{}, fmt.Errorf("install snapshot: %w", err)
	}
	return repository.InfoOf(m), nil
}

// Reload fits src on the reload worker and waits for the swap. Identical
// concurrent reloads share one job. On failure the active snapshot is kept.
func (s *Service) Reload(ctx context.Context, src model.Sources) (repository.Info, error) {
	s.mu.RLock()
	started, reloads := s.started, s.reloads
	s.mu.RUnlock()
	if !started {
		return repository.Info{}, ErrNotStarted
	}

	src = s.resolve(src)
	key := src.FreelancersPath + "\x00" + src.InteractionsPath
	// The shared call must not inherit the cancellation of whichever caller
	// started it; each caller stops waiting on its own ctx instead. The
	// worker or the queue always answers the job, including on shutdown.
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		j := queue.NewJob(src)
		if err := reloads.Enqueue(detached, j); err != nil {
			if errors.Is(err, queue.ErrFull) {
				return nil, fmt.Errorf("%w: %w", ErrReloadBusy, err)
			}
			return nil, fmt.Errorf("enqueue reload: %w", err)
		}
		out := <-j.Done
		if out.Err != nil {
			return nil, out.Err
		}
		return repository.InfoOf(out.Model), nil
	})

	select {
	case r := <-ch:
		if r.Shared {
			s.logger.Debug(ctx, "reload coalesced", logger.String("freelancers", src.FreelancersPath))
		}
		if r.Err != nil {
			return repository.Info{}, r.Err
		}
		return r.Val.(repository.Info), nil
	case <-ctx.Done():
		return repository.Info{}, fmt.Errorf("waiting for reload: %w", ctx.Err())
	}
}

// Recommend scores q against the active snapshot.
func (s *Service) Recommend(ctx context.Context, q model.Query) (types.Result, error) {
	start := time.Now()
	m, err := s.store.Load(ctx)
	if err != nil && !errors.Is(err, repository.ErrNotReady) {
		return types.Result{}, err
	}

	var key string
	if m != nil {
		key = cache.Key(m.Version, q)
		res, hit, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.RecordCacheRequest("error")
			s.logger.Warn(ctx, "cache lookup failed", logger.Error(err))
		case hit:
			metrics.RecordCacheRequest("hit")
			metrics.RecordRecommendation(string(res.Status))
			return res, nil
		default:
			metrics.RecordCacheRequest("miss")
		}
	}

	res, err := s.engine.Score(ctx, m, q)
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordScoringError(errorKind(err))
		return types.Result{}, err
	}
	metrics.RecordRecommendation(string(res.Status))
	metrics.RecordCandidates(res.Candidates)

	if err := s.cache.Set(ctx, key, res); err != nil {
		metrics.RecordCacheRequest("error")
		s.logger.Warn(ctx, "cache store failed", logger.Error(err))
	}
	return res, nil
}

// Ready reports whether a snapshot is installed.
func (s *Service) Ready(ctx context.Context) bool {
	_, err := s.store.Load(ctx)
	return err == nil
}

// Snapshot describes the active snapshot, zero before the first fit.
func (s *Service) Snapshot(ctx context.Context) repository.Info {
	m, _ := s.store.Load(ctx)
	return repository.InfoOf(m)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"ready":           s.Ready(ctx),
		"reloadQueueSize": s.reloadQueueSize,
		"swaps":           s.store.Swaps(),
		"snapshot":        s.Snapshot(ctx),
		"history":         s.store.History(ctx),
	}
	if s.started {
		queueLen := s.reloads.Len(ctx)
		stats["reloadQueueLength"] = queueLen
		metrics.UpdateReloadQueueSize(queueLen)
	}
	return stats
}

// build loads src and fits a snapshot from it.
func (s *Service) build(ctx context.Context, src model.Sources) (*scoring.Model, error) {
	start := time.Now()
	if strings.TrimSpace(src.FreelancersPath) == "" {
		metrics.RecordModelFit(metrics.OutcomeFailure, time.Since(start))
		return nil, fmt.Errorf("%w: %w", dataset.ErrDataLoad, ErrNoFreelancer)
	}

	ds, err := dataset.LoadFiles(ctx, src.FreelancersPath, src.InteractionsPath)
	if err == nil {
		var m *scoring.Model
		m, err = scoring.Fit(ctx, ds, s.fitOpts...)
		if err == nil {
			metrics.RecordModelFit(metrics.OutcomeSuccess, time.Since(start))
			s.logger.Info(ctx, "model fitted",
				logger.String("version", m.Version),
				logger.Int("freelancers", m.Freelancers()),
				logger.Int("interactions", m.Interactions()),
				logger.Int("clients", m.Clients()),
				logger.Int("vocabulary", m.Vocabulary()),
				logger.Bool("collaborative", m.Collaborative()),
				logger.Duration("took", time.Since(start)),
			)
			return m, nil
		}
	}
	metrics.RecordModelFit(metrics.OutcomeFailure, time.Since(start))
	metrics.RecordErrorByComponent("service", "fit_error")
	return nil, err
}

func (s *Service) resolve(src model.Sources) model.Sources {
	if strings.TrimSpace(src.FreelancersPath) == "" {
		src.FreelancersPath = s.sources.FreelancersPath
		if strings.TrimSpace(src.InteractionsPath) == "" {
			src.InteractionsPath = s.sources.InteractionsPath
		}
	}
	return src
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, scoring.ErrQuery):
		return "query"
	case errors.Is(err, scoring.ErrModelNotReady):
		return "model_not_ready"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}
