package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/gigmatch/internal/adapters/cache"
	"github.com/okian/gigmatch/internal/adapters/http/api"
	app "github.com/okian/gigmatch/internal/app"
	"github.com/okian/gigmatch/internal/config"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/pkg/logger"
	"github.com/okian/gigmatch/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logger: " + err.Error() + "\n")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "service terminated", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	sources := model.Sources{
		FreelancersPath:  cfg.FreelancersPath,
		InteractionsPath: cfg.InteractionsPath,
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithSources(sources),
		app.WithReloadQueueSize(cfg.ReloadQueueSize),
		app.WithSVDRank(cfg.SVDRank),
		app.WithMaxDF(cfg.MaxDF),
		app.WithCache(openCache(ctx, cfg, log)),
	)

	info, err := svc.Fit(ctx, sources)
	if err != nil {
		return err
	}
	log.Info(ctx, "initial snapshot fitted",
		logger.String("version", info.Version),
		logger.Int("freelancers", info.Freelancers),
		logger.Int("clients", info.Clients),
		logger.Int("vocabulary", info.Vocabulary),
	)

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)
	go reloadOnHangup(ctx, svc, log)

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.NewServer(svc,
			api.WithRateLimit(cfg.RateLimitPerMinute),
			api.WithAdminToken(cfg.AdminToken),
			api.WithRequestTimeout(cfg.RequestTimeout()),
		).Router(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.RequestTimeout() + readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// openCache connects the result cache. A cache that cannot be reached is
// logged and replaced with a no-op one.
func openCache(ctx context.Context, cfg *config.Config, log logger.Logger) cache.Cache {
	if cfg.CacheAddr == "" {
		return cache.Nop{}
	}
	c, err := cache.NewRedisCache(ctx, cfg.CacheAddr,
		cache.WithDB(cfg.CacheDB),
		cache.WithTTL(cfg.CacheTTL()),
	)
	if err != nil {
		log.Warn(ctx, "result cache disabled", logger.String("addr", cfg.CacheAddr), logger.Error(err))
		return cache.Nop{}
	}
	log.Info(ctx, "result cache enabled", logger.String("addr", cfg.CacheAddr))
	return c
}

// reloadOnHangup re-reads the configured datasets on every SIGHUP.
func reloadOnHangup(ctx context.Context, svc *app.Service, log logger.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			info, err := svc.Reload(ctx, model.Sources{})
			if err != nil {
				log.Error(ctx, "reload on SIGHUP failed", logger.Error(err))
				continue
			}
			log.Info(ctx, "reloaded on SIGHUP", logger.String("version", info.Version))
		}
	}
}

// startSystemMetricsUpdater refreshes process gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes service gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats publishes the reload queue gauge as a side effect.
			_ = svc.GetStats()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
