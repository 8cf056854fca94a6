// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/gigmatch/internal/adapters/http/swagger"
	"github.com/okian/gigmatch/internal/adapters/repository"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/types"
	"github.com/okian/gigmatch/pkg/metrics"
)

const (
	defaultRateLimitPerMinute = 600
	defaultRequestTimeout     = 30 * time.Second
	maxBodyBytes              = 1 << 20
)

// Recommender scores queries against the active snapshot.
type Recommender interface {
	Recommend(ctx context.Context, q model.Query) (types.Result, error)
}

// Reloader replaces the active snapshot.
type Reloader interface {
	Reload(ctx context.Context, src model.Sources) (repository.Info, error)
}

// ReadinessProvider reports whether a snapshot is installed.
type ReadinessProvider interface {
	Ready(ctx context.Context) bool
	Snapshot(ctx context.Context) repository.Info
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Recommender
	Reloader
	ReadinessProvider
	StatsProvider
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimit sets the per-client request budget of POST /recommend.
// Zero or less disables the limiter.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) {
		s.rateLimit = perMinute
	}
}

// WithAdminToken requires a bearer token on admin routes.
func WithAdminToken(token string) Option {
	return func(s *Server) {
		s.adminToken = token
	}
}

// WithRequestTimeout bounds request handling time.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	rootHandler      *RootHandler
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	recommendHandler *RecommendHandler
	reloadHandler    *ReloadHandler

	rateLimit  int
	adminToken string
	timeout    time.Duration
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		rootHandler:      NewRootHandler(),
		healthHandler:    NewHealthHandler(deps),
		statsHandler:     NewStatsHandler(deps),
		recommendHandler: NewRecommendHandler(deps),
		reloadHandler:    NewReloadHandler(deps),
		rateLimit:        defaultRateLimitPerMinute,
		timeout:          defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the chi router serving every route.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/", MetricsMiddleware(s.rootHandler.HandleRoot, "root"))
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	swagger.Register(r)

	r.Group(func(r chi.Router) {
		if s.rateLimit > 0 {
			r.Use(httprate.Limit(s.rateLimit, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					writeError(w, http.StatusTooManyRequests, "rate_limited", NewKind("api.recommend", ErrBackpressure))
				}),
			))
		}
		r.Post("/recommend", MetricsMiddleware(s.recommendHandler.HandleRecommend, "recommend"))
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Post("/admin/reload", MetricsMiddleware(s.reloadHandler.HandleReload, "reload"))
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
