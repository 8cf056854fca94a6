// Package metrics provides Prometheus metrics for the gigmatch recommendation service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Outcome labels for model fits.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Recommendation metrics
	recommendations *prometheus.CounterVec
	scoringLatency  prometheus.Histogram
	scoringErrors   *prometheus.CounterVec
	candidates      prometheus.Histogram

	// Model lifecycle metrics
	modelFits            *prometheus.CounterVec
	modelFitDuration     prometheus.Histogram
	snapshotFreelancers  prometheus.Gauge
	snapshotClients      prometheus.Gauge
	snapshotVocabulary   prometheus.Gauge
	snapshotLastFitUnix  prometheus.Gauge
	snapshotCollabActive prometheus.Gauge

	// Reload queue metrics
	reloadQueueSize     prometheus.Gauge
	reloadQueueCapacity prometheus.Gauge
	reloadRejected      prometheus.Counter

	// Cache metrics
	cacheRequests *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Collectors are registered on the
// configured registry, prometheus.DefaultRegisterer unless overridden.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gigmatch",
		subsystem:        "recommender",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	m.recommendations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "recommendations_total",
		Help:        "Recommendation requests by outcome status (ok, no-match, no-data, error)",
		ConstLabels: constLabels,
	}, []string{"status"})

	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "scoring_latency_milliseconds",
		Help:        "Time spent scoring one query against a snapshot",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	})

	m.scoringErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "scoring_errors_total",
		Help:        "Scoring failures by error kind",
		ConstLabels: constLabels,
	}, []string{"kind"})

	m.candidates = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "candidates_after_filter",
		Help:        "Number of freelancers surviving budget and expression filters",
		Buckets:     prometheus.ExponentialBuckets(1, 4, 8),
		ConstLabels: constLabels,
	})

	m.modelFits = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "model_fits_total",
		Help:        "Model fit attempts by outcome (success, failure)",
		ConstLabels: constLabels,
	}, []string{"outcome"})

	m.modelFitDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "model_fit_duration_milliseconds",
		Help:        "Wall time of a full load and fit cycle",
		Buckets:     prometheus.ExponentialBuckets(1, 2, 16),
		ConstLabels: constLabels,
	})

	m.snapshotFreelancers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "snapshot_freelancers",
		Help:        "Freelancers in the active snapshot",
		ConstLabels: constLabels,
	})

	m.snapshotClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "snapshot_clients",
		Help:        "Clients known to the collaborative model of the active snapshot",
		ConstLabels: constLabels,
	})

	m.snapshotVocabulary = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "snapshot_vocabulary_terms",
		Help:        "Terms in the TF-IDF vocabulary of the active snapshot",
		ConstLabels: constLabels,
	})

	m.snapshotLastFitUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "snapshot_last_fit_unixtime",
		Help:        "Unix time at which the active snapshot was fitted",
		ConstLabels: constLabels,
	})

	m.snapshotCollabActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "snapshot_collaborative_enabled",
		Help:        "1 when the active snapshot carries a collaborative model",
		ConstLabels: constLabels,
	})

	m.reloadQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "reload_queue_size",
		Help:        "Pending reload jobs",
		ConstLabels: constLabels,
	})

	m.reloadQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "reload_queue_capacity",
		Help:        "Maximum pending reload jobs",
		ConstLabels: constLabels,
	})

	m.reloadRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "reload_rejected_total",
		Help:        "Reload jobs rejected because the queue was full or closed",
		ConstLabels: constLabels,
	})

	m.cacheRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "cache_requests_total",
		Help:        "Result cache lookups by result (hit, miss, error)",
		ConstLabels: constLabels,
	}, []string{"result"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "HTTP requests by endpoint, method and status code",
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_component_total",
		Help:        "Errors by component and type",
		ConstLabels: constLabels,
	}, []string{"component", "error_type"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_endpoint_total",
		Help:        "HTTP errors by endpoint, method and type",
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_bytes",
		Help:        "Heap bytes allocated",
		ConstLabels: constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutines",
		Help:        "Number of goroutines",
		ConstLabels: constLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_milliseconds",
		Help:        "Average GC pause in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	})
}

// Recommendation metrics.

// RecordRecommendation counts one recommendation outcome.
func RecordRecommendation(status string) {
	if !globalManager.enabled {
		return
	}
	globalManager.recommendations.WithLabelValues(status).Inc()
}

// RecordScoringLatency observes the scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordScoringError counts a scoring failure of the given kind.
func RecordScoringError(kind string) {
	if !globalManager.enabled {
		return
	}
	globalManager.scoringErrors.WithLabelValues(kind).Inc()
}

// RecordCandidates observes how many freelancers passed the filters.
func RecordCandidates(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.candidates.Observe(float64(n))
}

// Model lifecycle metrics.

// RecordModelFit counts a fit attempt and observes its duration.
func RecordModelFit(outcome string, duration time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.modelFits.WithLabelValues(outcome).Inc()
	globalManager.modelFitDuration.Observe(float64(duration.Milliseconds()))
}

// UpdateSnapshot publishes the shape of the newly active snapshot.
func UpdateSnapshot(freelancers, clients, vocabulary int, collaborative bool, fittedAt time.Time) {
	if !globalManager.enabled {
		return
	}
	globalManager.snapshotFreelancers.Set(float64(freelancers))
	globalManager.snapshotClients.Set(float64(clients))
	globalManager.snapshotVocabulary.Set(float64(vocabulary))
	globalManager.snapshotLastFitUnix.Set(float64(fittedAt.Unix()))
	if collaborative {
		globalManager.snapshotCollabActive.Set(1)
	} else {
		globalManager.snapshotCollabActive.Set(0)
	}
}

// Reload queue metrics.

// UpdateReloadQueueSize sets the number of pending reload jobs.
func UpdateReloadQueueSize(size int) {
	globalManager.reloadQueueSize.Set(float64(size))
}

// UpdateReloadQueueCapacity sets the reload queue capacity.
func UpdateReloadQueueCapacity(capacity int) {
	globalManager.reloadQueueCapacity.Set(float64(capacity))
}

// RecordReloadRejected counts a rejected reload job.
func RecordReloadRejected() {
	globalManager.reloadRejected.Inc()
}

// Cache metrics.

// RecordCacheRequest counts a cache lookup: hit, miss or error.
func RecordCacheRequest(result string) {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheRequests.WithLabelValues(result).Inc()
}

// HTTP metrics.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System metrics.

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RefreshInterval reports how often background gauges should be refreshed.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}
