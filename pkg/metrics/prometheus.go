// Package metrics provides Prometheus metrics for the skatepark simulator.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every simulator metric.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Sessions
	sessionsStarted *prometheus.CounterVec
	sessionsEnded   *prometheus.CounterVec
	sessionsActive  prometheus.Gauge
	ticks           prometheus.Counter
	tickDuration    prometheus.Histogram
	ticksDeduped    prometheus.Counter

	// Attempts
	attempts   *prometheus.CounterVec
	retries    prometheus.Counter
	noAttempts prometheus.Counter
	unassigned prometheus.Counter
	points     prometheus.Histogram

	// Library builder
	librarySpend *prometheus.HistogramVec

	// Scoreboard and archive
	leaderboardUpdates prometheus.Counter
	leaderboardSkaters prometheus.Gauge
	archiveWrites      prometheus.Counter
	archiveLatency     prometheus.Histogram

	// Batch queue and workers
	batchJobs        *prometheus.CounterVec
	batchQueueDepth  prometheus.Gauge
	batchWorkers     prometheus.Gauge
	batchJobDuration prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

var (
	customRegistry = prometheus.NewRegistry()
	globalManager  = NewManager(WithPrometheusRegistry(customRegistry))
)

// NewManager creates and registers the metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "skatepark",
		subsystem:        "sim",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	if buckets == nil {
		buckets = m.histogramBuckets
	}
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels, Buckets: buckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)
	msBuckets := []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

	m.sessionsStarted = auto.NewCounterVec(m.counterOpts("sessions_started_total", "Sessions started by kind"), []string{"kind"})
	m.sessionsEnded = auto.NewCounterVec(m.counterOpts("sessions_ended_total", "Sessions ended by kind"), []string{"kind"})
	m.sessionsActive = auto.NewGauge(m.gaugeOpts("sessions_active", "Sessions currently registered and not ended"))
	m.ticks = auto.NewCounter(m.counterOpts("ticks_total", "Ticks resolved"))
	m.tickDuration = auto.NewHistogram(m.histogramOpts("tick_duration_milliseconds", "Wall time of one tick including pacing", msBuckets))
	m.ticksDeduped = auto.NewCounter(m.counterOpts("ticks_deduplicated_total", "Tick requests dropped as repeats of an idempotency key"))

	m.attempts = auto.NewCounterVec(m.counterOpts("attempts_total", "Trick attempts by type and outcome"), []string{"type", "outcome"})
	m.retries = auto.NewCounter(m.counterOpts("retries_total", "Bails queued for a retry"))
	m.noAttempts = auto.NewCounter(m.counterOpts("no_attempts_total", "Runs with nothing attemptable"))
	m.unassigned = auto.NewCounter(m.counterOpts("unassigned_total", "Active skaters left without a starting spot"))
	m.points = auto.NewHistogram(m.histogramOpts("attempt_points", "Points of landed attempts",
		[]float64{10, 25, 50, 100, 200, 400, 800, 1600}))

	m.librarySpend = auto.NewHistogramVec(m.histogramOpts("library_spend", "Points spent building a skater library",
		[]float64{10, 25, 50, 100, 200, 400, 800}), []string{"tier"})

	m.leaderboardUpdates = auto.NewCounter(m.counterOpts("leaderboard_updates_total", "All-time leaderboard updates"))
	m.leaderboardSkaters = auto.NewGauge(m.gaugeOpts("leaderboard_skaters", "Skaters on the all-time leaderboard"))
	m.archiveWrites = auto.NewCounter(m.counterOpts("archive_writes_total", "Sessions written to the archive"))
	m.archiveLatency = auto.NewHistogram(m.histogramOpts("archive_write_latency_milliseconds", "Archive write latency", msBuckets))

	m.batchJobs = auto.NewCounterVec(m.counterOpts("batch_jobs_total", "Batch simulation jobs by status"), []string{"status"})
	m.batchQueueDepth = auto.NewGauge(m.gaugeOpts("batch_queue_depth", "Jobs waiting in the batch queue"))
	m.batchWorkers = auto.NewGauge(m.gaugeOpts("batch_workers_active", "Batch workers currently running a job"))
	m.batchJobDuration = auto.NewHistogram(m.histogramOpts("batch_job_duration_milliseconds", "Wall time of one batch job", msBuckets))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration", nil),
		[]string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"})
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

// SessionStarted counts a new session.
func (m *Manager) SessionStarted(kind string) {
	if m.enabled {
		m.sessionsStarted.WithLabelValues(kind).Inc()
		m.sessionsActive.Inc()
	}
}

// SessionEnded counts an ended session.
func (m *Manager) SessionEnded(kind string) {
	if m.enabled {
		m.sessionsEnded.WithLabelValues(kind).Inc()
		m.sessionsActive.Dec()
	}
}

// Tick records one resolved tick.
func (m *Manager) Tick(d time.Duration) {
	if m.enabled {
		m.ticks.Inc()
		m.tickDuration.Observe(ms(d))
	}
}

// TickDeduplicated counts a dropped repeat tick request.
func (m *Manager) TickDeduplicated() {
	if m.enabled {
		m.ticksDeduped.Inc()
	}
}

// Attempt records one attempt record.
func (m *Manager) Attempt(trickType string, landed, retry, noAttempt bool, points int) {
	if !m.enabled {
		return
	}
	if noAttempt {
		m.noAttempts.Inc()
		return
	}
	outcome := "bailed"
	if landed {
		outcome = "landed"
		m.points.Observe(float64(points))
	}
	m.attempts.WithLabelValues(trickType, outcome).Inc()
	if retry {
		m.retries.Inc()
	}
}

// Unassigned counts skaters left without a spot.
func (m *Manager) Unassigned(n int) {
	if m.enabled && n > 0 {
		m.unassigned.Add(float64(n))
	}
}

// LibrarySpend records a generated library's spend.
func (m *Manager) LibrarySpend(tier string, spent int) {
	if m.enabled {
		m.librarySpend.WithLabelValues(tier).Observe(float64(spent))
	}
}

// LeaderboardUpdate records a leaderboard write and its size.
func (m *Manager) LeaderboardUpdate(size int) {
	if m.enabled {
		m.leaderboardUpdates.Inc()
		m.leaderboardSkaters.Set(float64(size))
	}
}

// ArchiveWrite records an archive write.
func (m *Manager) ArchiveWrite(d time.Duration) {
	if m.enabled {
		m.archiveWrites.Inc()
		m.archiveLatency.Observe(ms(d))
	}
}

// BatchJob records a finished batch job.
func (m *Manager) BatchJob(status string, d time.Duration) {
	if m.enabled {
		m.batchJobs.WithLabelValues(status).Inc()
		m.batchJobDuration.Observe(ms(d))
	}
}

// BatchQueueDepth sets the batch backlog.
func (m *Manager) BatchQueueDepth(n int) {
	if m.enabled {
		m.batchQueueDepth.Set(float64(n))
	}
}

// BatchWorkersActive sets the number of busy workers.
func (m *Manager) BatchWorkersActive(n int) {
	if m.enabled {
		m.batchWorkers.Set(float64(n))
	}
}

// HTTPRequest records an HTTP request and its duration.
func (m *Manager) HTTPRequest(endpoint, method, statusCode string, d time.Duration) {
	if m.enabled {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms(d))
	}
}

// Error counts an error for a component.
func (m *Manager) Error(component, errorType string) {
	if m.enabled {
		m.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// Default returns the process-wide manager registered on GetRegistry.
func Default() *Manager { return globalManager }

// GetRegistry returns the registry behind the process-wide manager.
func GetRegistry() *prometheus.Registry { return customRegistry }

// Package-level shorthands for the process-wide manager.

func RecordSessionStarted(kind string) { globalManager.SessionStarted(kind) }
func RecordSessionEnded(kind string)   { globalManager.SessionEnded(kind) }
func RecordTick(d time.Duration)       { globalManager.Tick(d) }
func RecordTickDeduplicated()          { globalManager.TickDeduplicated() }
func RecordUnassigned(n int)           { globalManager.Unassigned(n) }
func RecordError(component, errorType string) {
	globalManager.Error(component, errorType)
}
func RecordHTTPRequest(endpoint, method, statusCode string, d time.Duration) {
	globalManager.HTTPRequest(endpoint, method, statusCode, d)
}
