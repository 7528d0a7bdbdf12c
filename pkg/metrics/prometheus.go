// Package metrics provides Prometheus metrics for the cogtrain service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Adaptive difficulty
	difficultySelections *prometheus.CounterVec
	selectorFallbacks    *prometheus.CounterVec
	banditUpdates        *prometheus.CounterVec

	// Scores
	scoresSubmitted      *prometheus.CounterVec
	duplicateSubmissions prometheus.Counter

	// Schedules
	scheduleBuilds    *prometheus.CounterVec
	scheduleRepairs   *prometheus.CounterVec
	generatorFailures *prometheus.CounterVec
	generatorLatency  prometheus.Histogram
	completions       *prometheus.CounterVec

	// Outcome queue and workers
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueRejected    *prometheus.CounterVec
	workerCount      prometheus.Gauge
	workerErrors     prometheus.Counter
	workerLatency    prometheus.Histogram
	storeOpLatency   *prometheus.HistogramVec
	storeErrors      *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpErrorsByType *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegisterer(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "cogtrain",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.difficultySelections = m.counterVec("difficulty_selections_total",
		"Difficulty recommendations by game, context bucket, action and whether the choice explored",
		"game", "context", "action", "explored")
	m.selectorFallbacks = m.counterVec("selector_fallbacks_total",
		"Random difficulty choices made because bandit state could not be read", "reason")
	m.banditUpdates = m.counterVec("bandit_updates_total",
		"Bandit arm updates by game and reward", "game", "reward")

	m.scoresSubmitted = m.counterVec("scores_submitted_total",
		"Score submissions by game and mode (practice or assessment)", "game", "mode")
	m.duplicateSubmissions = m.counter("scores_duplicate_total",
		"Score submissions dropped because their submission id was already seen")

	m.scheduleBuilds = m.counterVec("schedule_builds_total",
		"Schedules persisted by source (generator or fallback)", "source")
	m.scheduleRepairs = m.counterVec("schedule_repairs_total",
		"Structural repairs applied by the schedule normalizer", "kind")
	m.generatorFailures = m.counterVec("generator_failures_total",
		"External schedule generation attempts that were discarded", "reason")
	m.generatorLatency = m.histogram("generator_latency_seconds",
		"Latency of external schedule generation calls in seconds")
	m.completions = m.counterVec("schedule_completions_total",
		"Completion tracker calls by game and whether a new snapshot was written", "game", "changed")

	m.queueSize = m.gauge("outcome_queue_size", "Outcomes waiting to be applied")
	m.queueCapacity = m.gauge("outcome_queue_capacity", "Outcome queue capacity")
	m.queueEnqueued = m.counter("outcome_queue_enqueued_total", "Outcomes accepted by the queue")
	m.queueRejected = m.counterVec("outcome_queue_rejected_total", "Outcomes rejected by the queue", "reason")
	m.workerCount = m.gauge("outcome_workers", "Outcome workers running")
	m.workerErrors = m.counter("outcome_worker_errors_total", "Outcomes a worker failed to apply")
	m.workerLatency = m.histogram("outcome_apply_seconds", "Time to apply one outcome in seconds")

	m.storeOpLatency = m.histogramVec("store_operation_seconds", "Store operation latency in seconds", "op")
	m.storeErrors = m.counterVec("store_errors_total", "Store operation failures", "op")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests", "endpoint", "method", "status")
	m.httpDuration = m.histogramVec("http_request_duration_seconds", "HTTP request duration in seconds", "endpoint", "method", "status")
	m.httpErrorsByType = m.counterVec("http_errors_total", "HTTP error responses by endpoint and type", "endpoint", "type")
}

// RecordDifficultySelection counts one difficulty recommendation.
func RecordDifficultySelection(game, context, action string, explored bool) {
	globalManager.difficultySelections.WithLabelValues(game, context, action, strconv.FormatBool(explored)).Inc()
}

// RecordSelectorFallback counts a fail-closed random selection.
func RecordSelectorFallback(reason string) {
	globalManager.selectorFallbacks.WithLabelValues(reason).Inc()
}

// RecordBanditUpdate counts an arm update.
func RecordBanditUpdate(game string, reward float64) {
	globalManager.banditUpdates.WithLabelValues(game, strconv.FormatFloat(reward, 'f', -1, 64)).Inc()
}

// RecordScoreSubmitted counts a persisted score.
func RecordScoreSubmitted(game, mode string) {
	globalManager.scoresSubmitted.WithLabelValues(game, mode).Inc()
}

// RecordDuplicateSubmission counts a deduplicated score submission.
func RecordDuplicateSubmission() {
	globalManager.duplicateSubmissions.Inc()
}

// RecordScheduleBuild counts a persisted schedule by source.
func RecordScheduleBuild(source string) {
	globalManager.scheduleBuilds.WithLabelValues(source).Inc()
}

// RecordScheduleRepair counts one normalizer repair kind.
func RecordScheduleRepair(kind string) {
	globalManager.scheduleRepairs.WithLabelValues(kind).Inc()
}

// RecordGeneratorFailure counts a discarded generator attempt.
func RecordGeneratorFailure(reason string) {
	globalManager.generatorFailures.WithLabelValues(reason).Inc()
}

// RecordGeneratorLatency observes a generator call duration.
func RecordGeneratorLatency(d time.Duration) {
	globalManager.generatorLatency.Observe(d.Seconds())
}

// RecordCompletion counts a completion tracker call.
func RecordCompletion(game string, changed bool) {
	globalManager.completions.WithLabelValues(game, strconv.FormatBool(changed)).Inc()
}

// UpdateQueueSize sets the current outcome queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the outcome queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts an accepted outcome.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueRejected counts a rejected outcome.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the number of running outcome workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerError counts an outcome that failed to apply.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordWorkerLatency observes the time spent applying one outcome.
func RecordWorkerLatency(d time.Duration) {
	globalManager.workerLatency.Observe(d.Seconds())
}

// RecordStoreOperation observes a store call and counts it as failed when err is set.
func RecordStoreOperation(op string, start time.Time, err error) {
	globalManager.storeOpLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		globalManager.storeErrors.WithLabelValues(op).Inc()
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in seconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, d time.Duration) {
	globalManager.httpDuration.WithLabelValues(endpoint, method, statusCode).Observe(d.Seconds())
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, errorType string) {
	globalManager.httpErrorsByType.WithLabelValues(endpoint, errorType).Inc()
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
