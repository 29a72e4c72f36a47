// Package metrics provides Prometheus metrics for the contest leaderboard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Fetch result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Manager manages all Prometheus metrics for the contest service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	fetchBuckets     []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Source sheet
	sourceFetches      *prometheus.CounterVec
	sourceFetchLatency prometheus.Histogram
	sourceLastLoadUnix prometheus.Gauge
	recordsLoaded      prometheus.Gauge
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	schemaMissing      prometheus.Gauge

	// Leaderboards
	eligibleStandings *prometheus.GaugeVec
	fullAchievers     *prometheus.GaugeVec
	rankingLatency    *prometheus.HistogramVec
	exportsGenerated  *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure replaces the global manager with one built from opts on a fresh
// registry. Call it once at startup, before GetRegistry is handed to a handler
// and before anything records.
func Configure(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(customRegistry)}, opts...)...)
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "contest",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		fetchBuckets:     []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 15000},
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

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics on the configured registry.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.sourceFetches = auto.NewCounterVec(
		m.counterOpts("source_fetches_total", "Total number of source sheet fetches by result"),
		[]string{"result"},
	)
	m.sourceFetchLatency = auto.NewHistogram(
		m.histogramOpts("source_fetch_latency_milliseconds", "Source sheet fetch latency in milliseconds", m.fetchBuckets),
	)
	m.sourceLastLoadUnix = auto.NewGauge(
		m.gaugeOpts("source_last_load_unix", "Unix timestamp of the last successful source load"),
	)
	m.recordsLoaded = auto.NewGauge(
		m.gaugeOpts("records_loaded", "Number of records in the current source snapshot"),
	)
	m.cacheHits = auto.NewCounter(
		m.counterOpts("cache_hits_total", "Requests served from the memoized source document"),
	)
	m.cacheMisses = auto.NewCounter(
		m.counterOpts("cache_misses_total", "Requests that required a source fetch"),
	)
	m.schemaMissing = auto.NewGauge(
		m.gaugeOpts("schema_missing_columns", "Number of expected columns absent from the source header"),
	)

	m.eligibleStandings = auto.NewGaugeVec(
		m.gaugeOpts("eligible_employees", "Employees with a positive business target per contest"),
		[]string{"contest"},
	)
	m.fullAchievers = auto.NewGaugeVec(
		m.gaugeOpts("full_achievers", "Employees who met both targets per contest"),
		[]string{"contest"},
	)
	m.rankingLatency = auto.NewHistogramVec(
		m.histogramOpts("ranking_latency_milliseconds", "Time to score and rank a contest in milliseconds", m.histogramBuckets),
		[]string{"contest"},
	)
	m.exportsGenerated = auto.NewCounterVec(
		m.counterOpts("exports_total", "Spreadsheet exports generated per contest"),
		[]string{"contest"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(
		m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"),
	)
	m.systemGoroutineCount = auto.NewGauge(
		m.gaugeOpts("system_goroutine_count", "Number of goroutines"),
	)
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordSourceFetch records one fetch of the source sheet.
func RecordSourceFetch(latencyMs float64, success bool) {
	if !recording() {
		return
	}
	result := ResultFailure
	if success {
		result = ResultSuccess
		globalManager.sourceLastLoadUnix.SetToCurrentTime()
	}
	globalManager.sourceFetches.WithLabelValues(result).Inc()
	globalManager.sourceFetchLatency.Observe(latencyMs)
}

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	if !recording() {
		return
	}
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	if !recording() {
		return
	}
	globalManager.cacheMisses.Inc()
}

// UpdateRecordsLoaded sets the number of records in the current snapshot.
func UpdateRecordsLoaded(count int) {
	if !recording() {
		return
	}
	globalManager.recordsLoaded.Set(float64(count))
}

// UpdateSchemaMissingColumns sets how many expected columns the header lacked.
func UpdateSchemaMissingColumns(count int) {
	if !recording() {
		return
	}
	globalManager.schemaMissing.Set(float64(count))
}

// UpdateContestStandings sets the eligible and full achiever counts for a contest.
func UpdateContestStandings(contest string, eligible, fullAchievers int) {
	if !recording() {
		return
	}
	globalManager.eligibleStandings.WithLabelValues(contest).Set(float64(eligible))
	globalManager.fullAchievers.WithLabelValues(contest).Set(float64(fullAchievers))
}

// RecordRankingLatency records the time spent ranking a contest.
func RecordRankingLatency(contest string, latencyMs float64) {
	if !recording() {
		return
	}
	globalManager.rankingLatency.WithLabelValues(contest).Observe(latencyMs)
}

// RecordExport increments the export counter for a contest.
func RecordExport(contest string) {
	if !recording() {
		return
	}
	globalManager.exportsGenerated.WithLabelValues(contest).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !recording() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !recording() {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !recording() {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	if !recording() {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !recording() {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if !recording() {
		return
	}
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !recording() {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if !recording() {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !recording() {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// recording reports whether the global manager accepts observations.
func recording() bool {
	return globalManager.enabled
}

// SetEnabled turns recording on or off for the global manager.
func SetEnabled(enabled bool) {
	globalManager.enabled = enabled
}

// RefreshInterval returns how often system gauges should be sampled.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
