// Package metrics provides Prometheus metrics for the scout discovery service.
package metrics

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultRefreshInterval = 10 * time.Second

// Manager owns every Prometheus collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	constLabels      map[string]string
	registry         prometheus.Registerer
	collecting       atomic.Bool

	// Listing pipeline
	listingRequests *prometheus.CounterVec
	listingLatency  *prometheus.HistogramVec
	listingMatches  *prometheus.HistogramVec

	// Catalogue
	catalogueContributors prometheus.Gauge
	catalogueProjects     prometheus.Gauge
	cataloguePending      prometheus.Gauge
	datasetReloads        *prometheus.CounterVec

	// Votes and moderation
	votesAccepted  prometheus.Counter
	votesDuplicate prometheus.Counter
	votesRejected  prometheus.Counter
	votesApplied   prometheus.Counter
	suggestions    prometheus.Counter
	moderation     *prometheus.CounterVec

	// Store
	storeLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueued          prometheus.Counter
	queueDequeued          prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// GitHub importer
	githubRequests      *prometheus.CounterVec
	githubRateRemaining prometheus.Gauge

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
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

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scout",
		subsystem:        "discovery",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// Default returns the process-wide manager.
func Default() *Manager {
	return globalManager
}

func (m *Manager) counter(auto promauto.Factory, name, help string) prometheus.Counter {
	return auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(auto promauto.Factory, name, help string, labels ...string) *prometheus.CounterVec {
	return auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(auto promauto.Factory, name, help string) prometheus.Gauge {
	return auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(auto promauto.Factory, name, help string, buckets []float64) prometheus.Histogram {
	return auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) histogramVec(auto promauto.Factory, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	lat := m.histogramBuckets

	m.listingRequests = m.counterVec(auto, "listing_requests_total",
		"Listing pipeline runs by record kind and sort key", "kind", "sort")
	m.listingLatency = m.histogramVec(auto, "listing_latency_milliseconds",
		"Listing pipeline latency in milliseconds", lat, "kind")
	m.listingMatches = m.histogramVec(auto, "listing_matches",
		"Records matching the filters of a listing request",
		[]float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000}, "kind")

	m.catalogueContributors = m.gauge(auto, "catalogue_contributors", "Contributors in the catalogue")
	m.catalogueProjects = m.gauge(auto, "catalogue_projects", "Projects in the catalogue, including pending")
	m.cataloguePending = m.gauge(auto, "catalogue_pending_projects", "Suggested projects awaiting approval")
	m.datasetReloads = m.counterVec(auto, "dataset_reloads_total", "Dataset file reloads by result", "result")

	m.votesAccepted = m.counter(auto, "votes_accepted_total", "Votes accepted onto the queue")
	m.votesDuplicate = m.counter(auto, "votes_duplicate_total", "Votes dropped because their vote_id was seen")
	m.votesRejected = m.counter(auto, "votes_rejected_total", "Votes rejected because the queue was full")
	m.votesApplied = m.counter(auto, "votes_applied_total", "Votes applied to the store")
	m.suggestions = m.counter(auto, "suggestions_total", "Projects suggested by users")
	m.moderation = m.counterVec(auto, "moderation_total", "Moderation decisions by action", "action")

	m.storeLatency = m.histogramVec(auto, "store_operation_latency_milliseconds",
		"Store operation latency in milliseconds", lat, "backend", "op")

	m.httpRequests = m.counterVec(auto, "http_requests_total",
		"HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec(auto, "http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", lat, "endpoint", "method", "status_code")

	m.queueSize = m.gauge(auto, "queue_size", "Votes waiting in the queue")
	m.queueCapacity = m.gauge(auto, "queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge(auto, "queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueued = m.counter(auto, "queue_enqueued_total", "Votes enqueued")
	m.queueDequeued = m.counter(auto, "queue_dequeued_total", "Votes dequeued")
	m.queueEnqueueErrors = m.counter(auto, "queue_enqueue_errors_total", "Failed enqueue attempts")
	m.queueProcessingLatency = m.histogram(auto, "queue_processing_latency_milliseconds",
		"Time a vote spends between enqueue and dequeue", lat)

	m.workerCount = m.gauge(auto, "worker_count", "Configured vote workers")
	m.workerActiveCount = m.gauge(auto, "worker_active_count", "Workers currently applying a vote")
	m.workerIdleCount = m.gauge(auto, "worker_idle_count", "Workers waiting for a vote")
	m.workerProcessingLatency = m.histogram(auto, "worker_processing_latency_milliseconds",
		"Time to apply one vote", lat)
	m.workerErrors = m.counter(auto, "worker_errors_total", "Votes that failed to apply")

	m.githubRequests = m.counterVec(auto, "github_requests_total", "GitHub API requests by outcome", "outcome")
	m.githubRateRemaining = m.gauge(auto, "github_rate_remaining", "Remaining GitHub API requests in the window")

	m.errorsByComponent = m.counterVec(auto, "errors_by_component_total",
		"Errors by component and type", "component", "error_type")
	m.errorsByEndpoint = m.counterVec(auto, "errors_by_endpoint_total",
		"Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge(auto, "system_memory_usage_bytes", "Heap memory in use")
	m.systemGoroutineCount = m.gauge(auto, "system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram(auto, "system_gc_pause_time_milliseconds", "Most recent GC pause",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// StartSystemCollector samples runtime statistics until ctx is done.
func (m *Manager) StartSystemCollector(ctx context.Context) error {
	if !m.collecting.CompareAndSwap(false, true) {
		return ErrCollectorRunning
	}
	go func() {
		defer m.collecting.Store(false)
		ticker := time.NewTicker(m.refreshInterval)
		defer ticker.Stop()
		for {
			m.sampleSystem()
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return nil
}

func (m *Manager) sampleSystem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.systemMemoryUsage.Set(float64(ms.HeapAlloc))
	m.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
	if ms.NumGC > 0 {
		pause := ms.PauseNs[(ms.NumGC+255)%256]
		m.systemGCPauseTime.Observe(float64(pause) / float64(time.Millisecond))
	}
}

// Listing metrics.

// RecordListing records one pipeline run.
func RecordListing(kind, sortKey string, matches int, latencyMs float64) {
	if sortKey == "" {
		sortKey = "none"
	}
	globalManager.listingRequests.WithLabelValues(kind, sortKey).Inc()
	globalManager.listingLatency.WithLabelValues(kind).Observe(latencyMs)
	globalManager.listingMatches.WithLabelValues(kind).Observe(float64(matches))
}

// Catalogue metrics.

// UpdateCatalogue sets the catalogue size gauges.
func UpdateCatalogue(contributors, projects, pending int) {
	globalManager.catalogueContributors.Set(float64(contributors))
	globalManager.catalogueProjects.Set(float64(projects))
	globalManager.cataloguePending.Set(float64(pending))
}

// RecordDatasetReload records a dataset reload with result "ok" or "error".
func RecordDatasetReload(result string) {
	globalManager.datasetReloads.WithLabelValues(result).Inc()
}

// Vote metrics.

// RecordVoteAccepted increments the accepted votes counter.
func RecordVoteAccepted() {
	globalManager.votesAccepted.Inc()
}

// RecordVoteDuplicate increments the duplicate votes counter.
func RecordVoteDuplicate() {
	globalManager.votesDuplicate.Inc()
}

// RecordVoteRejected increments the backpressure rejection counter.
func RecordVoteRejected() {
	globalManager.votesRejected.Inc()
}

// RecordVoteApplied increments the applied votes counter.
func RecordVoteApplied() {
	globalManager.votesApplied.Inc()
}

// RecordSuggestion increments the project suggestion counter.
func RecordSuggestion() {
	globalManager.suggestions.Inc()
}

// RecordModeration records an approve or reject decision.
func RecordModeration(action string) {
	globalManager.moderation.WithLabelValues(action).Inc()
}

// RecordStoreLatency records the latency of a store operation.
func RecordStoreLatency(backend, op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(backend, op).Observe(latencyMs)
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue metrics.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records queue wait time.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// Worker metrics.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(count int) {
	globalManager.workerIdleCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// GitHub metrics.

// RecordGitHubRequest records a GitHub API call with outcome "ok", "error" or "rate_limited".
func RecordGitHubRequest(outcome string) {
	globalManager.githubRequests.WithLabelValues(outcome).Inc()
}

// UpdateGitHubRateRemaining sets the remaining request budget.
func UpdateGitHubRateRemaining(remaining int) {
	globalManager.githubRateRemaining.Set(float64(remaining))
}

// Error metrics.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
