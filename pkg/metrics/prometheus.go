// Package metrics provides Prometheus metrics for the model serving service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Prediction metrics
	predictions       *prometheus.CounterVec
	fallbacks         *prometheus.CounterVec
	inferenceLatency  *prometheus.HistogramVec
	trainingRuns      *prometheus.CounterVec
	trainingDuration  prometheus.Histogram
	modelLoaded       *prometheus.GaugeVec
	cacheLookups      *prometheus.CounterVec
	uploadBytes       prometheus.Histogram
	recordsPersisted  prometheus.Counter
	recordsDropped    prometheus.Counter
	recordQueueSize   prometheus.Gauge
	recordWorkerError prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegisterer(customRegistry))
}

// Configure rebuilds the process-wide metrics from opts on a fresh registry
// and returns it. Call it at startup, before anything records a metric.
func Configure(opts ...Option) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	globalManager = NewManager(append(append([]Option(nil), opts...), WithRegisterer(reg))...)
	customRegistry = reg
	return reg
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "agri",
		subsystem:        "serving",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.predictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "predictions_total",
		Help:      "Predictions served, by kind (yield, disease) and source (model, fallback, placeholder, cache)",
	}, []string{"kind", "source"})

	m.fallbacks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fallbacks_total",
		Help:      "Requests answered without a trained model, by kind and reason",
	}, []string{"kind", "reason"})

	m.inferenceLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "inference_latency_milliseconds",
		Help:      "Model forward-pass latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"kind"})

	m.trainingRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "training_runs_total",
		Help:      "Tabular training executions by outcome",
	}, []string{"outcome"})

	m.trainingDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "training_duration_milliseconds",
		Help:      "Duration of tabular training runs in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.modelLoaded = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "model_loaded",
		Help:      "1 when the named model snapshot is loaded",
	}, []string{"model"})

	m.cacheLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_lookups_total",
		Help:      "Disease result cache lookups by result (hit, miss, error)",
	}, []string{"result"})

	m.uploadBytes = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upload_bytes",
		Help:      "Size of uploaded images in bytes",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
	})

	m.recordsPersisted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_persisted_total",
		Help:      "Prediction records written by the recorder workers",
	})

	m.recordsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_dropped_total",
		Help:      "Prediction records dropped because the record queue was full or closed",
	})

	m.recordQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "record_queue_size",
		Help:      "Current number of prediction records waiting to be persisted",
	})

	m.recordWorkerError = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "record_worker_errors_total",
		Help:      "Recorder write failures",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_type_total",
		Help:      "Errors by type and severity",
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "Errors by endpoint, method and type",
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_usage_bytes",
		Help:      "Heap bytes allocated",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutines",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "gc_pause_milliseconds",
		Help:      "Average GC pause time in milliseconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50},
	})
}

// Prediction Metrics Functions.

// RecordPrediction counts a served prediction.
func RecordPrediction(kind, source string) {
	globalManager.predictions.WithLabelValues(kind, source).Inc()
}

// RecordFallback counts a request answered without a trained model.
func RecordFallback(kind, reason string) {
	globalManager.fallbacks.WithLabelValues(kind, reason).Inc()
}

// RecordInferenceLatency records a forward-pass latency.
func RecordInferenceLatency(kind string, latencyMs float64) {
	globalManager.inferenceLatency.WithLabelValues(kind).Observe(latencyMs)
}

// RecordTrainingRun counts a training execution and its duration.
func RecordTrainingRun(outcome string, durationMs float64) {
	globalManager.trainingRuns.WithLabelValues(outcome).Inc()
	globalManager.trainingDuration.Observe(durationMs)
}

// SetModelLoaded flags whether a model snapshot is loaded.
func SetModelLoaded(model string, loaded bool) {
	v := 0.0
	if loaded {
		v = 1
	}
	globalManager.modelLoaded.WithLabelValues(model).Set(v)
}

// RecordCacheLookup counts a cache lookup result.
func RecordCacheLookup(result string) {
	globalManager.cacheLookups.WithLabelValues(result).Inc()
}

// RecordUploadBytes observes the size of an uploaded image.
func RecordUploadBytes(n int) {
	globalManager.uploadBytes.Observe(float64(n))
}

// Record Queue Metrics Functions.

// RecordRecordPersisted counts a record written by a worker.
func RecordRecordPersisted() {
	globalManager.recordsPersisted.Inc()
}

// RecordRecordDropped counts a record that never reached the queue.
func RecordRecordDropped() {
	globalManager.recordsDropped.Inc()
}

// UpdateRecordQueueSize sets the record queue backlog.
func UpdateRecordQueueSize(size int) {
	globalManager.recordQueueSize.Set(float64(size))
}

// RecordWorkerError increments the recorder worker error counter.
func RecordWorkerError() {
	globalManager.recordWorkerError.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
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
