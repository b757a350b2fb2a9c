package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Engine metrics
	Extractions        *prometheus.CounterVec
	ExtractionDuration *prometheus.HistogramVec
	Scripts            *prometheus.CounterVec
	Fetches            *prometheus.CounterVec
	CompiledRules      prometheus.Gauge

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values for the JSON stats API
type Snapshot struct {
	TotalRequests    int64   `json:"totalRequests"`
	TotalErrors      int64   `json:"totalErrors"`
	Extractions      int64   `json:"extractions"`
	ExtractionErrors int64   `json:"extractionErrors"`
	ScriptErrors     int64   `json:"scriptErrors"`
	Fetches          int64   `json:"fetches"`
	TotalDuration    float64 `json:"-"`
	RequestCount     int64   `json:"-"`
}

// NewMetrics registers the collectors with reg. Pass
// prometheus.DefaultRegisterer to expose them on /metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rulekit_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rulekit_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rulekit_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rulekit_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Engine metrics
		Extractions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rulekit_extractions_total",
				Help: "Total number of rule evaluations",
			},
			[]string{"op", "mode", "status"},
		),
		ExtractionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rulekit_extraction_duration_seconds",
				Help:    "Rule evaluation duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"op"},
		),
		Scripts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rulekit_script_evaluations_total",
				Help: "Total number of script stage evaluations",
			},
			[]string{"status"},
		),
		Fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rulekit_fetch_requests_total",
				Help: "Total number of outbound fetches by status code",
			},
			[]string{"status"},
		),
		CompiledRules: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "rulekit_compiled_rules",
				Help: "Number of programs in the compiled-rule cache",
			},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "rulekit_uptime_seconds",
			Help: "Service uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordExtraction records one rule evaluation
func (m *Metrics) RecordExtraction(op, mode, status string, duration time.Duration) {
	m.Extractions.WithLabelValues(op, mode, status).Inc()
	m.ExtractionDuration.WithLabelValues(op).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.Extractions++
	if status == "error" {
		m.snapshot.ExtractionErrors++
	}
	m.mu.Unlock()
}

// RecordScript records one script stage outcome
func (m *Metrics) RecordScript(status string) {
	m.Scripts.WithLabelValues(status).Inc()
	if status == "error" {
		m.mu.Lock()
		m.snapshot.ScriptErrors++
		m.mu.Unlock()
	}
}

// RecordFetch records one outbound fetch by status code, or "error" for
// transport failures
func (m *Metrics) RecordFetch(status string) {
	m.Fetches.WithLabelValues(status).Inc()

	m.mu.Lock()
	m.snapshot.Fetches++
	m.mu.Unlock()
}

// SetCompiledRules sets the compiled-rule cache size
func (m *Metrics) SetCompiledRules(count int) {
	m.CompiledRules.Set(float64(count))
}

// Snapshot returns current values for the JSON stats API
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// AverageLatency returns the mean HTTP request duration
func (m *Metrics) AverageLatency() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snapshot.RequestCount == 0 {
		return 0
	}
	return time.Duration(m.snapshot.TotalDuration / float64(m.snapshot.RequestCount) * float64(time.Second))
}

// Uptime returns the time since the collectors were created
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}
