package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. Each instance owns its registry
// so servers built in tests do not collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Storage metrics
	FilesUploaded   *prometheus.CounterVec
	BytesUploaded   prometheus.Counter
	BatchSize       prometheus.Histogram
	EntriesDeleted  *prometheus.CounterVec
	ConflictChecks  prometheus.Counter
	ConflictsFound  prometheus.Counter
	ListingSkipped  prometheus.Counter
	OpDuration      *prometheus.HistogramVec
	FilesDownloaded prometheus.Counter

	startTime time.Time

	// Snapshot for the health endpoint
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds running totals reported by GET /health.
type Snapshot struct {
	TotalRequests int64   `json:"totalRequests"`
	TotalErrors   int64   `json:"totalErrors"`
	FilesUploaded int64   `json:"filesUploaded"`
	BytesUploaded int64   `json:"bytesUploaded"`
	Deleted       int64   `json:"deleted"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// NewMetrics creates a metrics collector with its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "landrop_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "landrop_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "landrop_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "landrop_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		FilesUploaded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "landrop_files_uploaded_total",
				Help: "Uploaded file parts by outcome",
			},
			[]string{"result"},
		),
		BytesUploaded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "landrop_uploaded_bytes_total",
				Help: "Bytes written by successful uploads",
			},
		),
		BatchSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "landrop_upload_batch_files",
				Help:    "Number of file parts per upload request",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 1000},
			},
		),
		EntriesDeleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "landrop_entries_deleted_total",
				Help: "Deleted entries by type",
			},
			[]string{"type"},
		),
		ConflictChecks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "landrop_conflict_checks_total",
				Help: "Conflict check requests",
			},
		),
		ConflictsFound: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "landrop_conflicts_found_total",
				Help: "Candidate paths reported as existing",
			},
		),
		ListingSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "landrop_listing_skipped_total",
				Help: "Unreadable entries skipped while building listings",
			},
		),
		OpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "landrop_storage_operation_duration_seconds",
				Help:    "Storage operation duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation", "status"},
		),
		FilesDownloaded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "landrop_files_downloaded_total",
				Help: "Downloads started",
			},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "landrop_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordUpload records the outcome of one upload request. failed is the
// number of parts that were rejected (0 or 1, a batch stops at the first
// failure).
func (m *Metrics) RecordUpload(stored int, bytes int64, failed int) {
	m.BatchSize.Observe(float64(stored + failed))
	if stored > 0 {
		m.FilesUploaded.WithLabelValues("success").Add(float64(stored))
		m.BytesUploaded.Add(float64(bytes))
	}
	if failed > 0 {
		m.FilesUploaded.WithLabelValues("error").Add(float64(failed))
	}

	m.mu.Lock()
	m.snapshot.FilesUploaded += int64(stored)
	m.snapshot.BytesUploaded += bytes
	m.mu.Unlock()
}

// RecordDelete records a deleted entry of the given type.
func (m *Metrics) RecordDelete(entryType string) {
	m.EntriesDeleted.WithLabelValues(entryType).Inc()

	m.mu.Lock()
	m.snapshot.Deleted++
	m.mu.Unlock()
}

// RecordConflictCheck records one check and how many conflicts it found.
func (m *Metrics) RecordConflictCheck(found int) {
	m.ConflictChecks.Inc()
	m.ConflictsFound.Add(float64(found))
}

// RecordListing records how many entries a listing had to skip.
func (m *Metrics) RecordListing(skipped int) {
	m.ListingSkipped.Add(float64(skipped))
}

// RecordDownload counts a download that started streaming.
func (m *Metrics) RecordDownload() {
	m.FilesDownloaded.Inc()
}

// Snapshot returns the running totals.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snapshot
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	return snap
}
