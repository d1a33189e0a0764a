package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics contains all Prometheus metrics for the balance history service
type PrometheusMetrics struct {
	// Snapshot resolution metrics
	SnapshotsResolvedTotal *prometheus.CounterVec
	ResolveDuration        prometheus.Histogram
	TokensPerChartRequest  prometheus.Histogram

	// Export metrics
	ExportRowsTotal    prometheus.Counter
	ExportDuration     prometheus.Histogram
	RecordsFilteredOut prometheus.Counter

	// Ledger metrics
	LedgerRecordsLoaded      prometheus.Histogram
	IntegrityViolationsTotal prometheus.Counter

	// Storage metrics
	DatabaseOperationsTotal   *prometheus.CounterVec
	DatabaseOperationDuration *prometheus.HistogramVec

	// API metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Application health metrics
	ApplicationUptime prometheus.Gauge
	ComponentHealth   *prometheus.GaugeVec
	MemoryUsage       prometheus.Gauge
	GoroutineCount    prometheus.Gauge
}

// NewPrometheusMetrics creates and registers all Prometheus metrics
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		SnapshotsResolvedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "balance_history_snapshots_resolved_total",
				Help: "Total number of balance snapshots resolved",
			},
			[]string{"granularity"},
		),

		ResolveDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "balance_history_resolve_duration_seconds",
				Help:    "Time spent resolving a chart request across all tokens",
				Buckets: prometheus.DefBuckets,
			},
		),

		TokensPerChartRequest: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "balance_history_tokens_per_chart_request",
				Help:    "Number of tokens resolved per chart request",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
			},
		),

		ExportRowsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "balance_history_export_rows_total",
				Help: "Total number of CSV export rows written",
			},
		),

		ExportDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "balance_history_export_duration_seconds",
				Help:    "Time spent building and writing a CSV export",
				Buckets: prometheus.DefBuckets,
			},
		),

		RecordsFilteredOut: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "balance_history_export_records_filtered_total",
				Help: "Total number of structural ledger records excluded from exports",
			},
		),

		LedgerRecordsLoaded: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "balance_history_ledger_records_loaded",
				Help:    "Number of ledger records loaded per request",
				Buckets: []float64{10, 100, 1000, 10000, 100000},
			},
		),

		IntegrityViolationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "balance_history_integrity_violations_total",
				Help: "Total number of ledger chain inconsistencies detected",
			},
		),

		DatabaseOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "balance_history_database_operations_total",
				Help: "Total number of database operations",
			},
			[]string{"operation", "status"},
		),

		DatabaseOperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "balance_history_database_operation_duration_seconds",
				Help:    "Time spent on database operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "balance_history_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "balance_history_http_request_duration_seconds",
				Help:    "Time spent handling HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		ApplicationUptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "balance_history_uptime_seconds",
				Help: "Application uptime in seconds",
			},
		),

		ComponentHealth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "balance_history_component_health",
				Help: "Component health status (1 = healthy, 0 = unhealthy)",
			},
			[]string{"component"},
		),

		MemoryUsage: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "balance_history_memory_usage_bytes",
				Help: "Current memory usage in bytes",
			},
		),

		GoroutineCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "balance_history_goroutines",
				Help: "Current number of goroutines",
			},
		),
	}
}

// RecordSnapshotsResolved increments the snapshot counter for a granularity
func (m *PrometheusMetrics) RecordSnapshotsResolved(granularity string, count int) {
	m.SnapshotsResolvedTotal.WithLabelValues(granularity).Add(float64(count))
}

// RecordResolveDuration records chart resolution time
func (m *PrometheusMetrics) RecordResolveDuration(duration time.Duration) {
	m.ResolveDuration.Observe(duration.Seconds())
}

// RecordChartTokens records the token fan-out of a chart request
func (m *PrometheusMetrics) RecordChartTokens(count int) {
	m.TokensPerChartRequest.Observe(float64(count))
}

// RecordExport records export size and duration
func (m *PrometheusMetrics) RecordExport(rows, filtered int, duration time.Duration) {
	m.ExportRowsTotal.Add(float64(rows))
	m.RecordsFilteredOut.Add(float64(filtered))
	m.ExportDuration.Observe(duration.Seconds())
}

// RecordLedgerLoad records how many records a request loaded
func (m *PrometheusMetrics) RecordLedgerLoad(count int) {
	m.LedgerRecordsLoaded.Observe(float64(count))
}

// RecordIntegrityViolations increments the inconsistency counter
func (m *PrometheusMetrics) RecordIntegrityViolations(count int) {
	m.IntegrityViolationsTotal.Add(float64(count))
}

// RecordDatabaseOperation records a database operation
func (m *PrometheusMetrics) RecordDatabaseOperation(operation, status string, duration time.Duration) {
	m.DatabaseOperationsTotal.WithLabelValues(operation, status).Inc()
	m.DatabaseOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *PrometheusMetrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpdateApplicationUptime updates the uptime gauge
func (m *PrometheusMetrics) UpdateApplicationUptime(startTime time.Time) {
	m.ApplicationUptime.Set(time.Since(startTime).Seconds())
}

// UpdateComponentHealth updates a component health gauge
func (m *PrometheusMetrics) UpdateComponentHealth(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.ComponentHealth.WithLabelValues(component).Set(value)
}

// UpdateMemoryUsage updates the memory usage gauge
func (m *PrometheusMetrics) UpdateMemoryUsage(bytes uint64) {
	m.MemoryUsage.Set(float64(bytes))
}

// UpdateGoroutineCount updates the goroutine count gauge
func (m *PrometheusMetrics) UpdateGoroutineCount(count int) {
	m.GoroutineCount.Set(float64(count))
}
