package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Scraper metrics
	ScraperRequestsTotal   *prometheus.CounterVec
	ScraperDurationSeconds *prometheus.HistogramVec

	// Rate limiter metrics
	RateLimiterWaitDuration prometheus.Histogram

	// Singleflight metrics
	SingleflightDedupTotal prometheus.Counter

	// Seed metrics
	SeedClassesTotal       *prometheus.CounterVec
	SeedLessonsTotal       prometheus.Counter
	SeedRowsRejectedTotal  prometheus.Counter
	SeedSlotsRejectedTotal *prometheus.CounterVec
	SeedDuration           prometheus.Histogram
	SeedLastSuccess        prometheus.Gauge

	// Snapshot metrics
	SnapshotTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPDurationSeconds *prometheus.HistogramVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// Scraper metrics
		ScraperRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "timetable_scraper_requests_total",
				Help: "Total number of page fetches by page kind and status",
			},
			[]string{"kind", "status"}, // kind: index, class, notices; status: success, error, timeout
		),

		ScraperDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "timetable_scraper_duration_seconds",
				Help:    "Page fetch duration in seconds by page kind",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10}, // Matches 10s fetch timeout
			},
			[]string{"kind"},
		),

		RateLimiterWaitDuration: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "timetable_rate_limiter_wait_duration_seconds",
				Help:    "Time spent waiting for a scraper rate limiter token",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
		),

		SingleflightDedupTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "timetable_singleflight_dedup_total",
				Help: "Total number of fetches that shared an in-flight request for the same URL",
			},
		),

		// Seed metrics
		SeedClassesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "timetable_seed_classes_total",
				Help: "Total number of classes processed by outcome",
			},
			[]string{"status"}, // status: seeded, skipped
		),

		SeedLessonsTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "timetable_seed_lessons_total",
				Help: "Total number of lessons persisted",
			},
		),

		SeedRowsRejectedTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "timetable_seed_rows_rejected_total",
				Help: "Total number of rows dropped for an unparseable start time",
			},
		),

		SeedSlotsRejectedTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "timetable_seed_slots_rejected_total",
				Help: "Total number of cells dropped by reason",
			},
			[]string{"reason"}, // reason: insufficient_tokens, missing_subject, missing_teacher, day_out_of_range
		),

		SeedDuration: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "timetable_seed_duration_seconds",
				Help:    "Total duration of a seed run",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),

		SeedLastSuccess: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "timetable_seed_last_success_timestamp_seconds",
				Help: "Unix time of the last seed run that completed",
			},
		),

		SnapshotTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "timetable_snapshot_operations_total",
				Help: "Total number of snapshot operations by operation and status",
			},
			[]string{"operation", "status"}, // operation: upload, download
		),

		// HTTP metrics
		HTTPRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "timetable_http_requests_total",
				Help: "Total API requests by route and status code",
			},
			[]string{"method", "route", "code"},
		),

		HTTPDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "timetable_http_duration_seconds",
				Help:    "API request duration in seconds by route",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"route"},
		),
	}

	return m
}

// RecordScraperRequest records a page fetch with status
func (m *Metrics) RecordScraperRequest(kind, status string, duration float64) {
	m.ScraperRequestsTotal.WithLabelValues(kind, status).Inc()
	m.ScraperDurationSeconds.WithLabelValues(kind).Observe(duration)
}

// RecordRateLimiterWait records time spent waiting for the rate limiter
func (m *Metrics) RecordRateLimiterWait(duration float64) {
	m.RateLimiterWaitDuration.Observe(duration)
}

// RecordSingleflightDedup records a deduplicated fetch
func (m *Metrics) RecordSingleflightDedup() {
	m.SingleflightDedupTotal.Inc()
}

// RecordClass records the outcome of one class
func (m *Metrics) RecordClass(status string, lessons int) {
	m.SeedClassesTotal.WithLabelValues(status).Inc()
	if lessons > 0 {
		m.SeedLessonsTotal.Add(float64(lessons))
	}
}

// RecordRejectedRows records rows dropped for an unparseable start time
func (m *Metrics) RecordRejectedRows(n int) {
	if n > 0 {
		m.SeedRowsRejectedTotal.Add(float64(n))
	}
}

// RecordRejectedSlot records a dropped cell
func (m *Metrics) RecordRejectedSlot(reason string) {
	m.SeedSlotsRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordSeedRun records a finished seed run
func (m *Metrics) RecordSeedRun(duration float64, completedAt float64) {
	m.SeedDuration.Observe(duration)
	m.SeedLastSuccess.Set(completedAt)
}

// RecordSnapshot records a snapshot upload or download
func (m *Metrics) RecordSnapshot(operation, status string) {
	m.SnapshotTotal.WithLabelValues(operation, status).Inc()
}

// RecordHTTPRequest records an API request
func (m *Metrics) RecordHTTPRequest(method, route, code string, duration float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, code).Inc()
	m.HTTPDurationSeconds.WithLabelValues(route).Observe(duration)
}
