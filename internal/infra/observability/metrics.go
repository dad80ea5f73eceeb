package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the analytics service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can serve it.
	Registry *prometheus.Registry

	ingestDuration *prometheus.HistogramVec
	rowsIngested   prometheus.Counter
	rowsDropped    *prometheus.CounterVec
	queryDuration  *prometheus.HistogramVec
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	externalErrors *prometheus.CounterVec
	requestsTotal  *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		ingestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "insight_ingest_duration_seconds",
				Help:    "Duration of dataset cleaning by source.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		rowsIngested: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "insight_rows_ingested_total",
				Help: "Total rows retained after cleaning.",
			},
		),
		rowsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_rows_dropped_total",
				Help: "Total rows dropped during cleaning, by reason.",
			},
			[]string{"reason"},
		),
		queryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "insight_query_duration_seconds",
				Help:    "Duration of aggregate queries by view.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"view"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_external_errors_total",
				Help: "Total errors from remote dataset hosts.",
			},
			[]string{"service"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insight_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordIngestDuration records how long a cleaning pass took.
func (m *Metrics) RecordIngestDuration(source string, d time.Duration) {
	m.ingestDuration.WithLabelValues(source).Observe(d.Seconds())
}

// RecordCleanedRows records the kept and dropped row counts of one
// cleaning pass.
func (m *Metrics) RecordCleanedRows(kept, unsuccessful, badDate, badAmount int) {
	m.rowsIngested.Add(float64(kept))
	m.rowsDropped.WithLabelValues("unsuccessful").Add(float64(unsuccessful))
	m.rowsDropped.WithLabelValues("bad_date").Add(float64(badDate))
	m.rowsDropped.WithLabelValues("bad_amount").Add(float64(badAmount))
}

// RecordQueryDuration records the duration of an aggregate query.
func (m *Metrics) RecordQueryDuration(view string, d time.Duration) {
	m.queryDuration.WithLabelValues(view).Observe(d.Seconds())
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// DroppedRows returns the cumulative dropped-row count for a reason,
// so tests can assert the drop accounting without scraping /metrics.
func (m *Metrics) DroppedRows(reason string) float64 {
	return getCounterValue(m.rowsDropped, reason)
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
