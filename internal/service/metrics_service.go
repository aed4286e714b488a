package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/hrm-case-api/internal/models"
	"github.com/noah-isme/hrm-case-api/pkg/jobs"
)

type queueStats interface {
	Stats() jobs.Stats
}

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec

	reportsSubmitted *prometheus.CounterVec
	reportDecisions  *prometheus.CounterVec
	casesCreated     *prometheus.CounterVec
	geocodeFallbacks prometheus.Counter
	evidenceFailures prometheus.Counter

	historyQueue atomic.Value

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	reportsCount         uint64
	promotedCount        uint64
	fallbackCount        uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	m := &MetricsService{registry: registry}

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	m.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})
	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})
	m.cacheLatency, m.cacheWrite = cacheLatency, cacheWrite

	m.cacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})
	m.cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})
	m.cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	m.dbQueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	m.reportsSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hrm_reports_submitted_total",
		Help: "Incident reports accepted by intake",
	}, []string{"reporter_type", "anonymous"})

	m.reportDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hrm_report_decisions_total",
		Help: "Review decisions applied to reports",
	}, []string{"decision"})

	m.casesCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hrm_cases_created_total",
		Help: "Cases registered, by origin",
	}, []string{"origin"})

	m.geocodeFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hrm_geocode_fallbacks_total",
		Help: "Submissions stored with the raw location text because geocoding failed",
	})

	m.evidenceFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hrm_evidence_store_failures_total",
		Help: "Evidence files that could not be stored",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	historyPending := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "hrm_history_retry_pending",
		Help: "Status history appends waiting for retry",
	}, func() float64 {
		return float64(m.historyPending())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal, cacheLatency, cacheWrite, m.cacheHitRatio, m.cacheHits, m.cacheMisses,
		m.dbQueryDuration, m.reportsSubmitted, m.reportDecisions, m.casesCreated, m.geocodeFallbacks,
		m.evidenceFailures, goroutines, historyPending,
	)

	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// TrackHistoryQueue exposes the pending size of the history retry queue.
func (m *MetricsService) TrackHistoryQueue(q queueStats) {
	if m == nil || q == nil {
		return
	}
	m.historyQueue.Store(q)
}

func (m *MetricsService) historyPending() int {
	q, ok := m.historyQueue.Load().(queueStats)
	if !ok {
		return 0
	}
	return q.Stats().Pending
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ReportSubmitted counts an accepted submission.
func (m *MetricsService) ReportSubmitted(reporterType models.ReporterType, anonymous bool) {
	if m == nil {
		return
	}
	m.reportsSubmitted.WithLabelValues(string(reporterType), fmt.Sprintf("%t", anonymous)).Inc()
	atomic.AddUint64(&m.reportsCount, 1)
}

// ReportDecided counts a review decision.
func (m *MetricsService) ReportDecided(status models.ReportStatus) {
	if m == nil {
		return
	}
	m.reportDecisions.WithLabelValues(string(status)).Inc()
}

// CaseCreated counts a registered case; origin is "direct" or "promotion".
func (m *MetricsService) CaseCreated(origin string) {
	if m == nil {
		return
	}
	m.casesCreated.WithLabelValues(origin).Inc()
	if origin == caseOriginPromotion {
		atomic.AddUint64(&m.promotedCount, 1)
	}
}

// GeocodeFallback counts a submission kept with raw location text.
func (m *MetricsService) GeocodeFallback() {
	if m == nil {
		return
	}
	m.geocodeFallbacks.Inc()
	atomic.AddUint64(&m.fallbackCount, 1)
}

// EvidenceFailed counts evidence files that failed to store.
func (m *MetricsService) EvidenceFailed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.evidenceFailures.Add(float64(n))
}

// Snapshot returns aggregated metrics suitable for analytics endpoints.
func (m *MetricsService) Snapshot() models.AnalyticsSystemMetrics {
	if m == nil {
		return models.AnalyticsSystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if total := hits + misses; total > 0 {
		cacheRatio = float64(hits) / float64(total)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.AnalyticsSystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		ReportsSubmitted:         atomic.LoadUint64(&m.reportsCount),
		CasesPromoted:            atomic.LoadUint64(&m.promotedCount),
		GeocodeFallbacks:         atomic.LoadUint64(&m.fallbackCount),
		HistoryRetryPending:      m.historyPending(),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
