package models

import "time"

// TimelineInterval buckets timeline analytics.
type TimelineInterval string

const (
	IntervalDay   TimelineInterval = "day"
	IntervalWeek  TimelineInterval = "week"
	IntervalMonth TimelineInterval = "month"
	IntervalYear  TimelineInterval = "year"
)

// Valid reports whether the interval is supported.
func (i TimelineInterval) Valid() bool {
	switch i {
	case IntervalDay, IntervalWeek, IntervalMonth, IntervalYear:
		return true
	}
	return false
}

// AnalyticsFilter scopes read-side aggregations over cases and approved reports.
type AnalyticsFilter struct {
	Country string
	From    *Date
	To      *Date
}

// ViolationCount is the number of cases and reports carrying one violation type.
type ViolationCount struct {
	ViolationType string `db:"violation_type" json:"violation_type"`
	Count         int    `db:"count" json:"count"`
}

// TimelinePoint is the number of incidents in one bucket.
type TimelinePoint struct {
	Period time.Time `db:"period" json:"period"`
	Count  int       `db:"count" json:"count"`
}

// GeoPoint is a located case or report for map rendering.
type GeoPoint struct {
	ID          string      `db:"id" json:"id"`
	SubjectType SubjectType `db:"subject_type" json:"subject_type"`
	Title       string      `db:"title" json:"title"`
	Country     string      `db:"country" json:"country"`
	Longitude   float64     `db:"longitude" json:"longitude"`
	Latitude    float64     `db:"latitude" json:"latitude"`
	Status      string      `db:"status" json:"status"`
}

// AnalyticsSystemMetrics represents system level analytics captured from instrumentation.
type AnalyticsSystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	ReportsSubmitted         uint64    `json:"reports_submitted"`
	CasesPromoted            uint64    `json:"cases_promoted"`
	GeocodeFallbacks         uint64    `json:"geocode_fallbacks"`
	HistoryRetryPending      int       `json:"history_retry_pending"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
