package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hrm-case-api/internal/models"
)

// publishedReports restricts report aggregates to approved material not already counted through a case.
const publishedReports = `status IN ('approved', 'archived') AND case_id IS NULL`

// AnalyticsRepository exposes read-optimised aggregate queries over cases and reports.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository instantiates the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

type scope struct {
	builder strings.Builder
	args    []interface{}
}

func (s *scope) and(cond string, arg interface{}) {
	s.args = append(s.args, arg)
	s.builder.WriteString(" AND ")
	s.builder.WriteString(strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(s.args))))
}

func (s *scope) filter(f models.AnalyticsFilter, countryCond, dateCol string) {
	if f.Country != "" {
		s.and(countryCond, f.Country)
	}
	if f.From != nil {
		s.and(dateCol+" >= ?", *f.From)
	}
	if f.To != nil {
		s.and(dateCol+" <= ?", *f.To)
	}
}

const caseCountry = "(LOWER(c.country_primary) = LOWER(?) OR LOWER(c.country_secondary) = LOWER(?))"

// CaseViolationCounts counts cases per primary violation label.
func (r *AnalyticsRepository) CaseViolationCounts(ctx context.Context, filter models.AnalyticsFilter) ([]models.ViolationCount, error) {
	var s scope
	s.builder.WriteString(`SELECT v->>'primary' AS violation_type, COUNT(*) AS count
	FROM cases c, jsonb_array_elements(c.violation_types) AS v WHERE 1=1`)
	s.filter(filter, caseCountry, "c.date_occurred")
	s.builder.WriteString(" GROUP BY violation_type ORDER BY count DESC, violation_type")
	return r.counts(ctx, &s, "case violation counts")
}

// ReportViolationCounts counts published reports per violation type.
func (r *AnalyticsRepository) ReportViolationCounts(ctx context.Context, filter models.AnalyticsFilter) ([]models.ViolationCount, error) {
	var s scope
	s.builder.WriteString(`SELECT vt AS violation_type, COUNT(*) AS count
	FROM incident_reports, unnest(violation_types) AS vt WHERE ` + publishedReports)
	s.filter(filter, "LOWER(country) = LOWER(?)", "incident_date")
	s.builder.WriteString(" GROUP BY vt ORDER BY count DESC, vt")
	return r.counts(ctx, &s, "report violation counts")
}

func (r *AnalyticsRepository) counts(ctx context.Context, s *scope, what string) ([]models.ViolationCount, error) {
	var rows []models.ViolationCount
	if err := r.db.SelectContext(ctx, &rows, s.builder.String(), s.args...); err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	return rows, nil
}

// CaseTimeline buckets cases by occurrence date.
func (r *AnalyticsRepository) CaseTimeline(ctx context.Context, interval models.TimelineInterval, filter models.AnalyticsFilter) ([]models.TimelinePoint, error) {
	var s scope
	s.args = append(s.args, string(interval))
	s.builder.WriteString(`SELECT date_trunc($1, c.date_occurred::timestamp) AS period, COUNT(*) AS count
	FROM cases c WHERE c.date_occurred IS NOT NULL`)
	s.filter(filter, caseCountry, "c.date_occurred")
	s.builder.WriteString(" GROUP BY period ORDER BY period")
	return r.timeline(ctx, &s, "case timeline")
}

// ReportTimeline buckets published reports by incident date.
func (r *AnalyticsRepository) ReportTimeline(ctx context.Context, interval models.TimelineInterval, filter models.AnalyticsFilter) ([]models.TimelinePoint, error) {
	var s scope
	s.args = append(s.args, string(interval))
	s.builder.WriteString(`SELECT date_trunc($1, incident_date::timestamp) AS period, COUNT(*) AS count
	FROM incident_reports WHERE incident_date IS NOT NULL AND ` + publishedReports)
	s.filter(filter, "LOWER(country) = LOWER(?)", "incident_date")
	s.builder.WriteString(" GROUP BY period ORDER BY period")
	return r.timeline(ctx, &s, "report timeline")
}

func (r *AnalyticsRepository) timeline(ctx context.Context, s *scope, what string) ([]models.TimelinePoint, error) {
	var rows []models.TimelinePoint
	if err := r.db.SelectContext(ctx, &rows, s.builder.String(), s.args...); err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	return rows, nil
}

// CaseGeoPoints returns located cases.
func (r *AnalyticsRepository) CaseGeoPoints(ctx context.Context, filter models.AnalyticsFilter) ([]models.GeoPoint, error) {
	var s scope
	s.builder.WriteString(`SELECT c.id, 'case' AS subject_type, c.title_primary AS title, c.country_primary AS country,
	c.longitude, c.latitude, c.status FROM cases c WHERE c.longitude IS NOT NULL AND c.latitude IS NOT NULL`)
	s.filter(filter, caseCountry, "c.date_occurred")
	return r.points(ctx, &s, "case geodata")
}

// ReportGeoPoints returns located published reports.
func (r *AnalyticsRepository) ReportGeoPoints(ctx context.Context, filter models.AnalyticsFilter) ([]models.GeoPoint, error) {
	var s scope
	s.builder.WriteString(`SELECT id, 'report' AS subject_type, LEFT(description, 80) AS title, country,
	longitude, latitude, status FROM incident_reports
	WHERE longitude IS NOT NULL AND latitude IS NOT NULL AND ` + publishedReports)
	s.filter(filter, "LOWER(country) = LOWER(?)", "incident_date")
	return r.points(ctx, &s, "report geodata")
}

func (r *AnalyticsRepository) points(ctx context.Context, s *scope, what string) ([]models.GeoPoint, error) {
	var rows []models.GeoPoint
	if err := r.db.SelectContext(ctx, &rows, s.builder.String(), s.args...); err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	return rows, nil
}
