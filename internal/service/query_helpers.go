package service

import (
	"time"

	"github.com/noah-isme/hrm-case-api/internal/models"
	appErrors "github.com/noah-isme/hrm-case-api/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func pagination(page, size, total int) models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

// parseDateParam parses an optional YYYY-MM-DD query value; malformed input is a validation error.
func parseDateParam(name, raw string) (*models.Date, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, name+" must use the YYYY-MM-DD format")
	}
	return &d, nil
}

func checkDateRange(from, to *models.Date) error {
	if from != nil && to != nil && to.Before(from.Time) {
		return appErrors.Clone(appErrors.ErrValidation, "date range end precedes its start")
	}
	return nil
}

func endOfDay(d models.Date) time.Time {
	return d.Time.AddDate(0, 0, 1).Add(-time.Nanosecond)
}
