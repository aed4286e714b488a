package dto

import "github.com/noah-isme/hrm-case-api/internal/models"

// CreateCaseRequest captures POST /cases payload.
type CreateCaseRequest struct {
	TitlePrimary         string              `json:"title_primary" conform:"trim" validate:"required,max=300"`
	TitleSecondary       string              `json:"title_secondary" conform:"trim" validate:"max=300"`
	DescriptionPrimary   string              `json:"description_primary" conform:"trim"`
	DescriptionSecondary string              `json:"description_secondary" conform:"trim"`
	ViolationTypes       []string            `json:"violation_types"`
	Priority             models.CasePriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	CountryPrimary       string              `json:"country_primary" conform:"trim" validate:"required"`
	CountrySecondary     string              `json:"country_secondary" conform:"trim"`
	RegionPrimary        string              `json:"region_primary" conform:"trim"`
	RegionSecondary      string              `json:"region_secondary" conform:"trim"`
	Longitude            *float64            `json:"longitude" validate:"omitempty,longitude"`
	Latitude             *float64            `json:"latitude" validate:"omitempty,latitude"`
	DateOccurred         string              `json:"date_occurred"`
	DateReported         string              `json:"date_reported"`
}

// PromoteCaseRequest carries optional overrides when promoting a report.
type PromoteCaseRequest struct {
	TitlePrimary     string              `json:"title_primary" conform:"trim" validate:"max=300"`
	TitleSecondary   string              `json:"title_secondary" conform:"trim" validate:"max=300"`
	Priority         models.CasePriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	CountrySecondary string              `json:"country_secondary" conform:"trim"`
	RegionPrimary    string              `json:"region_primary" conform:"trim"`
	RegionSecondary  string              `json:"region_secondary" conform:"trim"`
}

// UpdateCaseRequest captures PATCH /cases/:id; absent fields are left unchanged.
type UpdateCaseRequest struct {
	TitlePrimary         *string              `json:"title_primary" validate:"omitempty,min=1,max=300"`
	TitleSecondary       *string              `json:"title_secondary" validate:"omitempty,max=300"`
	DescriptionPrimary   *string              `json:"description_primary"`
	DescriptionSecondary *string              `json:"description_secondary"`
	ViolationTypes       []string             `json:"violation_types"`
	Status               *models.CaseStatus   `json:"status" validate:"omitempty,oneof=new under_investigation resolved"`
	Priority             *models.CasePriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	CountryPrimary       *string              `json:"country_primary" validate:"omitempty,min=1"`
	CountrySecondary     *string              `json:"country_secondary"`
	RegionPrimary        *string              `json:"region_primary"`
	RegionSecondary      *string              `json:"region_secondary"`
	Longitude            *float64             `json:"longitude" validate:"omitempty,longitude"`
	Latitude             *float64             `json:"latitude" validate:"omitempty,latitude"`
	DateOccurred         *string              `json:"date_occurred"`
}

// CaseQuery captures GET /cases query parameters.
type CaseQuery struct {
	Status        string `form:"status"`
	Country       string `form:"country" conform:"trim"`
	ViolationType string `form:"violation_type" conform:"trim"`
	OccurredFrom  string `form:"occurred_from"`
	OccurredTo    string `form:"occurred_to"`
	Page          int    `form:"page"`
	PageSize      int    `form:"page_size"`
}

// CaseList is a page of cases.
type CaseList struct {
	Items      []models.Case     `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}
