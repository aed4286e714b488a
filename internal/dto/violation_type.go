package dto

// SuggestViolationTypeRequest captures POST /violation-types payload.
type SuggestViolationTypeRequest struct {
	NamePrimary   string `json:"name_primary" conform:"trim" validate:"required,max=120"`
	NameSecondary string `json:"name_secondary" conform:"trim" validate:"max=120"`
}

// ReviewViolationTypeRequest captures PUT /violation-types/:id/review payload.
type ReviewViolationTypeRequest struct {
	Approve *bool `json:"approve" validate:"required"`
}
