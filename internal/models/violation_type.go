package models

import "time"

// ViolationType is a catalog entry used to classify reports and cases.
type ViolationType struct {
	ID            string    `db:"id" json:"id"`
	Code          string    `db:"code" json:"code"`
	NamePrimary   string    `db:"name_primary" json:"name_primary"`
	NameSecondary string    `db:"name_secondary" json:"name_secondary"`
	Pending       bool      `db:"pending" json:"pending"`
	SuggestedBy   *string   `db:"suggested_by" json:"suggested_by,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Label converts the catalog entry to the label stored on cases.
func (v ViolationType) Label() ViolationLabel {
	return ViolationLabel{Code: v.Code, Primary: v.NamePrimary, Secondary: v.NameSecondary}
}
