package service

import (
	"github.com/noah-isme/hrm-case-api/internal/models"
	appErrors "github.com/noah-isme/hrm-case-api/pkg/errors"
)

// Capability names an operation guarded by role.
type Capability string

const (
	CapSubmitReport        Capability = "report:submit"
	CapListReports         Capability = "report:list"
	CapReviewReports       Capability = "report:review"
	CapViewCases           Capability = "case:view"
	CapManageCases         Capability = "case:manage"
	CapExportCases         Capability = "case:export"
	CapViewAnalytics       Capability = "analytics:view"
	CapSuggestViolation    Capability = "violation_type:suggest"
	CapReviewViolationType Capability = "violation_type:review"
	CapDownloadEvidence    Capability = "evidence:download"
)

var roleCapabilities = map[models.UserRole]map[Capability]struct{}{
	models.RoleCitizen: capabilitySet(
		CapSubmitReport, CapListReports, CapViewAnalytics, CapSuggestViolation,
	),
	models.RoleInstitution: capabilitySet(
		CapSubmitReport, CapListReports, CapViewCases, CapExportCases, CapViewAnalytics, CapSuggestViolation,
	),
	models.RoleAdmin: capabilitySet(
		CapSubmitReport, CapListReports, CapReviewReports, CapViewCases, CapManageCases, CapExportCases,
		CapViewAnalytics, CapSuggestViolation, CapReviewViolationType, CapDownloadEvidence,
	),
}

func capabilitySet(caps ...Capability) map[Capability]struct{} {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// HasCapability reports whether role grants capability.
func HasCapability(role models.UserRole, capability Capability) bool {
	_, ok := roleCapabilities[role][capability]
	return ok
}

// Authorize rejects a missing actor with UNAUTHORIZED and a role without capability with FORBIDDEN.
func Authorize(actor *models.JWTClaims, capability Capability) error {
	if actor == nil || actor.UserID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if !HasCapability(actor.Role, capability) {
		return appErrors.Clone(appErrors.ErrForbidden, "role "+string(actor.Role)+" cannot perform "+string(capability))
	}
	return nil
}

func isAdmin(actor *models.JWTClaims) bool {
	return actor != nil && actor.Role == models.RoleAdmin
}
