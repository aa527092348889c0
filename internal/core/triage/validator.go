package triage

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

const (
	FieldPolicyNumber        = "policyNumber"
	FieldPolicyholderName    = "policyholderName"
	FieldEffectiveDates      = "effectiveDates"
	FieldIncidentDate        = "incidentDate"
	FieldIncidentTime        = "incidentTime"
	FieldIncidentDescription = "incidentDescription"
	FieldClaimant            = "claimant"
	FieldClaimantContact     = "claimant.contactDetails"
	FieldLocationStreet      = "incidentLocation.street"
	FieldLocationCity        = "incidentLocation.city"
	FieldLocationState       = "incidentLocation.state"
	FieldLocationZip         = "incidentLocation.zip"
	FieldThirdParties        = "thirdParties"
	FieldAssetType           = "assetType"
	FieldAssetID             = "assetId"
	FieldEstimatedDamage     = "estimatedDamage"
	FieldClaimType           = "claimType"
)

// mandatoryFields is ordered the way missing entries are reported.
var mandatoryFields = []string{
	FieldPolicyNumber,
	FieldPolicyholderName,
	FieldIncidentDate,
	FieldIncidentDescription,
	FieldAssetType,
	FieldEstimatedDamage,
	FieldClaimType,
}

func isMandatory(field string) bool {
	for _, f := range mandatoryFields {
		if f == field {
			return true
		}
	}
	return false
}

type ValidateOptions struct {
	// Now anchors the future-date check. Zero means time.Now.
	Now      time.Time
	// Detailed also reports absent optional fields.
	Detailed bool
}

// Validate reports absent and contradictory candidate fields. It never fails.
func Validate(fields domain.CandidateFields, opts ValidateOptions) domain.Validation {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	missing := newMissingSet()
	for _, field := range mandatoryFields {
		if mandatoryAbsent(fields, field) {
			missing.add(field, domain.SeverityCritical)
		}
	}

	if fields.Claimant == nil || fields.Claimant.IsZero() {
		missing.add(FieldClaimant, domain.SeverityImportant)
	} else if blank(fields.Claimant.ContactDetails.Phone) && blank(fields.Claimant.ContactDetails.Email) {
		missing.add(FieldClaimantContact, domain.SeverityImportant)
	}

	var loc domain.Location
	if fields.IncidentLocation != nil {
		loc = *fields.IncidentLocation
	}
	if blank(loc.Street) {
		missing.add(FieldLocationStreet, domain.SeverityImportant)
	}
	if blank(loc.City) {
		missing.add(FieldLocationCity, domain.SeverityImportant)
	}
	if blank(loc.State) {
		missing.add(FieldLocationState, domain.SeverityImportant)
	}
	if blank(loc.Zip) {
		missing.add(FieldLocationZip, domain.SeverityImportant)
	}

	if opts.Detailed {
		if len(fields.ThirdParties) == 0 {
			missing.add(FieldThirdParties, domain.SeverityOptional)
		}
		if blank(fields.AssetID) {
			missing.add(FieldAssetID, domain.SeverityOptional)
		}
		if blank(fields.IncidentTime) {
			missing.add(FieldIncidentTime, domain.SeverityOptional)
		}
		if fields.EffectiveDates.IsZero() {
			missing.add(FieldEffectiveDates, domain.SeverityOptional)
		}
	}

	return domain.Validation{
		Missing:      missing.entries,
		Inconsistent: inconsistencies(fields, now),
	}
}

func mandatoryAbsent(fields domain.CandidateFields, field string) bool {
	switch field {
	case FieldPolicyNumber:
		return blank(fields.PolicyNumber)
	case FieldPolicyholderName:
		return blank(fields.PolicyholderName)
	case FieldIncidentDate:
		return blank(fields.IncidentDate)
	case FieldIncidentDescription:
		return blank(fields.IncidentDescription)
	case FieldAssetType:
		return blank(string(fields.AssetType))
	case FieldEstimatedDamage:
		return fields.EstimatedDamage == nil && blank(fields.EstimatedDamageRaw)
	case FieldClaimType:
		return blank(string(fields.ClaimType))
	default:
		return false
	}
}

func inconsistencies(fields domain.CandidateFields, now time.Time) []domain.InconsistentFieldEntry {
	out := make([]domain.InconsistentFieldEntry, 0)
	add := func(field, issue string) {
		out = append(out, domain.InconsistentFieldEntry{Field: field, Issue: issue})
	}

	incident, incidentOK := ParseDate(fields.IncidentDate)
	if !blank(fields.IncidentDate) {
		switch {
		case !incidentOK:
			add(FieldIncidentDate, fmt.Sprintf("incident date %q is not a recognizable date", fields.IncidentDate))
		case incident.After(dateOnly(now)):
			add(FieldIncidentDate, fmt.Sprintf("incident date %s is in the future", formatDate(incident)))
		}
	}

	if fields.EffectiveDates != nil {
		start, startOK := ParseDate(fields.EffectiveDates.Start)
		end, endOK := ParseDate(fields.EffectiveDates.End)
		if !blank(fields.EffectiveDates.Start) && !startOK {
			add(FieldEffectiveDates, fmt.Sprintf("effective start %q is not a recognizable date", fields.EffectiveDates.Start))
		}
		if !blank(fields.EffectiveDates.End) && !endOK {
			add(FieldEffectiveDates, fmt.Sprintf("effective end %q is not a recognizable date", fields.EffectiveDates.End))
		}
		if startOK && endOK && end.Before(start) {
			add(FieldEffectiveDates, fmt.Sprintf("effective end %s is before start %s", formatDate(end), formatDate(start)))
		}
		if incidentOK && startOK && endOK && !end.Before(start) && (incident.Before(start) || incident.After(end)) {
			add(FieldIncidentDate, fmt.Sprintf("incident date %s is outside the policy period %s to %s", formatDate(incident), formatDate(start), formatDate(end)))
		}
	}

	switch {
	case fields.EstimatedDamage != nil && !validAmount(*fields.EstimatedDamage):
		add(FieldEstimatedDamage, fmt.Sprintf("estimated damage %v is not a finite non-negative number", *fields.EstimatedDamage))
	case fields.EstimatedDamage == nil && !blank(fields.EstimatedDamageRaw):
		add(FieldEstimatedDamage, fmt.Sprintf("estimated damage %q is not a finite non-negative number", fields.EstimatedDamageRaw))
	}

	if !blank(string(fields.AssetType)) && !fields.AssetType.Valid() {
		add(FieldAssetType, fmt.Sprintf("asset type %q is not one of vehicle, property, personal, other", fields.AssetType))
	}
	if !blank(string(fields.ClaimType)) && !fields.ClaimType.Valid() {
		add(FieldClaimType, fmt.Sprintf("claim type %q is not a supported claim type", fields.ClaimType))
	}

	return out
}

// damageValue returns the usable damage amount, if any.
func damageValue(fields domain.CandidateFields) (float64, bool) {
	if fields.EstimatedDamage == nil {
		return 0, false
	}
	v := *fields.EstimatedDamage
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

type missingSet struct {
	seen    map[string]struct{}
	entries []domain.MissingFieldEntry
}

func newMissingSet() *missingSet {
	return &missingSet{
		seen:    make(map[string]struct{}),
		entries: make([]domain.MissingFieldEntry, 0),
	}
}

func (s *missingSet) add(field string, severity domain.Severity) {
	if _, ok := s.seen[field]; ok {
		return
	}
	s.seen[field] = struct{}{}
	s.entries = append(s.entries, domain.MissingFieldEntry{Field: field, Severity: severity})
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
