package triage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

const (
	confidenceInvestigation = 0.9
	confidenceSpecialist    = 0.85
	confidenceMissing       = 0.8
	confidenceFastTrack     = 0.95
	confidenceDefault       = 0.6
)

// Router applies the routing table. The first matching rule wins.
type Router struct {
	threshold float64
	keywords  []string
}

func NewRouter(rules Rules) *Router {
	threshold := rules.FastTrackThreshold
	if threshold <= 0 {
		threshold = DefaultFastTrackThreshold
	}
	keywords := normalizeKeywords(rules.FraudKeywords)
	if len(keywords) == 0 {
		keywords = DefaultFraudKeywords()
	}
	return &Router{threshold: threshold, keywords: keywords}
}

func (r *Router) Threshold() float64 {
	return r.threshold
}

func (r *Router) Route(fields domain.CandidateFields, validation domain.Validation) domain.RoutingDecision {
	if keyword, field, ok := r.findFraudIndicator(fields); ok {
		return domain.RoutingDecision{
			Queue:      domain.QueueInvestigation,
			Confidence: confidenceInvestigation,
			Reasoning:  fmt.Sprintf("Fraud indicator %q found in %s; routed to investigation.", keyword, field),
		}
	}

	if fields.ClaimType == domain.ClaimInjury {
		return domain.RoutingDecision{
			Queue:      domain.QueueSpecialist,
			Confidence: confidenceSpecialist,
			Reasoning:  "Claim type is injury; routed to the specialist queue.",
		}
	}
	if n := len(fields.ThirdParties); n > 1 {
		return domain.RoutingDecision{
			Queue:      domain.QueueSpecialist,
			Confidence: confidenceSpecialist,
			Reasoning:  fmt.Sprintf("Claim involves %d third parties; routed to the specialist queue.", n),
		}
	}

	if critical := criticalMissing(validation); len(critical) > 0 {
		return domain.RoutingDecision{
			Queue:      domain.QueueManualReview,
			Confidence: confidenceMissing,
			Reasoning:  fmt.Sprintf("Critical fields missing: %s; manual review required.", strings.Join(critical, ", ")),
		}
	}

	damage, damageOK := damageValue(fields)
	blocking, hasBlocking := firstMandatoryInconsistency(validation)
	if damageOK && damage < r.threshold && !hasBlocking {
		return domain.RoutingDecision{
			Queue:      domain.QueueFastTrack,
			Confidence: confidenceFastTrack,
			Reasoning: fmt.Sprintf(
				"Estimated damage %s is below the fast-track threshold of %s with all mandatory fields present.",
				formatAmount(damage), formatAmount(r.threshold),
			),
		}
	}

	var reasoning string
	switch {
	case hasBlocking:
		reasoning = fmt.Sprintf("Inconsistent %s: %s; manual review required.", blocking.Field, blocking.Issue)
	case damageOK:
		reasoning = fmt.Sprintf(
			"Estimated damage %s meets or exceeds the fast-track threshold of %s; manual review required.",
			formatAmount(damage), formatAmount(r.threshold),
		)
	default:
		reasoning = "Estimated damage is not usable for fast-track; manual review required."
	}
	return domain.RoutingDecision{
		Queue:      domain.QueueManualReview,
		Confidence: confidenceDefault,
		Reasoning:  reasoning,
	}
}

type textField struct {
	name  string
	value string
}

func (r *Router) findFraudIndicator(fields domain.CandidateFields) (string, string, bool) {
	texts := freeTextFields(fields)
	for _, kw := range r.keywords {
		for _, tf := range texts {
			if strings.Contains(strings.ToLower(tf.value), kw) {
				return kw, tf.name, true
			}
		}
	}
	return "", "", false
}

func freeTextFields(fields domain.CandidateFields) []textField {
	out := []textField{
		{name: FieldIncidentDescription, value: fields.IncidentDescription},
		{name: FieldPolicyholderName, value: fields.PolicyholderName},
	}
	if c := fields.Claimant; c != nil {
		out = append(out,
			textField{name: "claimant.name", value: c.Name},
			textField{name: "claimant.contactDetails.address", value: c.ContactDetails.Address},
		)
	}
	if loc := fields.IncidentLocation; loc != nil {
		out = append(out,
			textField{name: FieldLocationStreet, value: loc.Street},
			textField{name: FieldLocationCity, value: loc.City},
		)
	}
	for i, tp := range fields.ThirdParties {
		prefix := fmt.Sprintf("thirdParties[%d]", i)
		out = append(out,
			textField{name: prefix + ".name", value: tp.Name},
			textField{name: prefix + ".role", value: tp.Role},
			textField{name: prefix + ".contactDetails", value: tp.ContactDetails},
		)
	}
	return out
}

func criticalMissing(validation domain.Validation) []string {
	var out []string
	for _, m := range validation.Missing {
		if m.Severity == domain.SeverityCritical {
			out = append(out, m.Field)
		}
	}
	return out
}

func firstMandatoryInconsistency(validation domain.Validation) (domain.InconsistentFieldEntry, bool) {
	for _, entry := range validation.Inconsistent {
		if isMandatory(entry.Field) {
			return entry, true
		}
	}
	return domain.InconsistentFieldEntry{}, false
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
