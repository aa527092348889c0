package triage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

type AssemblyInput struct {
	Extraction  domain.ExtractionResult
	Validation  domain.Validation
	Decision    domain.RoutingDecision
	SubmittedBy string
	Document    domain.DocumentInfo
}

type AssemblerOption func(*Assembler)

func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

func WithIDGenerator(newID func() string) AssemblerOption {
	return func(a *Assembler) {
		if newID != nil {
			a.newID = newID
		}
	}
}

// Assembler builds the persistable claim. It has no side effects.
type Assembler struct {
	defaults Defaults
	now      func() time.Time
	newID    func() string
}

func NewAssembler(defaults Defaults, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		defaults: defaults,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Assembler) Assemble(in AssemblyInput) (*domain.Claim, error) {
	fields := in.Extraction.Fields

	assetType := fields.AssetType
	if !assetType.Valid() {
		assetType = a.defaults.AssetType
	}
	if !assetType.Valid() {
		return nil, assemblyError(fmt.Errorf("asset type %q is not supported", assetType))
	}

	claimType := fields.ClaimType
	if !claimType.Valid() {
		claimType = a.defaults.ClaimType
	}
	if !claimType.Valid() {
		return nil, assemblyError(fmt.Errorf("claim type %q is not supported", claimType))
	}

	if !in.Decision.Queue.Valid() {
		return nil, assemblyError(fmt.Errorf("routing queue %q is not supported", in.Decision.Queue))
	}
	if in.Decision.Confidence < 0 || in.Decision.Confidence > 1 {
		return nil, assemblyError(fmt.Errorf("routing confidence %v is outside [0,1]", in.Decision.Confidence))
	}

	damage, ok := damageValue(fields)
	if !ok {
		damage = a.defaults.EstimatedDamage
	}
	if !validAmount(damage) {
		return nil, assemblyError(fmt.Errorf("estimated damage %v is not a finite non-negative number", damage))
	}

	now := a.now()
	claim := &domain.Claim{
		ID:                  a.newID(),
		PolicyNumber:        orDefault(fields.PolicyNumber, a.defaults.PolicyNumber),
		PolicyholderName:    orDefault(fields.PolicyholderName, a.defaults.PolicyholderName),
		IncidentDate:        datePtr(fields.IncidentDate),
		IncidentTime:        strings.TrimSpace(fields.IncidentTime),
		IncidentDescription: orDefault(fields.IncidentDescription, a.defaults.IncidentDescription),
		ThirdParties:        append([]domain.ThirdParty{}, fields.ThirdParties...),
		AssetType:           assetType,
		AssetID:             strings.TrimSpace(fields.AssetID),
		EstimatedDamage:     damage,
		ClaimType:           claimType,
		RoutingDecision:     in.Decision,
		AdvisoryRouting:     cloneDecision(in.Extraction.AdvisoryRouting),
		ExtractedFields:     fields,
		MissingFields:       append([]domain.MissingFieldEntry{}, in.Validation.Missing...),
		InconsistentFields:  append([]domain.InconsistentFieldEntry{}, in.Validation.Inconsistent...),
		Document:            in.Document,
		Status:              domain.ClaimStatusPending,
		SubmittedBy:         strings.TrimSpace(in.SubmittedBy),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if fields.EffectiveDates != nil {
		claim.EffectiveDates = domain.Period{
			Start: datePtr(fields.EffectiveDates.Start),
			End:   datePtr(fields.EffectiveDates.End),
		}
	}
	if fields.IncidentLocation != nil {
		claim.IncidentLocation = *fields.IncidentLocation
	}
	if fields.Claimant != nil {
		claim.Claimant = *fields.Claimant
	}
	return claim, nil
}

func assemblyError(err error) error {
	return domain.WrapError(domain.ErrAssembly, "assemble claim", err)
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func datePtr(raw string) *time.Time {
	t, ok := ParseDate(raw)
	if !ok {
		return nil
	}
	return &t
}

func cloneDecision(d *domain.RoutingDecision) *domain.RoutingDecision {
	if d == nil {
		return nil
	}
	out := *d
	return &out
}
