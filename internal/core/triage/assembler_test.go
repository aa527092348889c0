package triage

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

func assemblyInput(fields domain.CandidateFields) AssemblyInput {
	validation := Validate(fields, ValidateOptions{Now: testNow})
	return AssemblyInput{
		Extraction:  domain.ExtractionResult{Fields: fields},
		Validation:  validation,
		Decision:    NewRouter(DefaultRules()).Route(fields, validation),
		SubmittedBy: "adjuster-7",
		Document:    domain.DocumentInfo{Filename: "fnol.txt", MediaType: domain.MediaTypePlainText, SizeBytes: 120, Pages: 1},
	}
}

func TestAssembleAppliesDefaults(t *testing.T) {
	a := NewAssembler(DefaultDefaults(), WithClock(func() time.Time { return testNow }), WithIDGenerator(func() string { return "claim-1" }))

	claim, err := a.Assemble(assemblyInput(domain.CandidateFields{IncidentDescription: "   "}))
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if claim.ID != "claim-1" || !claim.CreatedAt.Equal(testNow) || !claim.UpdatedAt.Equal(testNow) {
		t.Fatalf("unexpected identity fields: %+v", claim)
	}
	if claim.PolicyNumber != "N/A" || claim.PolicyholderName != "Unknown" || claim.IncidentDescription != "No description" {
		t.Fatalf("unexpected string defaults: %q %q %q", claim.PolicyNumber, claim.PolicyholderName, claim.IncidentDescription)
	}
	if claim.AssetType != domain.AssetVehicle || claim.ClaimType != domain.ClaimPropertyDamage {
		t.Fatalf("unexpected enum defaults: %s %s", claim.AssetType, claim.ClaimType)
	}
	if claim.EstimatedDamage != 0 {
		t.Fatalf("expected zero damage, got %v", claim.EstimatedDamage)
	}
	if claim.Status != domain.ClaimStatusPending {
		t.Fatalf("expected pending status, got %s", claim.Status)
	}
	if claim.IncidentDate != nil {
		t.Fatalf("absent incident date must stay nil")
	}
	if claim.RoutingDecision.Queue != domain.QueueManualReview {
		t.Fatalf("expected manual-review decision, got %+v", claim.RoutingDecision)
	}
	if claim.ThirdParties == nil || claim.MissingFields == nil || claim.InconsistentFields == nil {
		t.Fatalf("collections must be non-nil")
	}
}

func TestAssembleMapsExtractedValues(t *testing.T) {
	a := NewAssembler(DefaultDefaults())
	fields := completeFields()

	claim, err := a.Assemble(assemblyInput(fields))
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if claim.PolicyNumber != "POL-1001" || claim.EstimatedDamage != 8500 {
		t.Fatalf("unexpected mapped values: %+v", claim)
	}
	if claim.IncidentDate == nil || claim.IncidentDate.Format("2006-01-02") != "2025-03-01" {
		t.Fatalf("unexpected incident date: %v", claim.IncidentDate)
	}
	if claim.EffectiveDates.Start == nil || claim.EffectiveDates.End == nil {
		t.Fatalf("expected effective dates, got %+v", claim.EffectiveDates)
	}
	if claim.IncidentLocation.City != "Pune" || claim.Claimant.ContactDetails.Email != "asha@example.com" {
		t.Fatalf("unexpected nested values: %+v %+v", claim.IncidentLocation, claim.Claimant)
	}
	if claim.SubmittedBy != "adjuster-7" || claim.Document.Filename != "fnol.txt" {
		t.Fatalf("unexpected provenance: %q %+v", claim.SubmittedBy, claim.Document)
	}
	if claim.RoutingDecision.Queue != domain.QueueFastTrack {
		t.Fatalf("expected fast-track, got %+v", claim.RoutingDecision)
	}
}

func TestAssembleReplacesOutOfEnumValues(t *testing.T) {
	a := NewAssembler(DefaultDefaults())
	fields := completeFields()
	fields.AssetType = "boat"
	fields.EstimatedDamage = amount(-5)

	claim, err := a.Assemble(assemblyInput(fields))
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if claim.AssetType != domain.AssetVehicle || claim.EstimatedDamage != 0 {
		t.Fatalf("expected defaults for unusable values, got %s %v", claim.AssetType, claim.EstimatedDamage)
	}
	if claim.ExtractedFields.AssetType != "boat" {
		t.Fatalf("extracted fields must keep the raw value")
	}
	if len(claim.InconsistentFields) == 0 {
		t.Fatalf("expected inconsistencies to be carried")
	}
}

func TestAssembleFailsWhenDefaultsCannotSatisfyEnums(t *testing.T) {
	defaults := DefaultDefaults()
	defaults.AssetType = "spaceship"
	a := NewAssembler(defaults)

	_, err := a.Assemble(assemblyInput(domain.CandidateFields{}))
	if !errors.Is(err, domain.ErrAssembly) {
		t.Fatalf("expected assembly error, got %v", err)
	}
}

func TestAssembleRejectsInvalidQueue(t *testing.T) {
	a := NewAssembler(DefaultDefaults())
	in := assemblyInput(completeFields())
	in.Decision.Queue = "somewhere"

	_, err := a.Assemble(in)
	if !errors.Is(err, domain.ErrAssembly) {
		t.Fatalf("expected assembly error, got %v", err)
	}
}

func TestAssembleTwiceDiffersOnlyByIdentity(t *testing.T) {
	ids := []string{"a", "b"}
	clock := []time.Time{testNow, testNow.Add(time.Minute)}
	i := 0
	a := NewAssembler(DefaultDefaults(),
		WithIDGenerator(func() string { return ids[i] }),
		WithClock(func() time.Time { return clock[i] }),
	)

	in := assemblyInput(completeFields())
	first, err := a.Assemble(in)
	if err != nil {
		t.Fatalf("first Assemble() error = %v", err)
	}
	i++
	second, err := a.Assemble(in)
	if err != nil {
		t.Fatalf("second Assemble() error = %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("expected distinct ids")
	}

	second.ID = first.ID
	second.CreatedAt = first.CreatedAt
	second.UpdatedAt = first.UpdatedAt
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("claims differ beyond identity:\n%+v\n%+v", first, second)
	}
}
