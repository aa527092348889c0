package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/claims-triage/internal/core/domain"
	"github.com/kirillkom/claims-triage/internal/core/ports"
	"github.com/kirillkom/claims-triage/internal/core/triage"
)

var pipelineNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type normalizerFake struct {
	calls int
	err   error
}

func (f *normalizerFake) Normalize(_ context.Context, doc domain.RawDocument) (domain.NormalizedText, error) {
	f.calls++
	if f.err != nil {
		return domain.NormalizedText{}, f.err
	}
	return domain.NormalizedText{Text: string(doc.Content), Pages: 1}, nil
}

type claimExtractorFake struct {
	result  domain.ExtractionResult
	err     error
	block   bool
	gotText string
}

func (f *claimExtractorFake) Extract(ctx context.Context, text domain.NormalizedText) (domain.ExtractionResult, error) {
	f.gotText = text.Text
	if f.block {
		<-ctx.Done()
		return domain.ExtractionResult{}, ctx.Err()
	}
	if f.err != nil {
		return domain.ExtractionResult{}, f.err
	}
	return f.result, nil
}

type claimRepoFake struct {
	created   []*domain.Claim
	createErr error

	stored     map[string]*domain.Claim
	updates    []domain.ClaimUpdate
	routing    []domain.RoutingDecision
	deleted    []string
	listFilter domain.ClaimFilter
	listResult []domain.Claim
	listErr    error
	updateErr  error
	routingErr error
	deleteErr  error
}

func (f *claimRepoFake) Create(_ context.Context, claim *domain.Claim) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyClaim := *claim
	f.created = append(f.created, &copyClaim)
	return nil
}

func (f *claimRepoFake) GetByID(_ context.Context, id string) (*domain.Claim, error) {
	claim, ok := f.stored[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrClaimNotFound, "get claim", errors.New(id))
	}
	copyClaim := *claim
	return &copyClaim, nil
}

func (f *claimRepoFake) List(_ context.Context, filter domain.ClaimFilter) ([]domain.Claim, error) {
	f.listFilter = filter
	return f.listResult, f.listErr
}

func (f *claimRepoFake) Update(_ context.Context, id string, update domain.ClaimUpdate, updatedAt time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, update)
	if claim, ok := f.stored[id]; ok {
		if update.Status != nil {
			claim.Status = *update.Status
		}
		if update.AssignedTo != nil {
			claim.AssignedTo = *update.AssignedTo
		}
		claim.UpdatedAt = updatedAt
	}
	return nil
}

func (f *claimRepoFake) UpdateRouting(_ context.Context, _ string, _ domain.Validation, decision domain.RoutingDecision, _ time.Time) error {
	if f.routingErr != nil {
		return f.routingErr
	}
	f.routing = append(f.routing, decision)
	return nil
}

func (f *claimRepoFake) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func ptr[T any](v T) *T { return &v }

func fastTrackFields() domain.CandidateFields {
	return domain.CandidateFields{
		PolicyNumber:        "POL-2024-001234",
		PolicyholderName:    "Rajesh Kumar",
		EffectiveDates:      &domain.DateRange{Start: "2024-01-15", End: "2025-01-14"},
		IncidentDate:        "2024-11-20",
		IncidentLocation:    &domain.Location{Street: "MG Road", City: "Bangalore", State: "Karnataka", Zip: "560001"},
		IncidentDescription: "Minor collision at traffic signal",
		Claimant:            &domain.Claimant{Name: "Rajesh Kumar", ContactDetails: domain.ContactDetails{Phone: "+91-9876543210"}},
		AssetType:           domain.AssetVehicle,
		EstimatedDamage:     ptr(8500.0),
		ClaimType:           domain.ClaimPropertyDamage,
	}
}

func newPipeline(normalizer *normalizerFake, extractor *claimExtractorFake, repo *claimRepoFake, opts ProcessClaimOptions) *ProcessClaimUseCase {
	opts.Now = func() time.Time { return pipelineNow }
	return NewProcessClaimUseCase(
		normalizer,
		extractor,
		triage.NewRouter(triage.DefaultRules()),
		triage.NewAssembler(triage.DefaultDefaults(), triage.WithClock(func() time.Time { return pipelineNow })),
		repo,
		opts,
	)
}

func intake(body string) ports.IntakeRequest {
	return ports.IntakeRequest{
		Filename:    "fnol.txt",
		MediaType:   "text/plain",
		Body:        strings.NewReader(body),
		SubmittedBy: "agent-7",
	}
}

func TestProcessFastTrackClaim(t *testing.T) {
	repo := &claimRepoFake{}
	extractor := &claimExtractorFake{result: domain.ExtractionResult{
		Fields:          fastTrackFields(),
		AdvisoryRouting: &domain.RoutingDecision{Queue: domain.QueueSpecialist, Confidence: 0.4},
	}}
	uc := newPipeline(&normalizerFake{}, extractor, repo, ProcessClaimOptions{})

	result, err := uc.Process(context.Background(), intake("FNOL for POL-2024-001234"))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.RoutingDecision.Queue != domain.QueueFastTrack || result.RoutingDecision.Confidence < 0.9 {
		t.Fatalf("expected local fast-track decision, got %+v", result.RoutingDecision)
	}
	if result.AdvisoryRouting == nil || result.AdvisoryRouting.Queue != domain.QueueSpecialist {
		t.Fatalf("advisory routing must be kept for audit, got %+v", result.AdvisoryRouting)
	}
	if len(repo.created) != 1 || repo.created[0].ID != result.ClaimID {
		t.Fatalf("expected exactly one persisted claim, got %d", len(repo.created))
	}
	created := repo.created[0]
	if created.SubmittedBy != "agent-7" || created.Document.MediaType != domain.MediaTypePlainText {
		t.Fatalf("unexpected claim metadata: %+v", created.Document)
	}
	if extractor.gotText != "FNOL for POL-2024-001234" {
		t.Fatalf("extractor received %q", extractor.gotText)
	}
}

func TestProcessMissingPolicyNumberGoesToManualReview(t *testing.T) {
	fields := fastTrackFields()
	fields.PolicyNumber = ""
	repo := &claimRepoFake{}
	uc := newPipeline(&normalizerFake{}, &claimExtractorFake{result: domain.ExtractionResult{Fields: fields}}, repo, ProcessClaimOptions{})

	result, err := uc.Process(context.Background(), intake("vehicle hit a pole"))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.RoutingDecision.Queue != domain.QueueManualReview {
		t.Fatalf("expected manual-review, got %+v", result.RoutingDecision)
	}
	found := false
	for _, m := range result.MissingFields {
		if m.Field == "policyNumber" && m.Severity == domain.SeverityCritical {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected critical policyNumber entry, got %+v", result.MissingFields)
	}
	if repo.created[0].PolicyNumber != "N/A" {
		t.Fatalf("expected default policy number, got %q", repo.created[0].PolicyNumber)
	}
}

func TestProcessRejectsUnsupportedMediaTypeBeforeReading(t *testing.T) {
	normalizer := &normalizerFake{}
	repo := &claimRepoFake{}
	uc := newPipeline(normalizer, &claimExtractorFake{}, repo, ProcessClaimOptions{})

	_, err := uc.Process(context.Background(), ports.IntakeRequest{
		Filename:  "photo.png",
		MediaType: "image/png",
		Body:      strings.NewReader("png"),
	})
	if !errors.Is(err, domain.ErrUnsupportedMediaType) {
		t.Fatalf("expected unsupported media type, got %v", err)
	}
	if normalizer.calls != 0 || len(repo.created) != 0 {
		t.Fatalf("nothing may run for an unsupported document")
	}
}

func TestProcessRejectsOversizedUpload(t *testing.T) {
	normalizer := &normalizerFake{}
	uc := newPipeline(normalizer, &claimExtractorFake{}, &claimRepoFake{}, ProcessClaimOptions{MaxUploadBytes: 8})

	_, err := uc.Process(context.Background(), intake("0123456789"))
	if !errors.Is(err, domain.ErrPayloadTooLarge) {
		t.Fatalf("expected payload too large, got %v", err)
	}
	if normalizer.calls != 0 {
		t.Fatalf("normalizer must not run for an oversized upload")
	}
}

func TestProcessMalformedExtractionPersistsNothing(t *testing.T) {
	repo := &claimRepoFake{}
	extractor := &claimExtractorFake{err: domain.WrapError(domain.ErrMalformedExtractionResponse, "parse", errors.New("no JSON object"))}
	uc := newPipeline(&normalizerFake{}, extractor, repo, ProcessClaimOptions{})

	_, err := uc.Process(context.Background(), intake("text"))
	if !errors.Is(err, domain.ErrMalformedExtractionResponse) {
		t.Fatalf("expected malformed response, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("no claim may be persisted on failure")
	}
}

func TestProcessExtractionTimeout(t *testing.T) {
	repo := &claimRepoFake{}
	uc := newPipeline(&normalizerFake{}, &claimExtractorFake{block: true}, repo, ProcessClaimOptions{ExtractionTimeout: 10 * time.Millisecond})

	_, err := uc.Process(context.Background(), intake("text"))
	if !errors.Is(err, domain.ErrExtractionTimeout) {
		t.Fatalf("expected extraction timeout, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("no claim may be persisted on timeout")
	}
}

func TestProcessCancelledRunPersistsNothing(t *testing.T) {
	repo := &claimRepoFake{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	uc := newPipeline(&normalizerFake{}, &claimExtractorFake{result: domain.ExtractionResult{Fields: fastTrackFields()}}, repo, ProcessClaimOptions{})

	_, err := uc.ProcessDocument(ctx, domain.RawDocument{Filename: "a.txt", MediaType: domain.MediaTypePlainText, Content: []byte("x")}, "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("no claim may be persisted for a cancelled run")
	}
}

func TestProcessRepositoryError(t *testing.T) {
	repo := &claimRepoFake{createErr: errors.New("db down")}
	uc := newPipeline(&normalizerFake{}, &claimExtractorFake{result: domain.ExtractionResult{Fields: fastTrackFields()}}, repo, ProcessClaimOptions{})

	_, err := uc.Process(context.Background(), intake("x"))
	if err == nil || !strings.Contains(err.Error(), "persist claim") {
		t.Fatalf("expected persist error, got %v", err)
	}
}

func TestEvaluateDoesNotPersist(t *testing.T) {
	repo := &claimRepoFake{}
	uc := newPipeline(&normalizerFake{}, &claimExtractorFake{result: domain.ExtractionResult{Fields: fastTrackFields()}}, repo, ProcessClaimOptions{})

	claim, err := uc.Evaluate(context.Background(), domain.RawDocument{Filename: "a.txt", MediaType: domain.MediaTypePlainText, Content: []byte("x")}, "")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if claim.RoutingDecision.Queue != domain.QueueFastTrack {
		t.Fatalf("unexpected decision: %+v", claim.RoutingDecision)
	}
	if len(repo.created) != 0 {
		t.Fatalf("Evaluate must not persist")
	}
}

func TestReadBounded(t *testing.T) {
	content, err := readBounded(bytes.NewBufferString("12345"), 5)
	if err != nil || string(content) != "12345" {
		t.Fatalf("readBounded() = %q, %v", content, err)
	}
	if _, err := readBounded(bytes.NewBufferString("123456"), 5); !errors.Is(err, domain.ErrPayloadTooLarge) {
		t.Fatalf("expected payload too large, got %v", err)
	}
}
