package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/kirillkom/claims-triage/internal/core/domain"
	"github.com/kirillkom/claims-triage/internal/core/ports"
	"github.com/kirillkom/claims-triage/internal/core/triage"
)

const (
	DefaultMaxUploadBytes    int64 = 10 << 20
	DefaultExtractionTimeout       = 90 * time.Second
)

type ProcessClaimOptions struct {
	MaxUploadBytes    int64
	ExtractionTimeout time.Duration
	Logger            *slog.Logger
	Observer          ports.PipelineObserver
	// Now anchors the future-date check of the validator.
	Now               func() time.Time
}

// ProcessClaimUseCase runs one document through normalization, extraction,
// validation, routing and assembly, then persists the claim with one insert.
type ProcessClaimUseCase struct {
	normalizer ports.DocumentNormalizer
	extractor  ports.ClaimExtractor
	router     *triage.Router
	assembler  *triage.Assembler
	repo       ports.ClaimRepository

	maxUploadBytes    int64
	extractionTimeout time.Duration
	logger            *slog.Logger
	observer          ports.PipelineObserver
	now               func() time.Time
}

func NewProcessClaimUseCase(
	normalizer ports.DocumentNormalizer,
	extractor ports.ClaimExtractor,
	router *triage.Router,
	assembler *triage.Assembler,
	repo ports.ClaimRepository,
	opts ProcessClaimOptions,
) *ProcessClaimUseCase {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.ExtractionTimeout <= 0 {
		opts.ExtractionTimeout = DefaultExtractionTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ProcessClaimUseCase{
		normalizer:        normalizer,
		extractor:         extractor,
		router:            router,
		assembler:         assembler,
		repo:              repo,
		maxUploadBytes:    opts.MaxUploadBytes,
		extractionTimeout: opts.ExtractionTimeout,
		logger:            opts.Logger,
		observer:          opts.Observer,
		now:               opts.Now,
	}
}

func (uc *ProcessClaimUseCase) Process(ctx context.Context, req ports.IntakeRequest) (*domain.ProcessingResult, error) {
	start := time.Now()
	doc, err := uc.ReadDocument(req)
	if err != nil {
		if uc.observer != nil {
			uc.observer.PipelineFailed(domain.ClassifyFailure(err).Reason, time.Since(start))
		}
		return nil, err
	}

	claim, err := uc.ProcessDocument(ctx, doc, req.SubmittedBy)
	if err != nil {
		return nil, err
	}
	return &domain.ProcessingResult{
		ClaimID:            claim.ID,
		ExtractedFields:    claim.ExtractedFields,
		MissingFields:      claim.MissingFields,
		InconsistentFields: claim.InconsistentFields,
		RoutingDecision:    claim.RoutingDecision,
		AdvisoryRouting:    claim.AdvisoryRouting,
	}, nil
}

// ReadDocument resolves the media type and reads the body under the upload
// ceiling. Nothing is normalized before the size check passes.
func (uc *ProcessClaimUseCase) ReadDocument(req ports.IntakeRequest) (domain.RawDocument, error) {
	mediaType, err := domain.ParseMediaType(req.MediaType, req.Filename)
	if err != nil {
		return domain.RawDocument{}, err
	}
	if req.Body == nil {
		return domain.RawDocument{}, domain.WrapError(domain.ErrInvalidInput, "read document", errors.New("document body is required"))
	}
	content, err := readBounded(req.Body, uc.maxUploadBytes)
	if err != nil {
		return domain.RawDocument{}, err
	}
	return domain.RawDocument{Filename: req.Filename, MediaType: mediaType, Content: content}, nil
}

// ProcessDocument evaluates and persists. A failed or cancelled run stores nothing.
func (uc *ProcessClaimUseCase) ProcessDocument(ctx context.Context, doc domain.RawDocument, submittedBy string) (*domain.Claim, error) {
	start := time.Now()
	claim, err := uc.Evaluate(ctx, doc, submittedBy)
	if err == nil {
		err = uc.persist(ctx, claim)
	}
	if err != nil {
		failure := domain.ClassifyFailure(err)
		uc.logger.Warn("claim_pipeline_failed",
			"filename", doc.Filename,
			"media_type", doc.MediaType,
			"reason", failure.Reason,
			"retryable", failure.Retryable,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		if uc.observer != nil {
			uc.observer.PipelineFailed(failure.Reason, time.Since(start))
		}
		return nil, err
	}

	if uc.observer != nil {
		uc.observer.ClaimRouted(claim.RoutingDecision.Queue, time.Since(start))
	}
	uc.logger.Info("claim_pipeline_completed",
		"claim_id", claim.ID,
		"queue", claim.RoutingDecision.Queue,
		"confidence", claim.RoutingDecision.Confidence,
		"missing_fields", len(claim.MissingFields),
		"inconsistent_fields", len(claim.InconsistentFields),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return claim, nil
}

// Evaluate runs the pipeline without touching the repository.
func (uc *ProcessClaimUseCase) Evaluate(ctx context.Context, doc domain.RawDocument, submittedBy string) (*domain.Claim, error) {
	text, err := uc.normalizer.Normalize(ctx, doc)
	if err != nil {
		return nil, err
	}

	extraction, err := uc.extract(ctx, text)
	if err != nil {
		return nil, err
	}

	validation := triage.Validate(extraction.Fields, triage.ValidateOptions{Now: uc.now()})
	decision := uc.router.Route(extraction.Fields, validation)

	return uc.assembler.Assemble(triage.AssemblyInput{
		Extraction:  extraction,
		Validation:  validation,
		Decision:    decision,
		SubmittedBy: submittedBy,
		Document: domain.DocumentInfo{
			Filename:  doc.Filename,
			MediaType: doc.MediaType,
			SizeBytes: int64(len(doc.Content)),
			Pages:     text.Pages,
		},
	})
}

func (uc *ProcessClaimUseCase) extract(ctx context.Context, text domain.NormalizedText) (domain.ExtractionResult, error) {
	extractCtx, cancel := context.WithTimeout(ctx, uc.extractionTimeout)
	defer cancel()

	result, err := uc.extractor.Extract(extractCtx, text)
	if err != nil {
		if errors.Is(extractCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil && !domain.IsKind(err, domain.ErrExtractionTimeout) {
			return domain.ExtractionResult{}, domain.WrapError(domain.ErrExtractionTimeout, "extract claim fields", err)
		}
		return domain.ExtractionResult{}, err
	}
	return result, nil
}

func (uc *ProcessClaimUseCase) persist(ctx context.Context, claim *domain.Claim) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("persist claim: %w", err)
	}
	if err := uc.repo.Create(ctx, claim); err != nil {
		return fmt.Errorf("persist claim: %w", err)
	}
	return nil
}

func readBounded(body io.Reader, limit int64) ([]byte, error) {
	content, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtractionIO, "read document", err)
	}
	if int64(len(content)) > limit {
		return nil, domain.WrapError(domain.ErrPayloadTooLarge, "read document", fmt.Errorf("document exceeds %d bytes", limit))
	}
	return content, nil
}
