package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/claims-triage/internal/core/domain"
	"github.com/kirillkom/claims-triage/internal/core/ports"
)

// ProcessSubmissionUseCase runs a stored submission through the claim pipeline
// and records the outcome. The stored bytes are removed only after the outcome
// is saved, so a submission stuck in processing can still be rerun.
type ProcessSubmissionUseCase struct {
	repo    ports.SubmissionRepository
	storage ports.ObjectStorage
	claims  *ProcessClaimUseCase
	logger  *slog.Logger
}

func NewProcessSubmissionUseCase(
	repo ports.SubmissionRepository,
	storage ports.ObjectStorage,
	claims *ProcessClaimUseCase,
	logger *slog.Logger,
) *ProcessSubmissionUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessSubmissionUseCase{
		repo:    repo,
		storage: storage,
		claims:  claims,
		logger:  logger,
	}
}

func (uc *ProcessSubmissionUseCase) ProcessByID(ctx context.Context, submissionID string) error {
	submission, err := uc.repo.GetByID(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("get submission: %w", err)
	}
	if submission.Status == domain.SubmissionCompleted {
		// Redelivered message for a finished submission.
		return nil
	}

	if err := uc.repo.UpdateStatus(ctx, submission.ID, domain.SubmissionProcessing); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	claim, runErr := uc.run(ctx, submission)
	if runErr != nil {
		return uc.markFailed(ctx, submission, runErr)
	}

	if err := uc.repo.RecordOutcome(ctx, submission.ID, domain.SubmissionOutcome{
		Status:  domain.SubmissionCompleted,
		ClaimID: claim.ID,
	}); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	uc.discard(ctx, submission)
	return nil
}

func (uc *ProcessSubmissionUseCase) run(ctx context.Context, submission *domain.Submission) (*domain.Claim, error) {
	rc, err := uc.storage.Open(ctx, submission.StoragePath)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtractionIO, "open stored document", err)
	}
	defer rc.Close()

	content, err := readBounded(rc, uc.claims.maxUploadBytes)
	if err != nil {
		return nil, err
	}

	doc := domain.RawDocument{
		Filename:  submission.Filename,
		MediaType: submission.MediaType,
		Content:   content,
	}
	return uc.claims.ProcessDocument(ctx, doc, submission.SubmittedBy)
}

func (uc *ProcessSubmissionUseCase) markFailed(ctx context.Context, submission *domain.Submission, cause error) error {
	failure := domain.ClassifyFailure(cause)
	if err := uc.repo.RecordOutcome(ctx, submission.ID, domain.SubmissionOutcome{
		Status:        domain.SubmissionFailed,
		FailureReason: failure.Reason,
		Error:         cause.Error(),
	}); err != nil {
		return fmt.Errorf("mark failed after %v: %w", cause, err)
	}
	uc.discard(ctx, submission)
	return cause
}

func (uc *ProcessSubmissionUseCase) discard(ctx context.Context, submission *domain.Submission) {
	if err := uc.storage.Delete(ctx, submission.StoragePath); err != nil {
		uc.logger.Warn("submission_cleanup_failed",
			"submission_id", submission.ID,
			"storage_path", submission.StoragePath,
			"error", err,
		)
	}
}
