package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/claims-triage/internal/core/domain"
	"github.com/kirillkom/claims-triage/internal/core/ports"
)

// SubmissionIntakeUseCase accepts a document for asynchronous processing.
type SubmissionIntakeUseCase struct {
	repo           ports.SubmissionRepository
	storage        ports.ObjectStorage
	queue          ports.MessageQueue
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewSubmissionIntakeUseCase(
	repo ports.SubmissionRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	maxUploadBytes int64,
	logger *slog.Logger,
) *SubmissionIntakeUseCase {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionIntakeUseCase{
		repo:           repo,
		storage:        storage,
		queue:          queue,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

func (uc *SubmissionIntakeUseCase) Upload(ctx context.Context, req ports.IntakeRequest) (*domain.Submission, error) {
	mediaType, err := domain.ParseMediaType(req.MediaType, req.Filename)
	if err != nil {
		return nil, err
	}
	if req.Body == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload submission", errors.New("document body is required"))
	}
	content, err := readBounded(req.Body, uc.maxUploadBytes)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(req.Filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	submission := &domain.Submission{
		ID:          id,
		Filename:    req.Filename,
		MediaType:   mediaType,
		StoragePath: storageKey,
		SizeBytes:   int64(len(content)),
		SubmittedBy: req.SubmittedBy,
		Status:      domain.SubmissionUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, submission); err != nil {
		if delErr := uc.storage.Delete(ctx, storageKey); delErr != nil {
			uc.logger.Warn("submission_cleanup_failed",
				"submission_id", id,
				"storage_path", storageKey,
				"error", delErr,
			)
		}
		return nil, fmt.Errorf("create submission: %w", err)
	}

	if err := uc.queue.PublishSubmission(ctx, submission.ID); err != nil {
		return nil, fmt.Errorf("publish submission event: %w", err)
	}

	return submission, nil
}

func (uc *SubmissionIntakeUseCase) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get submission", errors.New("id is required"))
	}
	return uc.repo.GetByID(ctx, id)
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "document.bin"
	}
	return base
}
