package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

type SubmissionRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *SubmissionRepository) Create(ctx context.Context, submission *domain.Submission) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO claim_submissions (
	id, filename, media_type, storage_path, size_bytes, submitted_by, status, claim_id, failure_reason, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		submission.ID, submission.Filename, string(submission.MediaType), submission.StoragePath, submission.SizeBytes,
		submission.SubmittedBy, string(submission.Status), submission.ClaimID, string(submission.FailureReason),
		submission.Error, submission.CreatedAt, submission.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, media_type, storage_path, size_bytes, submitted_by, status, claim_id, failure_reason, error_message, created_at, updated_at
FROM claim_submissions
WHERE id = $1
`, id)

	var s domain.Submission
	var mediaType, status, reason string
	err := row.Scan(
		&s.ID, &s.Filename, &mediaType, &s.StoragePath, &s.SizeBytes, &s.SubmittedBy,
		&status, &s.ClaimID, &reason, &s.Error, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrSubmissionNotFound, "get submission", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan submission: %w", err)
	}
	s.MediaType = domain.MediaType(mediaType)
	s.Status = domain.SubmissionStatus(status)
	s.FailureReason = domain.FailureReason(reason)
	return &s, nil
}

func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE claim_submissions
SET status = $2, updated_at = $3
WHERE id = $1
`, id, string(status), r.now())
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	return ensureAffected(res, domain.ErrSubmissionNotFound, "update submission status", id)
}

func (r *SubmissionRepository) RecordOutcome(ctx context.Context, id string, outcome domain.SubmissionOutcome) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE claim_submissions
SET status = $2, claim_id = $3, failure_reason = $4, error_message = $5, updated_at = $6
WHERE id = $1
`, id, string(outcome.Status), outcome.ClaimID, string(outcome.FailureReason), outcome.Error, r.now())
	if err != nil {
		return fmt.Errorf("record submission outcome: %w", err)
	}
	return ensureAffected(res, domain.ErrSubmissionNotFound, "record submission outcome", id)
}
