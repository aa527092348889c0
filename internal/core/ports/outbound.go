package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

// ClaimRepository persists and reads claim records.
type ClaimRepository interface {
	Create(ctx context.Context, claim *domain.Claim) error
	GetByID(ctx context.Context, id string) (*domain.Claim, error)
	List(ctx context.Context, filter domain.ClaimFilter) ([]domain.Claim, error)
	Update(ctx context.Context, id string, update domain.ClaimUpdate, updatedAt time.Time) error
	UpdateRouting(ctx context.Context, id string, validation domain.Validation, decision domain.RoutingDecision, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// SubmissionRepository persists asynchronous intake state.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *domain.Submission) error
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
	UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus) error
	RecordOutcome(ctx context.Context, id string, outcome domain.SubmissionOutcome) error
}

// ObjectStorage stores raw uploads until the worker picks them up.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes submission events.
type MessageQueue interface {
	PublishSubmission(ctx context.Context, submissionID string) error
	SubscribeSubmissions(ctx context.Context, handler func(context.Context, string) error) error
}

// DocumentNormalizer turns raw bytes into canonical text.
type DocumentNormalizer interface {
	Normalize(ctx context.Context, doc domain.RawDocument) (domain.NormalizedText, error)
}

// ClaimExtractor asks the language-model service for candidate claim fields.
type ClaimExtractor interface {
	Extract(ctx context.Context, text domain.NormalizedText) (domain.ExtractionResult, error)
}

// ClaimWorkbookWriter encodes claims as a spreadsheet.
type ClaimWorkbookWriter interface {
	WriteClaims(w io.Writer, claims []domain.Claim) error
}

// PipelineObserver receives one notification per finished pipeline run.
type PipelineObserver interface {
	ClaimRouted(queue domain.Queue, duration time.Duration)
	PipelineFailed(reason domain.FailureReason, duration time.Duration)
}
