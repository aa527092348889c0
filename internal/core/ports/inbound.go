package ports

import (
	"context"
	"io"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

// IntakeRequest describes one uploaded FNOL document.
type IntakeRequest struct {
	Filename    string
	MediaType   string
	Body        io.Reader
	SubmittedBy string
}

// ClaimProcessor is the inbound contract for one synchronous pipeline run.
type ClaimProcessor interface {
	Process(ctx context.Context, req IntakeRequest) (*domain.ProcessingResult, error)
}

// SubmissionIntake is the inbound contract for asynchronous uploads.
type SubmissionIntake interface {
	Upload(ctx context.Context, req IntakeRequest) (*domain.Submission, error)
}

// SubmissionReader is the inbound read model for submission state.
type SubmissionReader interface {
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
}

// SubmissionProcessor is the inbound contract for the queue worker.
type SubmissionProcessor interface {
	ProcessByID(ctx context.Context, submissionID string) error
}

// ClaimManager covers the record-keeping operations around stored claims.
type ClaimManager interface {
	List(ctx context.Context, filter domain.ClaimFilter) ([]domain.Claim, error)
	Get(ctx context.Context, id string) (*domain.Claim, error)
	Update(ctx context.Context, id string, update domain.ClaimUpdate) (*domain.Claim, error)
	Delete(ctx context.Context, id string) error
	Reroute(ctx context.Context, id string) (*domain.Claim, error)
}

// ClaimExportService renders stored claims for case-management handoff.
type ClaimExportService interface {
	Export(ctx context.Context, filter domain.ClaimFilter, w io.Writer) (int, error)
}
