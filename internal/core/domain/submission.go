package domain

import "time"

type SubmissionStatus string

const (
	SubmissionUploaded   SubmissionStatus = "uploaded"
	SubmissionProcessing SubmissionStatus = "processing"
	SubmissionCompleted  SubmissionStatus = "completed"
	SubmissionFailed     SubmissionStatus = "failed"
)

// Submission tracks one asynchronously processed upload.
type Submission struct {
	ID            string           `json:"id"`
	Filename      string           `json:"filename"`
	MediaType     MediaType        `json:"mediaType"`
	StoragePath   string           `json:"storagePath"`
	SizeBytes     int64            `json:"sizeBytes"`
	SubmittedBy   string           `json:"submittedBy,omitempty"`
	Status        SubmissionStatus `json:"status"`
	ClaimID       string           `json:"claimId,omitempty"`
	FailureReason FailureReason    `json:"failureReason,omitempty"`
	Error         string           `json:"error,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// SubmissionOutcome is written back once the worker finishes a submission.
type SubmissionOutcome struct {
	Status        SubmissionStatus
	ClaimID       string
	FailureReason FailureReason
	Error         string
}
