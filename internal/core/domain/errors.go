package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrClaimNotFound      = errors.New("claim not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTemporary          = errors.New("temporary failure")

	ErrUnsupportedMediaType        = errors.New("unsupported media type")
	ErrPayloadTooLarge             = errors.New("payload too large")
	ErrExtractionIO                = errors.New("document could not be read")
	ErrExtractionService           = errors.New("extraction service error")
	ErrExtractionTimeout           = errors.New("extraction timeout")
	ErrMalformedExtractionResponse = errors.New("malformed extraction response")
	ErrAssembly                    = errors.New("claim assembly error")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// FailureReason is the caller-facing classification of a failed pipeline run.
type FailureReason string

const (
	ReasonUnsupportedMediaType  FailureReason = "unsupported_media_type"
	ReasonPayloadTooLarge       FailureReason = "payload_too_large"
	ReasonDocumentUnreadable    FailureReason = "document_unreadable"
	ReasonExtractionUnavailable FailureReason = "extraction_unavailable"
	ReasonExtractionTimeout     FailureReason = "extraction_timeout"
	ReasonExtractionMalformed   FailureReason = "extraction_malformed"
	ReasonInternalAssembly      FailureReason = "internal_assembly"
	ReasonInvalidInput          FailureReason = "invalid_input"
	ReasonNotFound              FailureReason = "not_found"
	ReasonCanceled              FailureReason = "canceled"
	ReasonInternal              FailureReason = "internal"
)

type Failure struct {
	Reason         FailureReason `json:"reason"`
	// Retryable is true when resubmitting the same document may succeed.
	Retryable      bool          `json:"retryable"`
	// UserActionable is true when the submitter has to fix the document.
	UserActionable bool          `json:"userActionable"`
}

// ClassifyFailure separates "your document was unreadable" from "the extraction
// service is unavailable" from "internal assembly bug".
func ClassifyFailure(err error) Failure {
	switch {
	case err == nil:
		return Failure{}
	case IsKind(err, ErrUnsupportedMediaType):
		return Failure{Reason: ReasonUnsupportedMediaType, UserActionable: true}
	case IsKind(err, ErrPayloadTooLarge):
		return Failure{Reason: ReasonPayloadTooLarge, UserActionable: true}
	case IsKind(err, ErrExtractionIO):
		return Failure{Reason: ReasonDocumentUnreadable, UserActionable: true}
	case IsKind(err, ErrExtractionTimeout):
		return Failure{Reason: ReasonExtractionTimeout, Retryable: true}
	case IsKind(err, ErrMalformedExtractionResponse):
		return Failure{Reason: ReasonExtractionMalformed, Retryable: true}
	case IsKind(err, ErrExtractionService), IsKind(err, ErrTemporary):
		return Failure{Reason: ReasonExtractionUnavailable, Retryable: true}
	case IsKind(err, ErrAssembly):
		return Failure{Reason: ReasonInternalAssembly}
	case IsKind(err, ErrInvalidInput):
		return Failure{Reason: ReasonInvalidInput, UserActionable: true}
	case IsKind(err, ErrClaimNotFound), IsKind(err, ErrSubmissionNotFound):
		return Failure{Reason: ReasonNotFound}
	case errors.Is(err, context.Canceled):
		return Failure{Reason: ReasonCanceled, Retryable: true}
	default:
		return Failure{Reason: ReasonInternal}
	}
}
