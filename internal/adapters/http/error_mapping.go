package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

// statusClientClosedRequest marks requests abandoned by the caller.
const statusClientClosedRequest = 499

type errorResponse struct {
	Error     string               `json:"error"`
	Reason    domain.FailureReason `json:"reason,omitempty"`
	Retryable bool                 `json:"retryable"`
}

func mapErrorToHTTPStatus(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case domain.IsKind(err, domain.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case domain.IsKind(err, domain.ErrPayloadTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case domain.IsKind(err, domain.ErrExtractionIO):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrExtractionTimeout):
		return http.StatusGatewayTimeout
	case domain.IsKind(err, domain.ErrExtractionService),
		domain.IsKind(err, domain.ErrMalformedExtractionResponse):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrClaimNotFound), domain.IsKind(err, domain.ErrSubmissionNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	failure := domain.ClassifyFailure(err)
	if status == http.StatusRequestEntityTooLarge {
		failure = domain.Failure{Reason: domain.ReasonPayloadTooLarge, UserActionable: true}
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("http_handler_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"reason", failure.Reason,
			"error", err,
		)
		message = "internal error"
	}

	writeJSON(w, status, errorResponse{
		Error:     message,
		Reason:    failure.Reason,
		Retryable: failure.Retryable,
	})
}
