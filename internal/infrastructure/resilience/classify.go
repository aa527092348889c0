package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
)

// StatusCoder is implemented by adapter errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatusCode() int
}

// ClassifyTransport is the shared classifier for outbound HTTP calls.
// Caller cancellation never counts against the breaker.
func ClassifyTransport(err error) ErrorClassification {
	if err == nil {
		return ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if IsCircuitOpen(err) {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var status StatusCoder
	if errors.As(err, &status) {
		if RetryableHTTPStatus(status.HTTPStatusCode()) {
			return ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return ErrorClassification{Retryable: false, RecordFailure: true}
}

func RetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
