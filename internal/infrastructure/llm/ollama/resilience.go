package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/kirillkom/claims-triage/internal/core/domain"
	"github.com/kirillkom/claims-triage/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "ollama status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("ollama %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ollama %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

func classifyOllamaError(err error) resilience.ErrorClassification {
	return resilience.ClassifyTransport(err)
}

// toExtractionError maps a failed call onto the extraction error kinds.
func toExtractionError(ctx context.Context, operation string, err error) error {
	if errors.Is(err, context.Canceled) && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", operation, err)
	}
	if isTimeout(ctx, err) {
		return domain.WrapError(domain.ErrExtractionTimeout, operation, err)
	}
	return domain.WrapError(domain.ErrExtractionService, operation, err)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
