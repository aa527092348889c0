package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

// Completer sends one prompt to a language-model backend and returns its raw
// text. Implementations map transport failures to ErrExtractionService and
// deadlines to ErrExtractionTimeout.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

type Extractor struct {
	completer Completer
	logger    *slog.Logger
}

func NewExtractor(completer Completer, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{completer: completer, logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, text domain.NormalizedText) (domain.ExtractionResult, error) {
	start := time.Now()
	raw, err := e.completer.Complete(ctx, BuildPrompt(text.Text))
	if err != nil {
		err = classifyCompletionError(ctx, err)
		e.logger.Warn("extraction_request_failed",
			"backend", e.completer.Name(),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return domain.ExtractionResult{}, err
	}

	result, err := ParseResponse(raw)
	if err != nil {
		e.logger.Warn("extraction_response_malformed",
			"backend", e.completer.Name(),
			"response_chars", len(raw),
			"error", err,
		)
		return domain.ExtractionResult{}, err
	}

	e.logger.Info("extraction_request",
		"backend", e.completer.Name(),
		"pages", text.Pages,
		"text_chars", len(text.Text),
		"duration_ms", time.Since(start).Milliseconds(),
		"advisory_queue", advisoryQueue(result),
	)
	return result, nil
}

// classifyCompletionError guarantees a typed extraction error even when a
// backend returns a bare one.
func classifyCompletionError(ctx context.Context, err error) error {
	switch {
	case domain.IsKind(err, domain.ErrExtractionTimeout),
		domain.IsKind(err, domain.ErrExtractionService),
		domain.IsKind(err, domain.ErrMalformedExtractionResponse):
		return err
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return domain.WrapError(domain.ErrExtractionTimeout, "extract claim fields", err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("extract claim fields: %w", err)
	default:
		return domain.WrapError(domain.ErrExtractionService, "extract claim fields", err)
	}
}

func advisoryQueue(result domain.ExtractionResult) string {
	if result.AdvisoryRouting == nil {
		return ""
	}
	return string(result.AdvisoryRouting.Queue)
}
