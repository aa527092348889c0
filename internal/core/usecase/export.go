package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/kirillkom/claims-triage/internal/core/domain"
	"github.com/kirillkom/claims-triage/internal/core/ports"
)

type ExportClaimsUseCase struct {
	repo   ports.ClaimRepository
	writer ports.ClaimWorkbookWriter
}

func NewExportClaimsUseCase(repo ports.ClaimRepository, writer ports.ClaimWorkbookWriter) *ExportClaimsUseCase {
	return &ExportClaimsUseCase{repo: repo, writer: writer}
}

// Export writes the filtered claims as a workbook and returns how many rows
// were written.
func (uc *ExportClaimsUseCase) Export(ctx context.Context, filter domain.ClaimFilter, w io.Writer) (int, error) {
	if filter.Limit <= 0 {
		filter.Limit = MaxClaimListLimit
	}
	filter, err := normalizeFilter(filter)
	if err != nil {
		return 0, err
	}
	claims, err := uc.repo.List(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("list claims for export: %w", err)
	}
	if err := uc.writer.WriteClaims(w, claims); err != nil {
		return 0, fmt.Errorf("write claims workbook: %w", err)
	}
	return len(claims), nil
}
