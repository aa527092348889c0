package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/claims-triage/internal/core/domain"
	"github.com/kirillkom/claims-triage/internal/core/ports"
	"github.com/kirillkom/claims-triage/internal/core/triage"
)

const (
	DefaultClaimListLimit = 50
	MaxClaimListLimit     = 100
)

// ClaimService covers the record-keeping operations around stored claims.
// Routing only changes through Reroute.
type ClaimService struct {
	repo   ports.ClaimRepository
	router *triage.Router
	logger *slog.Logger
	now    func() time.Time
}

func NewClaimService(repo ports.ClaimRepository, router *triage.Router, logger *slog.Logger) *ClaimService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClaimService{
		repo:   repo,
		router: router,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *ClaimService) List(ctx context.Context, filter domain.ClaimFilter) ([]domain.Claim, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	claims, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return claims, nil
}

func (s *ClaimService) Get(ctx context.Context, id string) (*domain.Claim, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get claim", errors.New("id is required"))
	}
	return s.repo.GetByID(ctx, id)
}

func (s *ClaimService) Update(ctx context.Context, id string, update domain.ClaimUpdate) (*domain.Claim, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update claim", errors.New("id is required"))
	}
	if update.IsEmpty() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update claim", errors.New("nothing to update"))
	}
	if update.Status != nil && !update.Status.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update claim", fmt.Errorf("status %q is not supported", *update.Status))
	}
	if update.AssignedTo != nil {
		assignee := strings.TrimSpace(*update.AssignedTo)
		update.AssignedTo = &assignee
	}

	if err := s.repo.Update(ctx, id, update, s.now()); err != nil {
		return nil, fmt.Errorf("update claim: %w", err)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *ClaimService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "delete claim", errors.New("id is required"))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete claim: %w", err)
	}
	return nil
}

// Reroute re-validates the stored candidate fields against the current rules
// and replaces the routing decision.
func (s *ClaimService) Reroute(ctx context.Context, id string) (*domain.Claim, error) {
	claim, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	validation := triage.Validate(claim.ExtractedFields, triage.ValidateOptions{Now: now})
	decision := s.router.Route(claim.ExtractedFields, validation)

	if err := s.repo.UpdateRouting(ctx, claim.ID, validation, decision, now); err != nil {
		return nil, fmt.Errorf("update routing: %w", err)
	}

	s.logger.Info("claim_rerouted",
		"claim_id", claim.ID,
		"previous_queue", claim.RoutingDecision.Queue,
		"queue", decision.Queue,
		"confidence", decision.Confidence,
	)

	claim.MissingFields = nonNilMissing(validation.Missing)
	claim.InconsistentFields = nonNilInconsistent(validation.Inconsistent)
	claim.RoutingDecision = decision
	claim.UpdatedAt = now
	return claim, nil
}

func normalizeFilter(filter domain.ClaimFilter) (domain.ClaimFilter, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return filter, domain.WrapError(domain.ErrInvalidInput, "list claims", fmt.Errorf("status %q is not supported", filter.Status))
	}
	if filter.Queue != "" && !filter.Queue.Valid() {
		return filter, domain.WrapError(domain.ErrInvalidInput, "list claims", fmt.Errorf("queue %q is not supported", filter.Queue))
	}
	filter.Search = strings.TrimSpace(filter.Search)
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultClaimListLimit
	case filter.Limit > MaxClaimListLimit:
		filter.Limit = MaxClaimListLimit
	}
	return filter, nil
}

func nonNilMissing(in []domain.MissingFieldEntry) []domain.MissingFieldEntry {
	if in == nil {
		return []domain.MissingFieldEntry{}
	}
	return in
}

func nonNilInconsistent(in []domain.InconsistentFieldEntry) []domain.InconsistentFieldEntry {
	if in == nil {
		return []domain.InconsistentFieldEntry{}
	}
	return in
}
