package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

const claimColumns = `id, policy_number, policyholder_name, effective_start, effective_end, incident_date, incident_time,
	incident_location, incident_description, claimant, third_parties, asset_type, asset_id, estimated_damage, claim_type,
	queue, routing_confidence, routing_reasoning, advisory_routing, extracted_fields, missing_fields, inconsistent_fields,
	document, status, submitted_by, assigned_to, created_at, updated_at`

type ClaimRepository struct {
	db *sql.DB
}

func NewClaimRepository(db *sql.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

func (r *ClaimRepository) Create(ctx context.Context, claim *domain.Claim) error {
	docs, err := marshalClaimDocuments(claim)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO claims (`+claimColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28)
`,
		claim.ID, claim.PolicyNumber, claim.PolicyholderName,
		nullTime(claim.EffectiveDates.Start), nullTime(claim.EffectiveDates.End), nullTime(claim.IncidentDate), claim.IncidentTime,
		docs.location, claim.IncidentDescription, docs.claimant, docs.thirdParties,
		string(claim.AssetType), claim.AssetID, claim.EstimatedDamage, string(claim.ClaimType),
		string(claim.RoutingDecision.Queue), claim.RoutingDecision.Confidence, claim.RoutingDecision.Reasoning,
		jsonOrNull(docs.advisory), docs.extracted, docs.missing, docs.inconsistent, docs.document,
		string(claim.Status), claim.SubmittedBy, claim.AssignedTo, claim.CreatedAt, claim.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

func (r *ClaimRepository) GetByID(ctx context.Context, id string) (*domain.Claim, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = $1`, id)

	claim, err := scanClaim(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrClaimNotFound, "get claim", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("get claim by id: %w", err)
	}
	return &claim, nil
}

// List returns newest claims first. Search matches policy number or holder
// name case-insensitively.
func (r *ClaimRepository) List(ctx context.Context, filter domain.ClaimFilter) ([]domain.Claim, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Queue != "" {
		args = append(args, string(filter.Queue))
		where = append(where, fmt.Sprintf("queue = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		where = append(where, fmt.Sprintf("(policy_number ILIKE $%d OR policyholder_name ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + claimColumns + ` FROM claims`
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	args = append(args, listLimit(filter.Limit))
	query += fmt.Sprintf("\nORDER BY created_at DESC\nLIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Claim, 0)
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, claim)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return out, nil
}

func (r *ClaimRepository) Update(ctx context.Context, id string, update domain.ClaimUpdate, updatedAt time.Time) error {
	var status, assignee sql.NullString
	if update.Status != nil {
		status = sql.NullString{String: string(*update.Status), Valid: true}
	}
	if update.AssignedTo != nil {
		assignee = sql.NullString{String: *update.AssignedTo, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE claims
SET status = COALESCE($2, status), assigned_to = COALESCE($3, assigned_to), updated_at = $4
WHERE id = $1
`, id, status, assignee, updatedAt)
	if err != nil {
		return fmt.Errorf("update claim: %w", err)
	}
	return ensureAffected(res, domain.ErrClaimNotFound, "update claim", id)
}

func (r *ClaimRepository) UpdateRouting(ctx context.Context, id string, validation domain.Validation, decision domain.RoutingDecision, updatedAt time.Time) error {
	missing, err := marshalJSON(nonNil(validation.Missing))
	if err != nil {
		return fmt.Errorf("marshal missing fields: %w", err)
	}
	inconsistent, err := marshalJSON(nonNil(validation.Inconsistent))
	if err != nil {
		return fmt.Errorf("marshal inconsistent fields: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE claims
SET queue = $2, routing_confidence = $3, routing_reasoning = $4, missing_fields = $5, inconsistent_fields = $6, updated_at = $7
WHERE id = $1
`, id, string(decision.Queue), decision.Confidence, decision.Reasoning, missing, inconsistent, updatedAt)
	if err != nil {
		return fmt.Errorf("update claim routing: %w", err)
	}
	return ensureAffected(res, domain.ErrClaimNotFound, "update claim routing", id)
}

func (r *ClaimRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM claims WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete claim: %w", err)
	}
	return ensureAffected(res, domain.ErrClaimNotFound, "delete claim", id)
}

type claimDocuments struct {
	location, claimant, thirdParties, advisory, extracted, missing, inconsistent, document []byte
}

func marshalClaimDocuments(claim *domain.Claim) (claimDocuments, error) {
	var (
		docs claimDocuments
		err  error
	)
	fields := []struct {
		name string
		dst  *[]byte
		v    any
	}{
		{"incident location", &docs.location, claim.IncidentLocation},
		{"claimant", &docs.claimant, claim.Claimant},
		{"third parties", &docs.thirdParties, nonNil(claim.ThirdParties)},
		{"extracted fields", &docs.extracted, claim.ExtractedFields},
		{"missing fields", &docs.missing, nonNil(claim.MissingFields)},
		{"inconsistent fields", &docs.inconsistent, nonNil(claim.InconsistentFields)},
		{"document", &docs.document, claim.Document},
	}
	for _, f := range fields {
		if *f.dst, err = marshalJSON(f.v); err != nil {
			return docs, fmt.Errorf("marshal %s: %w", f.name, err)
		}
	}
	if claim.AdvisoryRouting != nil {
		if docs.advisory, err = marshalJSON(claim.AdvisoryRouting); err != nil {
			return docs, fmt.Errorf("marshal advisory routing: %w", err)
		}
	}
	return docs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (domain.Claim, error) {
	var (
		claim                                      domain.Claim
		effectiveStart, effectiveEnd, incidentDate sql.NullTime
		assetType, claimType, queue, status        string
		location, claimant, thirdParties, advisory []byte
		extracted, missing, inconsistent, document []byte
	)
	err := row.Scan(
		&claim.ID, &claim.PolicyNumber, &claim.PolicyholderName, &effectiveStart, &effectiveEnd, &incidentDate, &claim.IncidentTime,
		&location, &claim.IncidentDescription, &claimant, &thirdParties, &assetType, &claim.AssetID, &claim.EstimatedDamage, &claimType,
		&queue, &claim.RoutingDecision.Confidence, &claim.RoutingDecision.Reasoning, &advisory, &extracted, &missing, &inconsistent,
		&document, &status, &claim.SubmittedBy, &claim.AssignedTo, &claim.CreatedAt, &claim.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return claim, err
		}
		return claim, fmt.Errorf("scan claim: %w", err)
	}

	claim.EffectiveDates = domain.Period{Start: timePtr(effectiveStart), End: timePtr(effectiveEnd)}
	claim.IncidentDate = timePtr(incidentDate)
	claim.AssetType = domain.AssetType(assetType)
	claim.ClaimType = domain.ClaimType(claimType)
	claim.RoutingDecision.Queue = domain.Queue(queue)
	claim.Status = domain.ClaimStatus(status)

	targets := []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"incident location", location, &claim.IncidentLocation},
		{"claimant", claimant, &claim.Claimant},
		{"third parties", thirdParties, &claim.ThirdParties},
		{"extracted fields", extracted, &claim.ExtractedFields},
		{"missing fields", missing, &claim.MissingFields},
		{"inconsistent fields", inconsistent, &claim.InconsistentFields},
		{"document", document, &claim.Document},
	}
	for _, t := range targets {
		if len(t.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(t.raw, t.dst); err != nil {
			return claim, fmt.Errorf("unmarshal %s: %w", t.name, err)
		}
	}
	if len(advisory) > 0 {
		claim.AdvisoryRouting = &domain.RoutingDecision{}
		if err := json.Unmarshal(advisory, claim.AdvisoryRouting); err != nil {
			return claim, fmt.Errorf("unmarshal advisory routing: %w", err)
		}
	}
	claim.ThirdParties = nonNil(claim.ThirdParties)
	claim.MissingFields = nonNil(claim.MissingFields)
	claim.InconsistentFields = nonNil(claim.InconsistentFields)
	return claim, nil
}

func ensureAffected(res sql.Result, kind error, op, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return domain.WrapError(kind, op, fmt.Errorf("id=%s", id))
	}
	return nil
}

func listLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// jsonOrNull keeps an absent document as SQL NULL.
func jsonOrNull(raw []byte) any {
	if raw == nil {
		return nil
	}
	return raw
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
