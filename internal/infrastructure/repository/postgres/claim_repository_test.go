package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

func newClaimRepoWithMock(t *testing.T) (*ClaimRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewClaimRepository(db), mock, func() { _ = db.Close() }
}

var claimColumnNames = []string{
	"id", "policy_number", "policyholder_name", "effective_start", "effective_end", "incident_date", "incident_time",
	"incident_location", "incident_description", "claimant", "third_parties", "asset_type", "asset_id", "estimated_damage", "claim_type",
	"queue", "routing_confidence", "routing_reasoning", "advisory_routing", "extracted_fields", "missing_fields", "inconsistent_fields",
	"document", "status", "submitted_by", "assigned_to", "created_at", "updated_at",
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	return raw
}

func claimRow(t *testing.T, rows *sqlmock.Rows, id string, created time.Time) *sqlmock.Rows {
	t.Helper()
	incident := time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC)
	return rows.AddRow(
		id, "POL-1", "Rajesh Kumar", nil, nil, incident, "10:30",
		mustJSON(t, domain.Location{City: "Bangalore"}), "Minor collision", mustJSON(t, domain.Claimant{Name: "Rajesh Kumar"}), []byte(`[]`),
		"vehicle", "", 8500.0, "property-damage",
		"fast-track", 0.95, "Damage below threshold", nil,
		mustJSON(t, domain.CandidateFields{PolicyNumber: "POL-1"}), []byte(`[]`), []byte(`[]`),
		mustJSON(t, domain.DocumentInfo{Filename: "fnol.txt", MediaType: domain.MediaTypePlainText}), "pending", "agent-7", "", created, created,
	)
}

func TestClaimRepositoryCreate(t *testing.T) {
	repo, mock, done := newClaimRepoWithMock(t)
	defer done()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	claim := &domain.Claim{
		ID:               "c-1",
		PolicyNumber:     "POL-1",
		PolicyholderName: "Rajesh Kumar",
		AssetType:        domain.AssetVehicle,
		ClaimType:        domain.ClaimPropertyDamage,
		EstimatedDamage:  8500,
		RoutingDecision:  domain.RoutingDecision{Queue: domain.QueueFastTrack, Confidence: 0.95, Reasoning: "ok"},
		Status:           domain.ClaimStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	mock.ExpectExec("INSERT INTO claims").
		WithArgs(
			"c-1", "POL-1", "Rajesh Kumar", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "",
			sqlmock.AnyArg(), "", sqlmock.AnyArg(), []byte(`[]`),
			"vehicle", "", 8500.0, "property-damage",
			"fast-track", 0.95, "ok", nil, sqlmock.AnyArg(), []byte(`[]`), []byte(`[]`), sqlmock.AnyArg(),
			"pending", "", "", now, now,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), claim); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClaimRepositoryGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newClaimRepoWithMock(t)
	defer done()

	mock.ExpectQuery("FROM claims WHERE id = ").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClaimRepositoryGetByIDDecodesRow(t *testing.T) {
	repo, mock, done := newClaimRepoWithMock(t)
	defer done()

	created := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM claims WHERE id = ").
		WithArgs("c-1").
		WillReturnRows(claimRow(t, sqlmock.NewRows(claimColumnNames), "c-1", created))

	claim, err := repo.GetByID(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if claim.RoutingDecision.Queue != domain.QueueFastTrack || claim.AssetType != domain.AssetVehicle {
		t.Fatalf("unexpected claim: %+v", claim)
	}
	if claim.IncidentDate == nil || claim.IncidentDate.Format("2006-01-02") != "2024-11-20" {
		t.Fatalf("unexpected incident date: %v", claim.IncidentDate)
	}
	if claim.EffectiveDates.Start != nil || claim.AdvisoryRouting != nil {
		t.Fatalf("null columns must stay nil: %+v", claim)
	}
	if claim.IncidentLocation.City != "Bangalore" || claim.Claimant.Name != "Rajesh Kumar" || claim.ExtractedFields.PolicyNumber != "POL-1" {
		t.Fatalf("json columns not decoded: %+v", claim)
	}
	if claim.ThirdParties == nil || claim.MissingFields == nil {
		t.Fatalf("slices must be non-nil")
	}
}

func TestClaimRepositoryListBuildsFilter(t *testing.T) {
	repo, mock, done := newClaimRepoWithMock(t)
	defer done()

	created := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(claimColumnNames)
	claimRow(t, rows, "c-2", created)
	claimRow(t, rows, "c-1", created.Add(-time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $1 AND queue = $2 AND (policy_number ILIKE $3 OR policyholder_name ILIKE $3)\nORDER BY created_at DESC\nLIMIT $4")).
		WithArgs("pending", "fast-track", `%50\%\_off%`, 100).
		WillReturnRows(rows)

	claims, err := repo.List(context.Background(), domain.ClaimFilter{
		Status: domain.ClaimStatusPending,
		Queue:  domain.QueueFastTrack,
		Search: "50%_off",
		Limit:  500,
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(claims) != 2 || claims[0].ID != "c-2" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClaimRepositoryListWithoutFilter(t *testing.T) {
	repo, mock, done := newClaimRepoWithMock(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("FROM claims\nORDER BY created_at DESC\nLIMIT $1")).
		WithArgs(25).
		WillReturnRows(sqlmock.NewRows(claimColumnNames))

	claims, err := repo.List(context.Background(), domain.ClaimFilter{Limit: 25})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if claims == nil || len(claims) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", claims)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClaimRepositoryUpdateReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newClaimRepoWithMock(t)
	defer done()

	status := domain.ClaimStatusApproved
	now := time.Now().UTC()
	mock.ExpectExec("UPDATE claims").
		WithArgs("missing", "approved", nil, now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "missing", domain.ClaimUpdate{Status: &status}, now)
	if !domain.IsKind(err, domain.ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClaimRepositoryUpdateRouting(t *testing.T) {
	repo, mock, done := newClaimRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectExec("UPDATE claims").
		WithArgs("c-1", "investigation", 0.95, "fraud", []byte(`[]`), []byte(`[]`), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateRouting(context.Background(), "c-1", domain.Validation{},
		domain.RoutingDecision{Queue: domain.QueueInvestigation, Confidence: 0.95, Reasoning: "fraud"}, now)
	if err != nil {
		t.Fatalf("UpdateRouting() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClaimRepositoryDelete(t *testing.T) {
	repo, mock, done := newClaimRepoWithMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM claims").WithArgs("c-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM claims").WithArgs("c-2").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "c-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(context.Background(), "c-2"); !domain.IsKind(err, domain.ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WithArgs(schemaLockID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS claims").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
