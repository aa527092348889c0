package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const schemaLockID int64 = 2026101901

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := pingOrClose(db); err != nil {
		return nil, err
	}
	return db, nil
}

// pingOrClose releases the pool when the first ping fails.
func pingOrClose(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("db ping: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS claims (
	id TEXT PRIMARY KEY,
	policy_number TEXT NOT NULL,
	policyholder_name TEXT NOT NULL,
	effective_start DATE,
	effective_end DATE,
	incident_date DATE,
	incident_time TEXT NOT NULL DEFAULT '',
	incident_location JSONB NOT NULL DEFAULT '{}'::jsonb,
	incident_description TEXT NOT NULL,
	claimant JSONB NOT NULL DEFAULT '{}'::jsonb,
	third_parties JSONB NOT NULL DEFAULT '[]'::jsonb,
	asset_type TEXT NOT NULL CHECK (asset_type IN ('vehicle','property','personal','other')),
	asset_id TEXT NOT NULL DEFAULT '',
	estimated_damage DOUBLE PRECISION NOT NULL CHECK (estimated_damage >= 0),
	claim_type TEXT NOT NULL CHECK (claim_type IN ('property-damage','accident','damage','theft','injury','total-loss','other')),
	queue TEXT NOT NULL CHECK (queue IN ('fast-track','manual-review','specialist-queue','investigation')),
	routing_confidence DOUBLE PRECISION NOT NULL CHECK (routing_confidence BETWEEN 0 AND 1),
	routing_reasoning TEXT NOT NULL,
	advisory_routing JSONB,
	extracted_fields JSONB NOT NULL,
	missing_fields JSONB NOT NULL DEFAULT '[]'::jsonb,
	inconsistent_fields JSONB NOT NULL DEFAULT '[]'::jsonb,
	document JSONB NOT NULL DEFAULT '{}'::jsonb,
	status TEXT NOT NULL CHECK (status IN ('pending','processing','approved','rejected','investigating','completed')),
	submitted_by TEXT NOT NULL DEFAULT '',
	assigned_to TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_claims_status ON claims(status);
CREATE INDEX IF NOT EXISTS idx_claims_queue ON claims(queue);
CREATE INDEX IF NOT EXISTS idx_claims_created_at ON claims(created_at DESC);

CREATE TABLE IF NOT EXISTS claim_submissions (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	media_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	size_bytes BIGINT NOT NULL DEFAULT 0,
	submitted_by TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL CHECK (status IN ('uploaded','processing','completed','failed')),
	claim_id TEXT NOT NULL DEFAULT '',
	failure_reason TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_claim_submissions_status ON claim_submissions(status);
`

// EnsureSchema creates the claims and submissions tables. The advisory lock
// serializes DDL across api/worker startups.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}
	if _, err := tx.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
