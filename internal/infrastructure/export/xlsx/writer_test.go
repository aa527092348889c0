package xlsx

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

func TestWriteClaims(t *testing.T) {
	incident := time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC)
	claims := []domain.Claim{
		{
			ID:               "c-1",
			PolicyNumber:     "POL-1",
			PolicyholderName: "Rajesh Kumar",
			IncidentDate:     &incident,
			ClaimType:        domain.ClaimPropertyDamage,
			AssetType:        domain.AssetVehicle,
			EstimatedDamage:  8500,
			RoutingDecision:  domain.RoutingDecision{Queue: domain.QueueFastTrack, Confidence: 0.95, Reasoning: "Damage below threshold"},
			Status:           domain.ClaimStatusPending,
			MissingFields: []domain.MissingFieldEntry{
				{Field: "incidentTime", Severity: domain.SeverityOptional},
			},
			CreatedAt: incident,
		},
		{
			ID:              "c-2",
			PolicyNumber:    "N/A",
			RoutingDecision: domain.RoutingDecision{Queue: domain.QueueManualReview, Confidence: 0.8},
			MissingFields: []domain.MissingFieldEntry{
				{Field: "policyNumber", Severity: domain.SeverityCritical},
			},
			InconsistentFields: []domain.InconsistentFieldEntry{
				{Field: "incidentDate", Issue: strings.Repeat("x", maxCellRunes+10)},
			},
		},
	}

	var buf bytes.Buffer
	if err := NewWriter().WriteClaims(&buf, claims); err != nil {
		t.Fatalf("WriteClaims() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(claimsSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Claim ID" || rows[1][0] != "c-1" || rows[1][3] != "fast-track" || rows[1][8] != "2024-11-20" {
		t.Fatalf("unexpected first claim row: %v", rows[1])
	}
	if rows[2][15] != "policyNumber" {
		t.Fatalf("expected critical missing column, got %v", rows[2])
	}

	issues, err := f.GetRows(issuesSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(issues) != 4 {
		t.Fatalf("expected header + 3 issue rows, got %d", len(issues))
	}
	if issues[3][1] != "inconsistent" || len([]rune(issues[3][3])) != maxCellRunes {
		t.Fatalf("expected truncated inconsistency, got %v", issues[3])
	}
}

func TestWriteClaimsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter().WriteClaims(&buf, nil); err != nil {
		t.Fatalf("WriteClaims() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected a workbook even without claims")
	}
}
