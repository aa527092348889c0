package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

const (
	claimsSheet  = "Claims"
	issuesSheet  = "Issues"
	dateLayout   = "2006-01-02"
	maxCellRunes = 500
)

var claimHeaders = []string{
	"Claim ID", "Created", "Status", "Queue", "Confidence", "Reasoning",
	"Policy Number", "Policyholder", "Incident Date", "Claim Type", "Asset Type",
	"Estimated Damage", "Claimant", "Claimant Phone", "Claimant Email",
	"Missing (critical)", "Assigned To", "Source File",
}

var issueHeaders = []string{"Claim ID", "Kind", "Field", "Severity / Issue"}

// Writer renders claims as a two-sheet workbook: one row per claim and one row
// per missing or inconsistent field.
type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) WriteClaims(out io.Writer, claims []domain.Claim) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", claimsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(issuesSheet); err != nil {
		return fmt.Errorf("create issues sheet: %w", err)
	}

	if err := writeRow(f, claimsSheet, 1, toAny(claimHeaders)); err != nil {
		return err
	}
	if err := writeRow(f, issuesSheet, 1, toAny(issueHeaders)); err != nil {
		return err
	}

	issueRow := 2
	for i, c := range claims {
		if err := writeRow(f, claimsSheet, i+2, claimRow(c)); err != nil {
			return err
		}
		for _, m := range c.MissingFields {
			if err := writeRow(f, issuesSheet, issueRow, []any{c.ID, "missing", m.Field, string(m.Severity)}); err != nil {
				return err
			}
			issueRow++
		}
		for _, inc := range c.InconsistentFields {
			if err := writeRow(f, issuesSheet, issueRow, []any{c.ID, "inconsistent", inc.Field, truncate(inc.Issue)}); err != nil {
				return err
			}
			issueRow++
		}
	}

	if err := styleHeader(f, claimsSheet, len(claimHeaders)); err != nil {
		return err
	}
	if err := styleHeader(f, issuesSheet, len(issueHeaders)); err != nil {
		return err
	}
	_ = f.SetColWidth(claimsSheet, "A", "A", 38)
	_ = f.SetColWidth(claimsSheet, "F", "F", 60)
	_ = f.SetColWidth(claimsSheet, "G", "P", 18)
	_ = f.SetColWidth(issuesSheet, "A", "A", 38)
	_ = f.SetColWidth(issuesSheet, "C", "D", 40)

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func claimRow(c domain.Claim) []any {
	incident := ""
	if c.IncidentDate != nil {
		incident = c.IncidentDate.Format(dateLayout)
	}
	var critical []string
	for _, m := range c.MissingFields {
		if m.Severity == domain.SeverityCritical {
			critical = append(critical, m.Field)
		}
	}
	return []any{
		c.ID,
		c.CreatedAt.UTC().Format(dateLayout),
		string(c.Status),
		string(c.RoutingDecision.Queue),
		c.RoutingDecision.Confidence,
		truncate(c.RoutingDecision.Reasoning),
		c.PolicyNumber,
		c.PolicyholderName,
		incident,
		string(c.ClaimType),
		string(c.AssetType),
		c.EstimatedDamage,
		c.Claimant.Name,
		c.Claimant.ContactDetails.Phone,
		c.Claimant.ContactDetails.Email,
		strings.Join(critical, ", "),
		c.AssignedTo,
		c.Document.Filename,
	}
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, columns int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxCellRunes {
		return s
	}
	return string(r[:maxCellRunes-1]) + "…"
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
