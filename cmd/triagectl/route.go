package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirillkom/claims-triage/internal/core/domain"
	"github.com/kirillkom/claims-triage/internal/core/triage"
	"github.com/kirillkom/claims-triage/internal/infrastructure/llm/extraction"
)

type routeOutput struct {
	ExtractedFields    domain.CandidateFields          `json:"extractedFields"`
	MissingFields      []domain.MissingFieldEntry      `json:"missingFields"`
	InconsistentFields []domain.InconsistentFieldEntry `json:"inconsistentFields"`
	RoutingDecision    domain.RoutingDecision          `json:"routingDecision"`
}

func newRouteCmd(root *rootOptions) *cobra.Command {
	var (
		raw      bool
		detailed bool
		asOf     string
	)
	cmd := &cobra.Command{
		Use:   "route [file|-]",
		Short: "Validate and route candidate fields from a JSON file",
		Long: `route reads CandidateFields JSON (or, with --raw, a verbatim model reply)
and prints the validation result and routing decision. No model is called.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := root.loadRules()
			if err != nil {
				return err
			}
			now := time.Now()
			if asOf != "" {
				parsed, ok := triage.ParseDate(asOf)
				if !ok {
					return fmt.Errorf("--as-of %q is not a recognised date", asOf)
				}
				now = parsed
			}

			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			fields, err := decodeFields(input, raw)
			if err != nil {
				return err
			}

			validation := triage.Validate(fields, triage.ValidateOptions{Now: now, Detailed: detailed})
			decision := triage.NewRouter(rules).Route(fields, validation)
			return writeIndentedJSON(cmd, routeOutput{
				ExtractedFields:    fields,
				MissingFields:      nonNil(validation.Missing),
				InconsistentFields: nonNil(validation.Inconsistent),
				RoutingDecision:    decision,
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "treat the input as a raw model reply and parse it like the extraction client does")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "also report recommended optional fields")
	cmd.Flags().StringVar(&asOf, "as-of", "", "reference date for future-date checks (default: today)")
	return cmd
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

func decodeFields(input []byte, raw bool) (domain.CandidateFields, error) {
	if raw {
		result, err := extraction.ParseResponse(string(input))
		if err != nil {
			return domain.CandidateFields{}, err
		}
		return result.Fields, nil
	}
	var fields domain.CandidateFields
	if err := json.Unmarshal(input, &fields); err != nil {
		return domain.CandidateFields{}, fmt.Errorf("decode candidate fields: %w", err)
	}
	return fields, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
