package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kirillkom/claims-triage/internal/bootstrap"
	"github.com/kirillkom/claims-triage/internal/config"
	"github.com/kirillkom/claims-triage/internal/core/ports"
)

func newProcessCmd(root *rootOptions) *cobra.Command {
	var (
		mediaType   string
		submittedBy string
	)
	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Extract, validate and route one FNOL document without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			rules, err := root.loadRules()
			if err != nil {
				return err
			}
			pipeline, err := bootstrap.NewClaimPipeline(cfg, rules, nil, bootstrap.Options{Logger: root.logger()})
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open document: %w", err)
			}
			defer f.Close()

			doc, err := pipeline.ReadDocument(ports.IntakeRequest{
				Filename:  filepath.Base(args[0]),
				MediaType: mediaType,
				Body:      f,
			})
			if err != nil {
				return err
			}
			claim, err := pipeline.Evaluate(cmd.Context(), doc, submittedBy)
			if err != nil {
				return err
			}
			return writeIndentedJSON(cmd, claim)
		},
	}
	cmd.Flags().StringVar(&mediaType, "media-type", "", "declared media type (default: inferred from the file extension)")
	cmd.Flags().StringVar(&submittedBy, "submitted-by", "", "submitting user reference stored on the claim")
	return cmd
}

func writeIndentedJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
