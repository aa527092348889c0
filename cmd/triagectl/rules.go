package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newRulesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the effective routing rules as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules, err := root.loadRules()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(rules); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
