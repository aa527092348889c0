package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/claims-triage/internal/config"
	"github.com/kirillkom/claims-triage/internal/core/triage"
	"github.com/kirillkom/claims-triage/internal/observability/logging"
)

type rootOptions struct {
	rulesPath string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "triagectl",
		Short: "Offline tools for the FNOL claims triage pipeline",
		Long: `triagectl runs the claim triage pipeline against local files.

Nothing is persisted: "process" evaluates one document end to end against the
configured extraction backend, "route" validates and routes candidate fields
without calling any model, and "rules" prints the effective routing table.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.PersistentFlags().StringVar(&opts.rulesPath, "rules", "", "routing rules YAML file (default: $TRIAGE_RULES_PATH or built-in rules)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level for pipeline events written to stderr")

	cmd.AddCommand(newProcessCmd(opts), newRouteCmd(opts), newRulesCmd(opts))
	return cmd
}

func (o *rootOptions) loadRules() (triage.Rules, error) {
	path := strings.TrimSpace(o.rulesPath)
	if path == "" {
		path = config.Load().TriageRulesPath
	}
	return config.LoadRules(path)
}

func (o *rootOptions) logger() *slog.Logger {
	return logging.NewJSONLoggerTo(os.Stderr, "triagectl", o.logLevel)
}
