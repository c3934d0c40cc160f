package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdq/internal/cli/output"
	"github.com/leapstack-labs/leapdq/internal/engine"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Connection string
	Severities []string
	Rules      []string
	Format     string
	DryRun     bool
	Save       bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate data quality rules",
		Long: `Evaluate the configured rules against one connection and print a report.

Rules run in parallel on a bounded worker pool unless --sequential is set.
The command exits with status 1 when a critical rule fails and 2 when the
configuration is invalid.`,
		Example: `  # Run all rules against the default connection
  leapdq run

  # Run only critical and high rules against prod
  leapdq run -n prod -s critical -s high

  # Run two rules and save JSON reports
  leapdq run -r clients_required,clients_email --output-dir reports

  # Machine-readable report for CI
  leapdq run --format json`,
		Aliases: []string{"check"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Connection, "connection", "n", "", "Connection name (default: default_connection or the only connection)")
	cmd.Flags().StringSliceVarP(&opts.Severities, "severity", "s", nil, "Only run rules with these severities")
	cmd.Flags().StringSliceVarP(&opts.Rules, "rules", "r", nil, "Only run these rules")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "List the rules that would run without connecting")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Save JSON reports to the output directory")
	cmd.Flags().String("output-dir", "", "Directory for saved reports (implies --save)")
	cmd.Flags().Bool("stop-on-critical", false, "Stop scheduling rules after the first critical failure")
	cmd.Flags().Bool("sequential", false, "Evaluate rules one at a time")
	cmd.Flags().Int("max-workers", 0, "Maximum concurrent rules")
	cmd.Flags().Int("sample-size", 0, "Sample rows kept per failed rule")

	_ = cmd.RegisterFlagCompletionFunc("severity", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"critical", "high", "medium", "low"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	cc, err := NewCommandContext(cmd, opts.Format)
	if err != nil {
		return err
	}
	cfg := cc.Cfg
	r := cc.Renderer

	filter, err := buildFilter(cfg.Rules, opts.Severities, opts.Rules)
	if err != nil {
		return err
	}
	// A dry run never connects, so its connection may stay unresolved.
	var (
		name string
		conn core.ConnectionConfig
	)
	if !opts.DryRun {
		if name, conn, err = cfg.Connection(opts.Connection); err != nil {
			return err
		}
	}

	text := r.EffectiveMode() == output.ModeText
	var progress engine.ProgressFunc
	if text && !cc.Quiet {
		progress = r.Progress
	}

	eng, err := engine.New(engine.Config{
		ConnectionName: name,
		Connection:     conn,
		Settings:       cfg.Settings,
		Rules:          cfg.Rules,
		Filter:         filter,
		Progress:       progress,
		Logger:         cc.Logger,
	})
	if err != nil {
		return err
	}

	if opts.DryRun {
		format := "text"
		if !text {
			format = "json"
		}
		return r.RuleList(eng.DryRun(), format)
	}

	if text && !cc.Quiet {
		r.Println("")
		r.Println("Starting data quality validation...")
		r.Println(output.FormatKeyValue(r.Styles(), "Connection", name))
	}

	report, runErr := eng.Run(cmd.Context())
	r.ClearProgress()
	if report == nil {
		return fmt.Errorf("run failed: %w", runErr)
	}

	if !cc.Quiet {
		if err := r.Report(report); err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
	}

	if opts.Save || cmd.Flags().Changed("output-dir") {
		saved, err := output.SaveReport(report, eng.Settings().OutputDir)
		if err != nil {
			return err
		}
		cc.Logger.Info("report saved", "report", saved.Report, "summary", saved.Summary)
		if text && !cc.Quiet {
			r.Printf("Full report saved to: %s\n", saved.Report)
			r.Printf("Summary saved to: %s\n", saved.Summary)
		}
	}

	if runErr != nil {
		return fmt.Errorf("run interrupted: %w", runErr)
	}
	if report.HasCriticalFailures() {
		return ErrCriticalFailures
	}
	return nil
}
