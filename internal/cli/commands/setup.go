package commands

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdq/internal/cli/config"
	"github.com/leapstack-labs/leapdq/internal/cli/output"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

// ErrCriticalFailures is returned by run when a critical rule failed.
// The report has already been printed, so callers only set the exit code.
var ErrCriticalFailures = errors.New("critical rule failures")

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Quiet    bool
}

// NewCommandContext collects the loaded config, logger and a renderer for
// the given output format.
func NewCommandContext(cmd *cobra.Command, format string) (*CommandContext, error) {
	cfg, ok := config.FromContext(cmd.Context())
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	if !output.ValidMode(format) {
		return nil, config.Invalid("invalid --format %q: must be text or json", format)
	}

	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(format))
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		r.DisableColor()
	}
	quiet, _ := cmd.Flags().GetBool("quiet")

	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: r,
		Quiet:    quiet,
	}, nil
}

// buildFilter turns --severity and --rules values into a rule filter.
// Unknown severities and rule names are configuration errors.
func buildFilter(rules []core.Rule, severities, names []string) (core.RuleFilter, error) {
	var f core.RuleFilter
	for _, s := range severities {
		sev, ok := core.ParseSeverity(s)
		if !ok {
			return f, config.Invalid("invalid --severity %q: must be one of %v", s, core.AllSeverities())
		}
		f.Severities = append(f.Severities, sev)
	}

	known := make(map[string]bool, len(rules))
	for _, r := range rules {
		known[r.Name] = true
	}
	for _, n := range names {
		if !known[n] {
			return f, config.Invalid("unknown rule %q", n)
		}
		f.Names = append(f.Names, n)
	}
	return f, nil
}
