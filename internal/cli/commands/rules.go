package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdq/internal/cli/config"
	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/leapstack-labs/leapdq/pkg/validator"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Severities []string
	Rules      []string
	Format     string
	Types      bool
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List configured rules",
		Long: `List the configured rules without connecting to any data source.

Filters match the run command, so this shows exactly what 'leapdq run'
would evaluate. Use --types to list the rule types this build supports.`,
		Example: `  # List all rules
  leapdq rules

  # Critical rules as YAML
  leapdq rules -s critical --format yaml

  # Supported rule types
  leapdq rules --types`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRules(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Severities, "severity", "s", nil, "Only list rules with these severities")
	cmd.Flags().StringSliceVarP(&opts.Rules, "rules", "r", nil, "Only list these rules")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "text", "Output format: text, json, yaml")
	cmd.Flags().BoolVar(&opts.Types, "types", false, "List supported rule types instead")

	return cmd
}

func runRules(cmd *cobra.Command, opts *RulesOptions) error {
	switch opts.Format {
	case "text", "json", "yaml":
	default:
		return config.Invalid("invalid --format %q: must be text, json or yaml", opts.Format)
	}
	// The renderer only styles text, so yaml is passed through as text mode.
	mode := opts.Format
	if mode == "yaml" {
		mode = "text"
	}
	cc, err := NewCommandContext(cmd, mode)
	if err != nil {
		return err
	}
	r := cc.Renderer

	if opts.Types {
		types := validator.Default().Types()
		if opts.Format == "json" {
			return r.JSON(types)
		}
		for _, t := range types {
			r.Println(t)
		}
		return nil
	}

	filter, err := buildFilter(cc.Cfg.Rules, opts.Severities, opts.Rules)
	if err != nil {
		return err
	}
	rules := filter.Apply(cc.Cfg.Rules)
	summaries := make([]core.RuleSummary, 0, len(rules))
	for _, rule := range rules {
		summaries = append(summaries, rule.Summary())
	}
	return r.RuleList(summaries, opts.Format)
}
