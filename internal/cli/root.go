// Package cli provides the command-line interface for leapdq.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdq/internal/cli/commands"
	"github.com/leapstack-labs/leapdq/internal/cli/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Exit codes returned by Execute.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConfigInvalid = 2
)

// skipConfig lists commands that run without a loaded configuration.
var skipConfig = map[string]bool{
	"help":       true,
	"completion": true,
	"__complete": true,
	"version":    true,
	"init":       true,
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile   string
		connsFile string
	)

	rootCmd := &cobra.Command{
		Use:   "leapdq",
		Short: "leapdq - data quality rules for SQL sources",
		Long: `leapdq evaluates declarative data quality rules against SQL Server,
PostgreSQL, SQLite, DuckDB and CSV sources.

Rules live in leapdq.yaml next to named connections and run settings.
Each rule compiles to a query that returns violating rows; the report
groups failures by severity.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(cmd)
			ctx := config.WithLogger(cmd.Context(), logger)
			cmd.SetContext(ctx)

			if skipConfig[cmd.Name()] {
				return nil
			}

			cfg, err := config.Load(config.Options{
				File:            cfgFile,
				ConnectionsFile: connsFile,
				Flags:           cmd.Flags(),
			})
			if err != nil {
				return err
			}
			logger.Debug("config loaded",
				slog.String("file", cfg.File),
				slog.Int("rules", len(cfg.Rules)),
				slog.Any("connections", cfg.ConnectionNames()))

			cmd.SetContext(config.WithConfig(ctx, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: leapdq.yaml in this or a parent directory)")
	rootCmd.PersistentFlags().StringVar(&connsFile, "connections", "", "connections file (default: connections.yaml next to the config)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose logging to stderr")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only report errors; the exit code carries the result")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewRulesCommand())
	rootCmd.AddCommand(commands.NewPingCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version, GitCommit, BuildDate))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// newLogger builds the stderr logger for the verbosity flags.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = slog.LevelDebug
	}
	if q, _ := cmd.Flags().GetBool("quiet"); q {
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return Run(NewRootCmd(), os.Args[1:])
}

// Run executes cmd with args and maps the outcome onto an exit code.
func Run(cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	return exitCode(cmd.Execute(), cmd.ErrOrStderr())
}

func exitCode(err error, errOut io.Writer) int {
	switch {
	case err == nil:
		return ExitOK
	case config.IsError(err):
		_, _ = fmt.Fprintf(errOut, "Configuration error: %v\n", err)
		return ExitConfigInvalid
	case errors.Is(err, commands.ErrCriticalFailures):
		return ExitFailure
	default:
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		return ExitFailure
	}
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for leapdq.

To load completions:

Bash:
  $ source <(leapdq completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ leapdq completion bash > /etc/bash_completion.d/leapdq
  # macOS:
  $ leapdq completion bash > $(brew --prefix)/etc/bash_completion.d/leapdq

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ leapdq completion zsh > "${fpath[1]}/_leapdq"

Fish:
  $ leapdq completion fish | source

  # To load completions for each session, execute once:
  $ leapdq completion fish > ~/.config/fish/completions/leapdq.fish

PowerShell:
  PS> leapdq completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
