package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdq/internal/cli/config"
	"github.com/leapstack-labs/leapdq/internal/cli/output"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a starter leapdq.yaml",
		Long: `Create a leapdq.yaml with one sample rule and a commented connection.

Use --example to also write two CSV files with known data quality problems
and a configuration that exercises every rule type against them.`,
		Example: `  # Starter config in the current directory
  leapdq init

  # Working example project
  leapdq init demo --example && cd demo && leapdq run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeText)
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
				r.DisableColor()
			}

			template := "minimal"
			if example {
				template = "example"
			}
			return runInit(r, dir, template, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&example, "example", false, "Create an example project with CSV data")

	return cmd
}

func runInit(r *output.Renderer, dir, template string, force bool) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, config.DefaultFile)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
	}

	if err := copyTemplate(template, dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	files, err := listTemplateFiles(template)
	if err != nil {
		return err
	}
	for _, f := range files {
		r.Success(f)
	}

	r.Println("")
	r.Success("leapdq project initialized")
	r.Println("")
	r.Println("Next steps:")
	if template == "example" {
		r.Println("  leapdq rules     List the example rules")
		r.Println("  leapdq run       Evaluate them against data/*.csv")
	} else {
		r.Println("  1. Point connections.local at your database")
		r.Println("  2. Add rules to leapdq.yaml")
		r.Println("  3. Run 'leapdq ping' then 'leapdq run'")
	}
	return nil
}
