package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdq/pkg/connector"
	"github.com/leapstack-labs/leapdq/pkg/core"
)

// PingResult is the outcome of testing one connection.
type PingResult struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	OK      bool    `json:"ok"`
	Error   string  `json:"error,omitempty"`
	Elapsed float64 `json:"elapsed_ms"`
}

// NewPingCommand creates the ping command.
func NewPingCommand() *cobra.Command {
	var (
		name   string
		all    bool
		format string
	)
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Test a database connection",
		Long: `Open a connection and run a trivial query against it.

Without --connection the default connection is tested. Use --all to test
every configured connection.`,
		Example: `  # Test the default connection
  leapdq ping

  # Test all connections
  leapdq ping --all`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContext(cmd, format)
			if err != nil {
				return err
			}

			names := []string{name}
			if all {
				names = cc.Cfg.ConnectionNames()
			}

			var results []PingResult
			failed := 0
			for _, n := range names {
				resolved, conn, err := cc.Cfg.Connection(n)
				if err != nil {
					return err
				}
				res := ping(cmd.Context(), resolved, conn, cc)
				if !res.OK {
					failed++
				}
				results = append(results, res)
			}

			r := cc.Renderer
			if format == "json" {
				if err := r.JSON(results); err != nil {
					return err
				}
			} else {
				for _, res := range results {
					if res.OK {
						r.Success(fmt.Sprintf("%s (%s) reachable in %.1fms", res.Name, res.Type, res.Elapsed))
					} else {
						r.Error(fmt.Sprintf("%s (%s): %s", res.Name, res.Type, res.Error))
					}
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d connections failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "connection", "n", "", "Connection name")
	cmd.Flags().BoolVar(&all, "all", false, "Test every configured connection")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func ping(ctx context.Context, name string, cfg core.ConnectionConfig, cc *CommandContext) (res PingResult) {
	res = PingResult{Name: name, Type: cfg.Type}
	start := time.Now()
	defer func() {
		res.Elapsed = float64(time.Since(start).Microseconds()) / 1000
	}()

	conn, err := connector.New(cfg, cc.Logger)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.TimeoutOrDefault())*time.Second)
	defer cancel()

	if err := conn.Connect(ctx, cfg); err != nil {
		res.Error = err.Error()
		return res
	}
	if !conn.TestConnection(ctx) {
		res.Error = "test query failed"
		return res
	}
	res.OK = true
	return res
}
