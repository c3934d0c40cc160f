package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapdq/internal/testutil/dbtest"

	// Register connectors via init()
	_ "github.com/leapstack-labs/leapdq/pkg/connectors/duckdb"
	_ "github.com/leapstack-labs/leapdq/pkg/connectors/sqlite"
)

const projectConfig = `
settings:
  sample_size: 2
connections:
  local:
    type: sqlite
    path: %q
rules:
  - name: clients_email_present
    type: completeness
    severity: high
    table: clients
    columns: [email]
  - name: clients_duplicate_people
    type: duplicates
    severity: critical
    table: clients
    columns: [first_name, last_name, date_of_birth]
`

func setupProject(t *testing.T) string {
	t.Helper()
	db := dbtest.SQLiteFile(t, dbtest.Clients()...)
	path := filepath.Join(t.TempDir(), "leapdq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(projectConfig, db)), 0600))
	return path
}

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	cmd := NewRootCmd()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	code := Run(cmd, args)
	return code, out.String(), errOut.String()
}

func TestRun_CriticalFailureExitCode(t *testing.T) {
	cfg := setupProject(t)

	code, out, _ := execute(t, "run", "--config", cfg)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "DATA QUALITY REPORT")
	assert.Contains(t, out, "[CRITICAL] clients_duplicate_people")
	assert.Contains(t, out, "• clients_email_present")
}

func TestRun_FilteredRulesPass(t *testing.T) {
	cfg := setupProject(t)

	code, out, errOut := execute(t, "run", "--config", cfg, "--severity", "high")
	assert.Equal(t, ExitOK, code, errOut)
	assert.Contains(t, out, "Rules executed: 1")
	assert.NotContains(t, out, "clients_duplicate_people")
}

func TestRun_JSONFormat(t *testing.T) {
	cfg := setupProject(t)

	code, out, _ := execute(t, "run", "--config", cfg, "--format", "json", "--sequential")
	assert.Equal(t, ExitFailure, code)

	var decoded struct {
		Connection string `json:"connection_name"`
		Summary    struct {
			TotalRules int `json:"total_rules"`
			Failed     int `json:"failed"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded), out)
	assert.Equal(t, "local", decoded.Connection)
	assert.Equal(t, 2, decoded.Summary.TotalRules)
	assert.Equal(t, 1, decoded.Summary.Failed)
}

func TestRun_SaveReports(t *testing.T) {
	cfg := setupProject(t)
	dir := filepath.Join(t.TempDir(), "reports")

	code, _, _ := execute(t, "run", "--config", cfg, "--quiet", "--output-dir", dir)
	assert.Equal(t, ExitFailure, code)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "report, summary and history files")
}

func TestRun_DryRun(t *testing.T) {
	cfg := setupProject(t)

	code, out, _ := execute(t, "run", "--config", cfg, "--dry-run", "--format", "json")
	assert.Equal(t, ExitOK, code)

	var rules []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rules))
	require.Len(t, rules, 2)
	assert.Equal(t, "clients_email_present", rules[0]["name"])
}

func TestRules_YAML(t *testing.T) {
	cfg := setupProject(t)

	code, out, _ := execute(t, "rules", "--config", cfg, "--format", "yaml", "-s", "critical")
	assert.Equal(t, ExitOK, code)

	var rules []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &rules))
	require.Len(t, rules, 1)
	assert.Equal(t, "clients_duplicate_people", rules[0]["name"])
}

func TestPing(t *testing.T) {
	cfg := setupProject(t)

	code, out, errOut := execute(t, "ping", "--config", cfg)
	assert.Equal(t, ExitOK, code, errOut)
	assert.Contains(t, out, "local (sqlite) reachable")
}

func TestConfigErrorsExitTwo(t *testing.T) {
	cfg := setupProject(t)
	broken := filepath.Join(t.TempDir(), "leapdq.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("rules: [\n"), 0600))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"invalid yaml", []string{"run", "--config", broken}, "invalid YAML"},
		{"missing file", []string{"run", "--config", filepath.Join(t.TempDir(), "nope.yaml")}, "configuration file not found"},
		{"bad severity", []string{"run", "--config", cfg, "-s", "urgent"}, `invalid --severity "urgent"`},
		{"unknown rule", []string{"run", "--config", cfg, "-r", "nope"}, `unknown rule "nope"`},
		{"unknown connection", []string{"run", "--config", cfg, "-n", "prod"}, "connection not found: prod"},
		{"bad format", []string{"rules", "--config", cfg, "--format", "xml"}, `invalid --format "xml"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := execute(t, tt.args...)
			assert.Equal(t, ExitConfigInvalid, code)
			assert.Contains(t, errOut, "Configuration error:")
			assert.Contains(t, errOut, tt.want)
		})
	}
}

func TestCommandsWithoutConfig(t *testing.T) {
	t.Run("version", func(t *testing.T) {
		code, out, _ := execute(t, "version")
		assert.Equal(t, ExitOK, code)
		assert.Contains(t, out, "leapdq v"+Version)
	})

	t.Run("init", func(t *testing.T) {
		dir := t.TempDir()
		code, _, errOut := execute(t, "init", dir, "--no-color")
		assert.Equal(t, ExitOK, code, errOut)
		assert.FileExists(t, filepath.Join(dir, "leapdq.yaml"))
	})

	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run("completion "+shell, func(t *testing.T) {
			code, out, _ := execute(t, "completion", shell)
			assert.Equal(t, ExitOK, code)
			assert.NotEmpty(t, out)
		})
	}
}

func TestInitExampleProjectRuns(t *testing.T) {
	dir := t.TempDir()
	code, _, errOut := execute(t, "init", dir, "--example")
	require.Equal(t, ExitOK, code, errOut)
	t.Chdir(dir)

	code, out, errOut := execute(t, "run", "--format", "json")
	assert.Equal(t, ExitFailure, code, errOut)

	var decoded struct {
		Connection string `json:"connection_name"`
		Summary    struct {
			TotalRules int `json:"total_rules"`
		} `json:"summary"`
		Results []struct {
			RuleName string `json:"rule_name"`
			Passed   bool   `json:"passed"`
			Error    string `json:"error_message"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded), out)
	assert.Equal(t, "csv", decoded.Connection)
	assert.Equal(t, 9, decoded.Summary.TotalRules)

	passed := map[string]bool{}
	for _, r := range decoded.Results {
		assert.Empty(t, r.Error, r.RuleName)
		passed[r.RuleName] = r.Passed
	}
	assert.False(t, passed["appointments_known_client"], "client 42 does not exist")
	assert.False(t, passed["clients_duplicate_people"])
	assert.False(t, passed["clients_age_range"])
	assert.True(t, passed["clients_adults_only"])
}

func TestUnknownCommand(t *testing.T) {
	code, _, errOut := execute(t, "unknown-command")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, errOut, "Error:")
}
