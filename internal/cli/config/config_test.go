package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdq/pkg/core"

	// Register connectors via init()
	_ "github.com/leapstack-labs/leapdq/pkg/connectors/postgres"
	_ "github.com/leapstack-labs/leapdq/pkg/connectors/sqlite"
)

const baseConfig = `
settings:
  stop_on_critical: true
  sample_size: 3
rules:
  - name: clients_required
    type: completeness
    severity: high
    table: clients
    description: Core client fields
    columns: [first_name, email]
  - name: clients_email
    type: pattern
    severity: medium
    table: clients
    params:
      column: email
      pattern: email
connections:
  local:
    type: sqlite
    path: ./data/clinic.db
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "leapdq.yaml", baseConfig)

	cfg, err := Load(Options{File: path})
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.True(t, cfg.Settings.StopOnCritical)
	assert.Equal(t, 3, cfg.Settings.SampleSize)
	// Unset settings keep their defaults
	assert.True(t, cfg.Settings.ParallelExecution)
	assert.Equal(t, core.DefaultMaxWorkers, cfg.Settings.MaxWorkers)
	assert.Equal(t, core.DefaultOutputDir, cfg.Settings.OutputDir)

	require.Len(t, cfg.Rules, 2)
	r := cfg.Rules[0]
	assert.Equal(t, "clients_required", r.Name)
	assert.Equal(t, core.RuleCompleteness, r.Type)
	assert.Equal(t, core.SeverityHigh, r.Severity)
	assert.Equal(t, "clients", r.Table)
	assert.Equal(t, "Core client fields", r.Description)
	assert.Equal(t, []any{"first_name", "email"}, r.Params["columns"])
	assert.NotContains(t, r.Params, "name")

	assert.Equal(t, map[string]any{"column": "email", "pattern": "email"}, cfg.Rules[1].Params)

	assert.Equal(t, []string{"local"}, cfg.ConnectionNames())
	assert.Equal(t, "./data/clinic.db", cfg.Connections["local"].Path)
}

func TestLoad_SearchesUpward(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "leapdq.yml", baseConfig)
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := Load(Options{Dir: nested})
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)
}

func TestLoad_NoConfigFound(t *testing.T) {
	_, err := Load(Options{Dir: t.TempDir()})
	require.Error(t, err)
	assert.True(t, IsError(err))
	assert.Contains(t, err.Error(), "no configuration file found")
}

func TestLoad_ConnectionsFile(t *testing.T) {
	rulesOnly := `
rules:
  - {name: r1, type: duplicates, severity: low, table: t, columns: [a]}
`
	conns := `
connections:
  warehouse: {type: postgres, host: db, database: app}
`
	t.Run("sibling file", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "leapdq.yaml", rulesOnly)
		writeFile(t, dir, DefaultConnectionsFile, conns)

		cfg, err := Load(Options{File: path})
		require.NoError(t, err)
		assert.Equal(t, "postgres", cfg.Connections["warehouse"].Type)
	})

	t.Run("explicit file", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "leapdq.yaml", rulesOnly)
		connPath := writeFile(t, dir, "secrets/conns.yaml", conns)

		cfg, err := Load(Options{File: path, ConnectionsFile: connPath})
		require.NoError(t, err)
		assert.Equal(t, "db", cfg.Connections["warehouse"].Host)
	})

	t.Run("explicit file missing", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "leapdq.yaml", rulesOnly)

		_, err := Load(Options{File: path, ConnectionsFile: filepath.Join(dir, "nope.yaml")})
		require.Error(t, err)
		assert.True(t, IsError(err))
	})
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "leapdq.yaml", baseConfig)

	t.Setenv("LEAPDQ_SETTINGS__MAX_WORKERS", "8")
	t.Setenv("LEAPDQ_SETTINGS__SAMPLE_SIZE", "7")

	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.String("output-dir", "", "")
	flags.Int("sample-size", 0, "")
	flags.Bool("sequential", false, "")
	flags.String("connection", "", "")
	require.NoError(t, flags.Parse([]string{"--output-dir", "out", "--sequential", "--connection", "local"}))

	cfg, err := Load(Options{File: path, Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Settings.MaxWorkers, "env overrides default")
	assert.Equal(t, 7, cfg.Settings.SampleSize, "env overrides file when flag unset")
	assert.Equal(t, "out", cfg.Settings.OutputDir, "flag overrides default")
	assert.False(t, cfg.Settings.ParallelExecution, "--sequential disables parallel execution")
	assert.True(t, cfg.Settings.StopOnCritical)
}

func TestLoad_Errors(t *testing.T) {
	conn := "connections:\n  local: {type: sqlite, path: x.db}\n"

	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{
			name:      "invalid yaml",
			content:   "rules: [\n",
			errSubstr: "invalid YAML",
		},
		{
			name:      "no rules",
			content:   conn,
			errSubstr: "no rules defined",
		},
		{
			name:      "rules not a list",
			content:   "rules: {a: 1}\n" + conn,
			errSubstr: "rules must be a list",
		},
		{
			name:      "missing severity",
			content:   "rules:\n  - {name: r, type: duplicates, columns: [a]}\n" + conn,
			errSubstr: "rule at index 0 missing required field: severity",
		},
		{
			name:      "invalid severity",
			content:   "rules:\n  - {name: r, type: duplicates, severity: urgent, columns: [a]}\n" + conn,
			errSubstr: `rule "r" has invalid severity: urgent`,
		},
		{
			name:      "invalid type",
			content:   "rules:\n  - {name: r, type: freshness, severity: low}\n" + conn,
			errSubstr: `rule "r" has invalid type: freshness`,
		},
		{
			name:      "completeness without columns",
			content:   "rules:\n  - {name: r, type: completeness, severity: low, table: t}\n" + conn,
			errSubstr: `rule "r" (completeness) requires 'columns' field`,
		},
		{
			name:      "referential without reference_table",
			content:   "rules:\n  - {name: r, type: referential_integrity, severity: low, column: a, reference_column: b}\n" + conn,
			errSubstr: "requires 'reference_table' field",
		},
		{
			name:      "custom_sql without query",
			content:   "rules:\n  - {name: r, type: custom_sql, severity: low}\n" + conn,
			errSubstr: "requires 'query' field",
		},
		{
			name:      "duplicate rule names",
			content:   "rules:\n  - {name: r, type: duplicates, severity: low, columns: [a]}\n  - {name: r, type: duplicates, severity: low, columns: [b]}\n" + conn,
			errSubstr: `duplicate rule name "r"`,
		},
		{
			name:      "no connections",
			content:   "rules:\n  - {name: r, type: duplicates, severity: low, columns: [a]}\n",
			errSubstr: "no database connections defined",
		},
		{
			name:      "connection without type",
			content:   "rules:\n  - {name: r, type: duplicates, severity: low, columns: [a]}\nconnections:\n  local: {path: x.db}\n",
			errSubstr: `connection "local" missing 'type' field`,
		},
		{
			name:      "unknown connection type",
			content:   "rules:\n  - {name: r, type: duplicates, severity: low, columns: [a]}\nconnections:\n  local: {type: oracle}\n",
			errSubstr: `connection "local" has invalid type: oracle`,
		},
		{
			name:      "undefined default connection",
			content:   "default_connection: prod\nrules:\n  - {name: r, type: duplicates, severity: low, columns: [a]}\n" + conn,
			errSubstr: `default_connection "prod" is not defined`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "leapdq.yaml", tt.content)
			_, err := Load(Options{File: path})
			require.Error(t, err)
			assert.True(t, IsError(err), "expected *config.Error, got %T", err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_Connection(t *testing.T) {
	content := `
rules:
  - {name: r, type: duplicates, severity: low, columns: [a]}
connections:
  local: {type: sqlite, path: "${LEAPDQ_TEST_DIR}/clinic.db"}
  prod:
    type: postgres
    host: db
    username: app
    password: "${LEAPDQ_TEST_UNSET_PASSWORD}"
`
	t.Setenv("LEAPDQ_TEST_DIR", "/data")
	path := writeFile(t, t.TempDir(), "leapdq.yaml", content)

	cfg, err := Load(Options{File: path})
	require.NoError(t, err, "unresolved variables fail only when the connection is used")

	t.Run("expands variables", func(t *testing.T) {
		name, conn, err := cfg.Connection("local")
		require.NoError(t, err)
		assert.Equal(t, "local", name)
		assert.Equal(t, "/data/clinic.db", conn.Path)
	})

	t.Run("unresolved variable", func(t *testing.T) {
		_, _, err := cfg.Connection("prod")
		require.Error(t, err)
		assert.True(t, IsError(err))
		assert.Contains(t, err.Error(), `connection "prod" has unresolved environment variable in "password"`)
	})

	t.Run("not found", func(t *testing.T) {
		_, _, err := cfg.Connection("staging")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection not found: staging")
	})

	t.Run("ambiguous without default", func(t *testing.T) {
		_, _, err := cfg.Connection("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "2 connections defined")
	})

	t.Run("default connection", func(t *testing.T) {
		withDefault := *cfg
		withDefault.DefaultConnection = "local"
		name, _, err := withDefault.Connection("")
		require.NoError(t, err)
		assert.Equal(t, "local", name)
	})

	t.Run("single connection", func(t *testing.T) {
		single := &Config{Connections: map[string]core.ConnectionConfig{"only": {Type: "sqlite"}}}
		name, _, err := single.Connection("")
		require.NoError(t, err)
		assert.Equal(t, "only", name)
	})
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("LEAPDQ_TEST_HOST", "db.internal")
	t.Setenv("LEAPDQ_TEST_EMPTY", "")

	assert.Equal(t, "db.internal:5432", expandEnvVars("${LEAPDQ_TEST_HOST}:5432"))
	assert.Equal(t, "", expandEnvVars("${LEAPDQ_TEST_EMPTY}"), "set but empty resolves")
	assert.Equal(t, "${LEAPDQ_TEST_MISSING}", expandEnvVars("${LEAPDQ_TEST_MISSING}"))
	assert.Equal(t, "plain", expandEnvVars("plain"))
}
