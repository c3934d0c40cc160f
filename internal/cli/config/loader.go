package config

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/leapdq/pkg/core"
)

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

var configNames = []string{"leapdq.yaml", "leapdq.yml"}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Options controls where configuration is read from.
type Options struct {
	// File is an explicit config path. Empty searches upward from Dir.
	File string
	// ConnectionsFile is an explicit connections file. Empty falls back to
	// connections.yaml next to the config file when it defines no connections.
	ConnectionsFile string
	// Dir is where the search starts. Empty uses the working directory.
	Dir string
	// Flags are the parsed command flags. Only changed flags are applied.
	Flags *pflag.FlagSet
}

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// configKey is used to store the loaded config in context.
type configKey struct{}

// WithConfig returns a context carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config stored by WithConfig.
func FromContext(ctx context.Context) (*Config, bool) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	return cfg, ok && cfg != nil
}

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// configExistsIn returns the config file in dir, if any.
func configExistsIn(dir string) string {
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// findConfigFile resolves the config file to load.
// Priority: explicit path > leapdq.yaml/leapdq.yml in dir or its parents.
func findConfigFile(explicit, dir string) (string, error) {
	if explicit != "" {
		if !fileExists(explicit) {
			return "", errorf(explicit, "configuration file not found")
		}
		return explicit, nil
	}

	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = cwd
	}
	for range maxUpwardSearchLevels {
		if found := configExistsIn(dir); found != "" {
			return found, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", errorf("", "no configuration file found; create %s or pass --config", DefaultFile)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func defaults() map[string]any {
	d := core.DefaultSettings()
	return map[string]any{
		"settings.stop_on_critical":   d.StopOnCritical,
		"settings.sample_size":        d.SampleSize,
		"settings.parallel_execution": d.ParallelExecution,
		"settings.max_workers":        d.MaxWorkers,
		"settings.output_dir":         d.OutputDir,
	}
}

// flagKey maps a changed CLI flag onto its config key.
// Flags without a config key return "".
func flagKey(flags *pflag.FlagSet, f *pflag.Flag) (string, any) {
	switch f.Name {
	case "output-dir":
		return "settings.output_dir", posflag.FlagVal(flags, f)
	case "stop-on-critical":
		return "settings.stop_on_critical", posflag.FlagVal(flags, f)
	case "max-workers":
		return "settings.max_workers", posflag.FlagVal(flags, f)
	case "sample-size":
		return "settings.sample_size", posflag.FlagVal(flags, f)
	case "sequential":
		seq, _ := flags.GetBool("sequential")
		return "settings.parallel_execution", !seq
	}
	return "", nil
}

// Load reads, layers and validates the configuration.
// Every problem with the configuration itself is returned as *Error.
func Load(opts Options) (*Config, error) {
	path, err := findConfigFile(opts.File, opts.Dir)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, &Error{Path: path, Msg: "invalid YAML", Err: err}
	}

	// 3. Connections file
	connFile := opts.ConnectionsFile
	if connFile == "" && !k.Exists("connections") {
		if candidate := filepath.Join(filepath.Dir(path), DefaultConnectionsFile); fileExists(candidate) {
			connFile = candidate
		}
	}
	if connFile != "" {
		if !fileExists(connFile) {
			return nil, errorf(connFile, "configuration file not found")
		}
		if err := k.Load(file.Provider(connFile), yaml.Parser()); err != nil {
			return nil, &Error{Path: connFile, Msg: "invalid YAML", Err: err}
		}
	}

	// 4. Environment: LEAPDQ_SETTINGS__MAX_WORKERS -> settings.max_workers
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Flags
	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return flagKey(opts.Flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, &Error{Path: path, Msg: "unable to decode config", Err: err}
	}
	cfg.File = path

	rules, err := decodeRules(path, k.Get("rules"))
	if err != nil {
		return nil, err
	}
	cfg.Rules = rules

	for name, conn := range cfg.Connections {
		cfg.Connections[name] = expandConnection(conn)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Settings = cfg.Settings.Normalize()
	return &cfg, nil
}

// expandEnvVars expands ${VAR} patterns with environment variable values.
// Unset variables are left in place and reported when the connection is used.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}

func expandConnection(c core.ConnectionConfig) core.ConnectionConfig {
	c.Path = expandEnvVars(c.Path)
	c.Host = expandEnvVars(c.Host)
	c.Database = expandEnvVars(c.Database)
	c.Username = expandEnvVars(c.Username)
	c.Password = expandEnvVars(c.Password)
	c.Schema = expandEnvVars(c.Schema)
	if len(c.Options) > 0 {
		opts := make(map[string]string, len(c.Options))
		for k, v := range c.Options {
			opts[k] = expandEnvVars(v)
		}
		c.Options = opts
	}
	return c
}

// unresolvedField returns the first field still holding a ${VAR} placeholder.
func unresolvedField(c core.ConnectionConfig) (string, string, bool) {
	fields := []struct{ key, value string }{
		{"path", c.Path},
		{"host", c.Host},
		{"database", c.Database},
		{"username", c.Username},
		{"password", c.Password},
		{"schema", c.Schema},
	}
	for _, f := range fields {
		if envVarPattern.MatchString(f.value) {
			return f.key, f.value, true
		}
	}
	for _, k := range slices.Sorted(maps.Keys(c.Options)) {
		if v := c.Options[k]; envVarPattern.MatchString(v) {
			return "options." + k, v, true
		}
	}
	return "", "", false
}
