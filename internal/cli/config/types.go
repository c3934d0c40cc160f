// Package config loads the leapdq configuration: run settings, named
// connections and the rule list.
//
// Sources are layered with koanf, lowest precedence first: built-in
// defaults, the YAML config file, an optional connections file,
// LEAPDQ_ environment variables and finally explicitly set CLI flags.
package config

import (
	"maps"
	"slices"

	"github.com/leapstack-labs/leapdq/pkg/core"
)

// Default configuration values.
const (
	DefaultFile            = "leapdq.yaml"
	DefaultConnectionsFile = "connections.yaml"
	EnvPrefix              = "LEAPDQ_"
)

// Config holds everything a run needs.
type Config struct {
	// File is the config file that was loaded.
	File string `koanf:"-"`

	Settings          core.Settings                    `koanf:"settings"`
	DefaultConnection string                           `koanf:"default_connection"`
	Connections       map[string]core.ConnectionConfig `koanf:"connections"`

	// Rules are decoded separately; type-specific keys are collected into Params.
	Rules []core.Rule `koanf:"-"`
}

// ConnectionNames returns the configured connection names, sorted.
func (c *Config) ConnectionNames() []string {
	return slices.Sorted(maps.Keys(c.Connections))
}

// Connection resolves a connection by name. An empty name selects
// default_connection, or the only connection when exactly one is defined.
func (c *Config) Connection(name string) (string, core.ConnectionConfig, error) {
	if name == "" {
		name = c.DefaultConnection
	}
	if name == "" {
		names := c.ConnectionNames()
		if len(names) != 1 {
			return "", core.ConnectionConfig{}, errorf(c.File,
				"%d connections defined; select one with --connection or default_connection", len(names))
		}
		name = names[0]
	}

	conn, ok := c.Connections[name]
	if !ok {
		return "", core.ConnectionConfig{}, errorf(c.File, "connection not found: %s (available: %v)", name, c.ConnectionNames())
	}
	if key, value, ok := unresolvedField(conn); ok {
		return "", core.ConnectionConfig{}, errorf(c.File,
			"connection %q has unresolved environment variable in %q: %s", name, key, value)
	}
	return name, conn, nil
}
