package connector

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapdq/pkg/core"
)

// Factory creates an unconnected connector.
type Factory func(*slog.Logger) Connector

// ImportPath is where the built-in connector packages live.
const ImportPath = "github.com/leapstack-labs/leapdq/pkg/connectors/"

// builtinPackages maps each built-in connection type to the package that
// registers it.
var builtinPackages = map[string]string{
	core.ConnectionSQLite:    "sqlite",
	core.ConnectionPostgres:  "postgres",
	core.ConnectionDuckDB:    "duckdb",
	core.ConnectionCSV:       "duckdb",
	core.ConnectionSQLServer: "sqlserver",
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a connector factory for a connection type. It is called from
// init() and panics on a nil factory or a type registered twice.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if factory == nil {
		panic("connector: Register factory is nil for " + name)
	}
	if _, dup := registry[name]; dup {
		panic("connector: Register called twice for " + name)
	}
	registry[name] = factory
}

// Get retrieves a connector factory by name.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// New creates an unconnected connector for cfg.Type.
// The logger is passed to the connector constructor (nil uses discard logger).
func New(cfg core.ConnectionConfig, logger *slog.Logger) (Connector, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("connection type not specified")
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownConnectorError{
			Type:      cfg.Type,
			Available: Available(),
			Package:   builtinPackages[cfg.Type],
		}
	}
	return factory(logger), nil
}

// Available returns all registered connector names (sorted).
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Sorted(maps.Keys(registry))
}

// IsRegistered checks if a connector type is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownConnectorError is returned when an unknown connection type is requested.
type UnknownConnectorError struct {
	Type      string
	Available []string
	// Package is set when Type is a built-in type whose package was not imported.
	Package string
}

func (e *UnknownConnectorError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "unknown connection type %q\nAvailable connectors: %v\n", e.Type, e.Available)
	if e.Package != "" {
		fmt.Fprintf(&b, "Hint: the %s connector is built in; import _ %q to register it", e.Type, ImportPath+e.Package)
	} else {
		b.WriteString("Hint: Check connections.<name>.type in leapdq.yaml")
	}
	return b.String()
}
