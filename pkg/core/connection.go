package core

// Connection types understood by the bundled connectors.
const (
	ConnectionSQLServer = "sqlserver"
	ConnectionPostgres  = "postgres"
	ConnectionSQLite    = "sqlite"
	ConnectionCSV       = "csv"
	ConnectionDuckDB    = "duckdb"
)

// ConnectionConfig holds configuration for connecting to a data source.
type ConnectionConfig struct {
	Type              string            `json:"type" koanf:"type"`
	Path              string            `json:"path,omitempty" koanf:"path"`
	Host              string            `json:"host,omitempty" koanf:"host"`
	Port              int               `json:"port,omitempty" koanf:"port"`
	Database          string            `json:"database,omitempty" koanf:"database"`
	Username          string            `json:"username,omitempty" koanf:"username"`
	Password          string            `json:"-" koanf:"password"`
	Schema            string            `json:"schema,omitempty" koanf:"schema"`
	Timeout           int               `json:"timeout,omitempty" koanf:"timeout"` // seconds
	TrustedConnection bool              `json:"trusted_connection,omitempty" koanf:"trusted_connection"`
	PoolSize          int               `json:"pool_size,omitempty" koanf:"pool_size"`
	Options           map[string]string `json:"options,omitempty" koanf:"options"`
}

// TimeoutOrDefault returns the configured timeout in seconds, or 30.
func (c ConnectionConfig) TimeoutOrDefault() int {
	if c.Timeout <= 0 {
		return 30
	}
	return c.Timeout
}
