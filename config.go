package holomcp

// Config is the engine configuration used by library mode via New().
// Connection credentials are not part of it; they arrive as a connection
// string built by the caller from the process environment.
type Config struct {
	Pool  PoolConfig  `toml:"pool"`
	Query QueryConfig `toml:"query"`
}

// ServerConfig embeds Config and adds server-only settings for CLI mode.
// Loaded from an optional TOML file; zero values fall back to defaults.
type ServerConfig struct {
	Config
	Server  ServerSettings `toml:"server"`
	Logging LoggingConfig  `toml:"logging"`
}

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxConns              int    `toml:"max_conns"`
	MinConns              int    `toml:"min_conns"`
	MaxConnLifetime       string `toml:"max_conn_lifetime"`
	MaxConnIdleTime       string `toml:"max_conn_idle_time"`
	HealthCheckPeriod     string `toml:"health_check_period"`
	AcquireTimeoutSeconds int    `toml:"acquire_timeout_seconds"`
}

// QueryConfig holds execution limits and ceilings.
type QueryConfig struct {
	DefaultTimeoutSeconds  int           `toml:"default_timeout_seconds"`
	ResourceTimeoutSeconds int           `toml:"resource_timeout_seconds"`
	MaxSQLLength           int           `toml:"max_sql_length"`
	MaxResultRows          int           `toml:"max_result_rows"`
	DefaultLogRows         int           `toml:"default_log_rows"`
	MaxLogRows             int           `toml:"max_log_rows"`
	TimeoutRules           []TimeoutRule `toml:"timeout_rules"`
}

// TimeoutRule maps a SQL regex pattern to a specific timeout duration.
type TimeoutRule struct {
	Pattern        string `toml:"pattern"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ServerSettings selects the transport for CLI mode.
type ServerSettings struct {
	Transport string `toml:"transport"` // "stdio" (default) or "http"
	Port      int    `toml:"port"`      // http transport only
}

// LoggingConfig holds logging settings for CLI mode. The stdio transport
// owns stdout, so "stdout" is only valid for the http transport.
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // json, text
	Output string `toml:"output"` // stderr (default), stdout, or a file path
}

// DefaultConfig returns the engine defaults: a small pool sized for a
// single agent session, conservative ceilings, bounded result sets.
func DefaultConfig() Config {
	return Config{
		Pool: PoolConfig{
			MaxConns:              4,
			MinConns:              0,
			AcquireTimeoutSeconds: 10,
		},
		Query: QueryConfig{
			DefaultTimeoutSeconds:  30,
			ResourceTimeoutSeconds: 10,
			MaxSQLLength:           100000,
			MaxResultRows:          1000,
			DefaultLogRows:         100,
			MaxLogRows:             500,
		},
	}
}
