package holomcp

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/holodb/holo-mcp/internal/timeout"
)

// HologresMcp is the dispatch core: it resolves resource paths and tool
// invocations into parameterized SQL against a pooled Hologres connection
// and shapes every outcome into a response envelope. All exported methods
// are safe for concurrent use from multiple goroutines.
type HologresMcp struct {
	config     Config
	pool       connPool
	semaphore  chan struct{}
	timeoutMgr *timeout.Manager
	logger     zerolog.Logger
}

// New creates a HologresMcp instance. connString is the Postgres-compatible
// connection string (credentials included) built by the caller from the
// process environment. Panics on invalid config; returns an error only for
// runtime failures such as pool creation.
func New(ctx context.Context, connString string, config Config, logger zerolog.Logger) (*HologresMcp, error) {
	if connString == "" {
		panic("holomcp: connString must be non-empty")
	}
	if config.Pool.MaxConns <= 0 {
		panic("holomcp: pool.max_conns must be > 0")
	}
	if config.Pool.AcquireTimeoutSeconds <= 0 {
		panic("holomcp: pool.acquire_timeout_seconds must be > 0")
	}
	if config.Query.DefaultTimeoutSeconds <= 0 {
		panic("holomcp: query.default_timeout_seconds must be > 0")
	}
	if config.Query.ResourceTimeoutSeconds <= 0 {
		panic("holomcp: query.resource_timeout_seconds must be > 0")
	}
	if config.Query.MaxSQLLength == 0 {
		config.Query.MaxSQLLength = 100000
	}
	if config.Query.MaxResultRows == 0 {
		config.Query.MaxResultRows = 1000
	}
	if config.Query.DefaultLogRows == 0 {
		config.Query.DefaultLogRows = 100
	}
	if config.Query.MaxLogRows == 0 {
		config.Query.MaxLogRows = 500
	}
	if config.Query.MaxSQLLength < 0 || config.Query.MaxResultRows < 0 ||
		config.Query.DefaultLogRows < 0 || config.Query.MaxLogRows < 0 {
		panic("holomcp: query limits must be > 0")
	}
	for _, rule := range config.Query.TimeoutRules {
		if rule.TimeoutSeconds <= 0 {
			panic(fmt.Sprintf("holomcp: timeout_rule with pattern %q has timeout_seconds <= 0", rule.Pattern))
		}
	}

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(config.Pool.MaxConns)
	poolConfig.MinConns = int32(config.Pool.MinConns)
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	if config.Pool.MaxConnLifetime != "" {
		d, err := time.ParseDuration(config.Pool.MaxConnLifetime)
		if err != nil {
			panic(fmt.Sprintf("holomcp: invalid pool.max_conn_lifetime %q: %v", config.Pool.MaxConnLifetime, err))
		}
		poolConfig.MaxConnLifetime = d
	}
	if config.Pool.MaxConnIdleTime != "" {
		d, err := time.ParseDuration(config.Pool.MaxConnIdleTime)
		if err != nil {
			panic(fmt.Sprintf("holomcp: invalid pool.max_conn_idle_time %q: %v", config.Pool.MaxConnIdleTime, err))
		}
		poolConfig.MaxConnIdleTime = d
	}
	if config.Pool.HealthCheckPeriod != "" {
		d, err := time.ParseDuration(config.Pool.HealthCheckPeriod)
		if err != nil {
			panic(fmt.Sprintf("holomcp: invalid pool.health_check_period %q: %v", config.Pool.HealthCheckPeriod, err))
		}
		poolConfig.HealthCheckPeriod = d
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	timeoutRules := make([]timeout.Rule, len(config.Query.TimeoutRules))
	for i, r := range config.Query.TimeoutRules {
		timeoutRules[i] = timeout.Rule{
			Pattern: r.Pattern,
			Timeout: time.Duration(r.TimeoutSeconds) * time.Second,
		}
	}

	return &HologresMcp{
		config: config,
		pool: newPgxConnPool(pool,
			time.Duration(config.Pool.AcquireTimeoutSeconds)*time.Second),
		semaphore: make(chan struct{}, config.Pool.MaxConns),
		timeoutMgr: timeout.NewManager(timeout.Config{
			DefaultTimeout:  time.Duration(config.Query.DefaultTimeoutSeconds) * time.Second,
			ResourceTimeout: time.Duration(config.Query.ResourceTimeoutSeconds) * time.Second,
			Rules:           timeoutRules,
		}),
		logger: logger,
	}, nil
}

// Ping verifies the warehouse is reachable by acquiring and releasing one
// connection.
func (h *HologresMcp) Ping(ctx context.Context) error {
	conn, release, err := h.pool.acquire(ctx)
	if err != nil {
		return err
	}
	defer release(true)
	_, err = conn.queryRows(ctx, "SELECT 1;")
	return err
}

// Close closes the connection pool.
func (h *HologresMcp) Close(ctx context.Context) {
	h.pool.close()
}
