package holomcp

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/holodb/holo-mcp/internal/timeout"
)

// newTestEngine builds an engine around a scripted pool, bypassing New()
// so no real pgxpool is created.
func newTestEngine(t *testing.T, pool connPool) *HologresMcp {
	t.Helper()
	config := DefaultConfig()
	return &HologresMcp{
		config:    config,
		pool:      pool,
		semaphore: make(chan struct{}, config.Pool.MaxConns),
		timeoutMgr: timeout.NewManager(timeout.Config{
			DefaultTimeout:  30 * time.Second,
			ResourceTimeout: 10 * time.Second,
		}),
		logger: zerolog.Nop(),
	}
}

// queryResult is one scripted queryRows outcome.
type queryResult struct {
	rs  *rowSet
	err error
}

// fakeConn is a scripted dbConn. queryRows consumes results in order;
// every call is recorded for assertions.
type fakeConn struct {
	results []queryResult

	queries   []string
	queryArgs [][]any

	execSQL      []string
	execErr      error
	execAffected int64

	beginErr   error
	begun      int
	committed  int
	rolledBack int
}

func (c *fakeConn) queryRows(ctx context.Context, sql string, args ...any) (*rowSet, error) {
	c.queries = append(c.queries, sql)
	c.queryArgs = append(c.queryArgs, args)
	if len(c.results) == 0 {
		return &rowSet{}, nil
	}
	r := c.results[0]
	c.results = c.results[1:]
	return r.rs, r.err
}

func (c *fakeConn) exec(ctx context.Context, sql string, args ...any) (int64, error) {
	c.execSQL = append(c.execSQL, sql)
	return c.execAffected, c.execErr
}

func (c *fakeConn) begin(ctx context.Context) error {
	c.begun++
	return c.beginErr
}

func (c *fakeConn) commit(ctx context.Context) error {
	c.committed++
	return nil
}

func (c *fakeConn) rollback(ctx context.Context) error {
	c.rolledBack++
	return nil
}

// fakePool hands out scripted connections in order and records every
// release with its healthy flag.
type fakePool struct {
	conns      []*fakeConn
	acquireErr error

	acquired int
	releases []bool
	closed   bool
}

func (p *fakePool) acquire(ctx context.Context) (dbConn, releaseFunc, error) {
	if p.acquireErr != nil {
		return nil, nil, p.acquireErr
	}
	if p.acquired >= len(p.conns) {
		return nil, nil, fmt.Errorf("fakePool: no connection scripted for acquire #%d", p.acquired+1)
	}
	conn := p.conns[p.acquired]
	p.acquired++
	release := func(healthy bool) {
		p.releases = append(p.releases, healthy)
	}
	return conn, release, nil
}

func (p *fakePool) close() {
	p.closed = true
}

func singleRowSet(columns []string, rows ...[]any) *rowSet {
	return &rowSet{columns: columns, rows: rows}
}
