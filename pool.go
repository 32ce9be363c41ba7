package holomcp

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// rowSet is one collected native result: column names in source order plus
// raw driver values, before normalization.
type rowSet struct {
	columns      []string
	rows         [][]any
	rowsAffected int64
}

// dbConn is the slice of connection behavior the dispatcher needs. A call
// owns its dbConn exclusively between acquire and release; an open
// transaction (begin without commit/rollback) routes statements through it.
type dbConn interface {
	queryRows(ctx context.Context, sql string, args ...any) (*rowSet, error)
	exec(ctx context.Context, sql string, args ...any) (int64, error)
	begin(ctx context.Context) error
	commit(ctx context.Context) error
	rollback(ctx context.Context) error
}

// releaseFunc returns a connection to the pool. healthy=false discards the
// session instead of reusing it. Safe to call exactly once; the dispatcher
// defers it on every path.
type releaseFunc func(healthy bool)

// connPool hands out connections for the duration of one call. The
// production implementation wraps pgxpool; tests substitute a scripted fake.
type connPool interface {
	acquire(ctx context.Context) (dbConn, releaseFunc, error)
	close()
}

// pgxConnPool is the pgxpool-backed connPool.
type pgxConnPool struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
}

func newPgxConnPool(pool *pgxpool.Pool, acquireTimeout time.Duration) *pgxConnPool {
	return &pgxConnPool{pool: pool, acquireTimeout: acquireTimeout}
}

func (p *pgxConnPool) acquire(ctx context.Context) (dbConn, releaseFunc, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	conn, err := p.pool.Acquire(acquireCtx)
	if err != nil {
		if acquireCtx.Err() == context.DeadlineExceeded {
			return nil, nil, &ConnectionError{
				Kind: KindPoolExhausted,
				Err:  fmt.Errorf("no connection became available within %s: %w", p.acquireTimeout, err),
			}
		}
		return nil, nil, &ConnectionError{Kind: KindConnectFailed, Err: err}
	}

	pc := &pgxConn{conn: conn}
	release := func(healthy bool) {
		// Roll back any transaction the call left open, then return the
		// session. Release uses a fresh context: the call's context may
		// already be cancelled, and the connection must go back regardless.
		if pc.tx != nil {
			_ = pc.tx.Rollback(context.Background())
			pc.tx = nil
		}
		if !healthy {
			_ = conn.Conn().Close(context.Background())
		}
		conn.Release()
	}
	return pc, release, nil
}

func (p *pgxConnPool) close() {
	p.pool.Close()
}

// pgxConn adapts one *pgxpool.Conn (plus its optional open transaction) to
// the dbConn interface.
type pgxConn struct {
	conn *pgxpool.Conn
	tx   pgx.Tx
}

func (c *pgxConn) queryRows(ctx context.Context, sql string, args ...any) (*rowSet, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if c.tx != nil {
		rows, err = c.tx.Query(ctx, sql, args...)
	} else {
		rows, err = c.conn.Query(ctx, sql, args...)
	}
	if err != nil {
		return nil, err
	}
	return collectRowSet(rows)
}

func (c *pgxConn) exec(ctx context.Context, sql string, args ...any) (int64, error) {
	if c.tx != nil {
		tag, err := c.tx.Exec(ctx, sql, args...)
		return tag.RowsAffected(), err
	}
	tag, err := c.conn.Exec(ctx, sql, args...)
	return tag.RowsAffected(), err
}

func (c *pgxConn) begin(ctx context.Context) error {
	if c.tx != nil {
		return fmt.Errorf("transaction already open")
	}
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return err
	}
	c.tx = tx
	return nil
}

func (c *pgxConn) commit(ctx context.Context) error {
	if c.tx == nil {
		return fmt.Errorf("no open transaction")
	}
	err := c.tx.Commit(ctx)
	c.tx = nil
	return err
}

func (c *pgxConn) rollback(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	err := c.tx.Rollback(ctx)
	c.tx = nil
	return err
}

// collectRowSet drains pgx.Rows into a rowSet.
func collectRowSet(rows pgx.Rows) (*rowSet, error) {
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = fd.Name
	}

	collected := make([][]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make([]any, len(values))
		copy(row, values)
		collected = append(collected, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &rowSet{
		columns:      columns,
		rows:         collected,
		rowsAffected: rows.CommandTag().RowsAffected(),
	}, nil
}
