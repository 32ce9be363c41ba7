package holomcp

import (
	"context"
	"strings"
	"testing"
)

func TestExecuteSQLReadOnlyRollsBack(t *testing.T) {
	t.Parallel()
	conn := &fakeConn{results: []queryResult{
		{rs: singleRowSet([]string{"id"}, []any{int64(1)}, []any{int64(2)})},
	}}
	pool := &fakePool{conns: []*fakeConn{conn}}
	h := newTestEngine(t, pool)

	env := h.executeSQL(context.Background(), "SELECT id FROM orders")
	if env.IsError() {
		t.Fatalf("unexpected error: %+v", env.Error)
	}
	if conn.begun != 1 {
		t.Errorf("begun = %d, want 1", conn.begun)
	}
	if conn.committed != 0 {
		t.Errorf("read-only statement committed %d times", conn.committed)
	}
	if conn.rolledBack != 1 {
		t.Errorf("rolledBack = %d, want 1", conn.rolledBack)
	}
	if len(env.Rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(env.Rows))
	}
}

func TestExecuteSQLWriteCommits(t *testing.T) {
	t.Parallel()
	conn := &fakeConn{results: []queryResult{
		{rs: &rowSet{rowsAffected: 3}},
	}}
	pool := &fakePool{conns: []*fakeConn{conn}}
	h := newTestEngine(t, pool)

	env := h.executeSQL(context.Background(), "INSERT INTO orders (id) VALUES (1), (2), (3)")
	if env.IsError() {
		t.Fatalf("unexpected error: %+v", env.Error)
	}
	if conn.committed != 1 {
		t.Errorf("committed = %d, want 1", conn.committed)
	}
	if conn.rolledBack != 0 {
		t.Errorf("write statement rolled back %d times", conn.rolledBack)
	}
	if env.Text != "3 row(s) affected" {
		t.Errorf("Text = %q", env.Text)
	}
}

func TestExecuteSQLStatementTooLong(t *testing.T) {
	t.Parallel()
	pool := &fakePool{}
	h := newTestEngine(t, pool)
	h.config.Query.MaxSQLLength = 10

	env := h.executeSQL(context.Background(), "SELECT * FROM orders")
	if !env.IsError() {
		t.Fatal("expected error envelope")
	}
	if env.Error.Kind != KindInvalidPath {
		t.Errorf("kind = %s, want %s", env.Error.Kind, KindInvalidPath)
	}
	if pool.acquired != 0 {
		t.Error("length check ran after acquiring a connection")
	}
}

func TestIsReadOnlyStatement(t *testing.T) {
	t.Parallel()
	tests := []struct {
		sql  string
		want bool
	}{
		{"SELECT 1", true},
		{"select * from orders where id = 1", true},
		{"WITH recent AS (SELECT * FROM orders) SELECT count(*) FROM recent", true},
		{"EXPLAIN SELECT 1", true},
		{"SHOW search_path", true},
		{"INSERT INTO orders (id) VALUES (1)", false},
		{"UPDATE orders SET id = 2", false},
		{"DELETE FROM orders", false},
		{"CREATE TABLE t (id int)", false},
		{"DROP TABLE orders", false},
		{"ANALYZE orders", false},
		{"not sql at all", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isReadOnlyStatement(tt.sql); got != tt.want {
			t.Errorf("isReadOnlyStatement(%q) = %v, want %v", tt.sql, got, tt.want)
		}
	}
}

func TestQueryPlanWrapsStatement(t *testing.T) {
	t.Parallel()
	conn := &fakeConn{results: []queryResult{
		{rs: singleRowSet([]string{"QUERY PLAN"}, []any{"Seq Scan on orders"})},
	}}
	pool := &fakePool{conns: []*fakeConn{conn}}
	h := newTestEngine(t, pool)

	env := h.queryPlan(context.Background(), "SELECT * FROM orders", false)
	if env.IsError() {
		t.Fatalf("unexpected error: %+v", env.Error)
	}
	if conn.queries[0] != "EXPLAIN SELECT * FROM orders" {
		t.Errorf("sent %q", conn.queries[0])
	}
	if env.Text != "Seq Scan on orders" {
		t.Errorf("Text = %q", env.Text)
	}
}

func TestExecutionPlanWrapsStatement(t *testing.T) {
	t.Parallel()
	conn := &fakeConn{results: []queryResult{
		{rs: singleRowSet([]string{"QUERY PLAN"}, []any{"Seq Scan on orders (actual rows=10)"})},
	}}
	pool := &fakePool{conns: []*fakeConn{conn}}
	h := newTestEngine(t, pool)

	env := h.queryPlan(context.Background(), "SELECT * FROM orders", true)
	if env.IsError() {
		t.Fatalf("unexpected error: %+v", env.Error)
	}
	if !strings.HasPrefix(conn.queries[0], "EXPLAIN ANALYZE ") {
		t.Errorf("sent %q", conn.queries[0])
	}
}

func TestTruncateForLog(t *testing.T) {
	t.Parallel()
	if got := truncateForLog("short", 200); got != "short" {
		t.Errorf("short string modified: %q", got)
	}

	long := strings.Repeat("a", 300)
	got := truncateForLog(long, 200)
	if len(got) != 200+len("...[truncated]") {
		t.Errorf("unexpected truncated length %d", len(got))
	}

	// Truncation backs up to a rune boundary instead of splitting UTF-8.
	multibyte := strings.Repeat("宽", 100)
	got = truncateForLog(multibyte, 10)
	if !strings.HasSuffix(got, "...[truncated]") {
		t.Errorf("missing marker: %q", got)
	}
	prefix := strings.TrimSuffix(got, "...[truncated]")
	for _, r := range prefix {
		if r != '宽' {
			t.Errorf("rune split in truncation: %q", prefix)
		}
	}
}
