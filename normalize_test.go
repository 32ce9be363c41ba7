package holomcp

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestNormalizeRowsPreservesColumnOrder(t *testing.T) {
	t.Parallel()
	h := newTestEngine(t, &fakePool{})
	rs := singleRowSet(
		[]string{"zeta", "alpha", "mid"},
		[]any{1, 2, 3},
	)

	env := h.normalizeRows(rs)
	if !reflect.DeepEqual(env.Columns, []string{"zeta", "alpha", "mid"}) {
		t.Errorf("column order not preserved: %v", env.Columns)
	}
	if len(env.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(env.Rows))
	}
	if env.Rows[0]["alpha"] != 2 {
		t.Errorf("row value mismatch: %v", env.Rows[0])
	}
}

func TestNormalizeRowsTruncation(t *testing.T) {
	t.Parallel()
	h := newTestEngine(t, &fakePool{})
	h.config.Query.MaxResultRows = 2

	rs := singleRowSet([]string{"n"}, []any{1}, []any{2}, []any{3}, []any{4})
	env := h.normalizeRows(rs)
	if len(env.Rows) != 2 {
		t.Errorf("expected 2 rows after truncation, got %d", len(env.Rows))
	}
	if !env.Truncated {
		t.Error("expected Truncated to be set")
	}
}

func TestNormalizeRowsUnderLimitNotTruncated(t *testing.T) {
	t.Parallel()
	h := newTestEngine(t, &fakePool{})
	rs := singleRowSet([]string{"n"}, []any{1})
	env := h.normalizeRows(rs)
	if env.Truncated {
		t.Error("Truncated set on a result under the limit")
	}
}

func TestNormalizeText(t *testing.T) {
	t.Parallel()
	rs := singleRowSet(
		[]string{"QUERY PLAN"},
		[]any{"Seq Scan on orders"},
		[]any{"  Filter: (id > 10)"},
	)
	env := normalizeText(rs)
	want := "Seq Scan on orders\n  Filter: (id > 10)"
	if env.Text != want {
		t.Errorf("Text = %q, want %q", env.Text, want)
	}
	if len(env.Rows) != 0 {
		t.Errorf("text envelope should have no rows")
	}
}

func TestConvertValue(t *testing.T) {
	t.Parallel()
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	tests := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{"nil", nil, nil},
		{"string", "hello", "hello"},
		{"int", int64(42), int64(42)},
		{"timestamp", ts, "2025-03-14T09:26:53Z"},
		{"nan", float32(math.NaN()), "NaN"},
		{"inf", math.Inf(1), "Infinity"},
		{"neg_inf", math.Inf(-1), "-Infinity"},
		{"bytea", []byte{0x01, 0x02}, "AQI="},
		{"uuid", [16]byte{0xde, 0xad, 0xbe, 0xef, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}, "deadbeef-0000-0000-0000-000000000001"},
	}
	for _, tt := range tests {
		got := convertValue(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: convertValue(%v) = %v, want %v", tt.name, tt.in, got, tt.want)
		}
	}
}

func TestConvertValueRecursesIntoJSON(t *testing.T) {
	t.Parallel()
	in := map[string]interface{}{
		"when": time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		"tags": []interface{}{[]byte{0xff}},
	}
	got := convertValue(in).(map[string]interface{})
	if got["when"] != "2025-01-01T00:00:00Z" {
		t.Errorf("nested timestamp not converted: %v", got["when"])
	}
	if got["tags"].([]interface{})[0] != "/w==" {
		t.Errorf("nested bytea not converted: %v", got["tags"])
	}
}

func TestRenderRowsAsTSV(t *testing.T) {
	t.Parallel()
	env := &Envelope{
		Columns: []string{"name", "rows"},
		Rows: []map[string]interface{}{
			{"name": "orders", "rows": 10},
			{"name": "users", "rows": nil},
		},
	}
	got := env.Render()
	want := "name\trows\norders\t10\nusers\tNULL"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRenderTruncatedMarker(t *testing.T) {
	t.Parallel()
	env := &Envelope{
		Columns:   []string{"n"},
		Rows:      []map[string]interface{}{{"n": 1}},
		Truncated: true,
	}
	if !strings.HasSuffix(env.Render(), "... (result truncated)") {
		t.Errorf("missing truncation marker: %q", env.Render())
	}
}

func TestRenderError(t *testing.T) {
	t.Parallel()
	env := errorEnvelope(invalidPath("hologres:///x", "bad segment"))
	got := env.Render()
	if !strings.HasPrefix(got, "error (invalid_path):") {
		t.Errorf("Render() = %q", got)
	}
	if !env.IsError() {
		t.Error("IsError() = false for error envelope")
	}
}

func TestRenderText(t *testing.T) {
	t.Parallel()
	env := textEnvelope("CREATE TABLE x ();")
	if env.Render() != "CREATE TABLE x ();" {
		t.Errorf("Render() = %q", env.Render())
	}
}
