package timeout

import (
	"strings"
	"testing"
	"time"
)

func TestMatchFirstRule(t *testing.T) {
	t.Parallel()
	m := NewManager(Config{
		DefaultTimeout:  30 * time.Second,
		ResourceTimeout: 10 * time.Second,
		Rules: []Rule{
			{Pattern: "hg_query_log", Timeout: 5 * time.Second},
			{Pattern: "JOIN", Timeout: 60 * time.Second},
		},
	})

	got, pattern := m.ForStatement("SELECT * FROM hologres.hg_query_log")
	if got != 5*time.Second {
		t.Errorf("expected 5s, got %v", got)
	}
	if pattern != "hg_query_log" {
		t.Errorf("expected matched pattern hg_query_log, got %q", pattern)
	}
}

func TestStopOnFirstMatch(t *testing.T) {
	t.Parallel()
	m := NewManager(Config{
		DefaultTimeout: 30 * time.Second,
		Rules: []Rule{
			{Pattern: "hg_query_log", Timeout: 5 * time.Second},
			{Pattern: "JOIN", Timeout: 60 * time.Second},
		},
	})

	got, _ := m.ForStatement("SELECT * FROM hg_query_log JOIN x JOIN y")
	if got != 5*time.Second {
		t.Errorf("expected 5s (first match wins), got %v", got)
	}
}

func TestDefaultTimeout(t *testing.T) {
	t.Parallel()
	m := NewManager(Config{
		DefaultTimeout: 30 * time.Second,
		Rules: []Rule{
			{Pattern: "hg_query_log", Timeout: 5 * time.Second},
		},
	})

	got, pattern := m.ForStatement("SELECT 1")
	if got != 30*time.Second {
		t.Errorf("expected 30s (default), got %v", got)
	}
	if pattern != "" {
		t.Errorf("expected empty pattern for default, got %q", pattern)
	}
}

func TestNoRules(t *testing.T) {
	t.Parallel()
	m := NewManager(Config{
		DefaultTimeout: 30 * time.Second,
	})

	got, _ := m.ForStatement("SELECT 1")
	if got != 30*time.Second {
		t.Errorf("expected 30s (default), got %v", got)
	}
}

func TestResourceTimeout(t *testing.T) {
	t.Parallel()
	m := NewManager(Config{
		DefaultTimeout:  30 * time.Second,
		ResourceTimeout: 10 * time.Second,
		Rules: []Rule{
			{Pattern: "pg_catalog", Timeout: 60 * time.Second},
		},
	})

	// Resource reads ignore rules entirely.
	if got := m.ForResource(); got != 10*time.Second {
		t.Errorf("expected 10s resource ceiling, got %v", got)
	}
}

func TestInvalidRegexPanics(t *testing.T) {
	t.Parallel()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on invalid regex")
		}
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, "invalid regex") {
			t.Errorf("unexpected panic message: %v", r)
		}
	}()

	NewManager(Config{
		DefaultTimeout: 30 * time.Second,
		Rules: []Rule{
			{Pattern: "[invalid", Timeout: 5 * time.Second},
		},
	})
}
