// Package timeout resolves execution ceilings for SQL statements.
// Catalog/resource reads get a short fixed ceiling; ad-hoc statements get
// the default ceiling unless a configured pattern rule overrides it.
package timeout

import (
	"fmt"
	"regexp"
	"time"
)

// Rule maps a SQL regex pattern to a specific execution ceiling.
type Rule struct {
	Pattern string
	Timeout time.Duration
}

// Config holds the ceilings the Manager resolves from.
type Config struct {
	DefaultTimeout  time.Duration // ad-hoc statements (execute_sql, plan tools)
	ResourceTimeout time.Duration // catalog and query-log reads
	Rules           []Rule
}

type compiledRule struct {
	pattern *regexp.Regexp
	timeout time.Duration
}

// Manager resolves statement timeouts. Safe for concurrent use.
type Manager struct {
	rules           []compiledRule
	defaultTimeout  time.Duration
	resourceTimeout time.Duration
}

// NewManager creates a Manager. Panics on invalid regex patterns, matching
// the engine's config-validation convention.
func NewManager(config Config) *Manager {
	compiled := make([]compiledRule, len(config.Rules))
	for i, r := range config.Rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			panic(fmt.Sprintf("timeout: invalid regex pattern %q: %v", r.Pattern, err))
		}
		compiled[i] = compiledRule{pattern: re, timeout: r.Timeout}
	}
	return &Manager{
		rules:           compiled,
		defaultTimeout:  config.DefaultTimeout,
		resourceTimeout: config.ResourceTimeout,
	}
}

// ForStatement returns the ceiling for an ad-hoc SQL statement and the
// pattern of the rule that matched, or "" when the default applied.
// First matching rule wins.
func (m *Manager) ForStatement(sql string) (time.Duration, string) {
	for _, rule := range m.rules {
		if rule.pattern.MatchString(sql) {
			return rule.timeout, rule.pattern.String()
		}
	}
	return m.defaultTimeout, ""
}

// ForResource returns the fixed ceiling for catalog and query-log reads.
func (m *Manager) ForResource() time.Duration {
	return m.resourceTimeout
}
