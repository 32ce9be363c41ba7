package holomcp

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// executeSQL runs an arbitrary statement inside a transaction. Read-only
// statements roll back after the result is collected; writes commit on
// success. The statement goes to the engine whole, over the extended query
// protocol and is never spliced into other SQL.
func (h *HologresMcp) executeSQL(ctx context.Context, sql string) *Envelope {
	startTime := time.Now()
	logger := h.callLogger().With().Str("tool", "execute_sql").Logger()

	if len(sql) > h.config.Query.MaxSQLLength {
		return h.failCall(logger, invalidPath("execute_sql",
			"statement too long: %d bytes exceeds maximum of %d bytes", len(sql), h.config.Query.MaxSQLLength))
	}

	ceiling, rulePattern := h.timeoutMgr.ForStatement(sql)
	readOnly := isReadOnlyStatement(sql)

	env := h.withConn(ctx, logger, ceiling, func(ctx context.Context, conn dbConn) (*Envelope, error) {
		if err := conn.begin(ctx); err != nil {
			return nil, err
		}
		rs, err := conn.queryRows(ctx, sql)
		if err != nil {
			// Release rolls the transaction back.
			return nil, err
		}
		if readOnly {
			if err := conn.rollback(ctx); err != nil {
				return nil, err
			}
		} else {
			if err := conn.commit(ctx); err != nil {
				return nil, err
			}
		}
		return h.normalizeResult(rs), nil
	})

	if !env.IsError() {
		logEvent := logger.Info().
			Str("sql", truncateForLog(sql, 200)).
			Dur("duration", time.Since(startTime)).
			Int("row_count", len(env.Rows)).
			Bool("read_only", readOnly)
		if rulePattern != "" {
			logEvent = logEvent.Str("timeout_rule", rulePattern)
		}
		logEvent.Msg("statement executed")
	}
	return env
}

// queryPlan wraps the statement in the engine's explain syntax and returns
// the plan tree as a text block. analyze=true runs the statement and
// reports runtime statistics.
func (h *HologresMcp) queryPlan(ctx context.Context, sql string, analyze bool) *Envelope {
	startTime := time.Now()
	tool := "get_query_plan"
	if analyze {
		tool = "get_execution_plan"
	}
	logger := h.callLogger().With().Str("tool", tool).Logger()

	if len(sql) > h.config.Query.MaxSQLLength {
		return h.failCall(logger, invalidPath(tool,
			"statement too long: %d bytes exceeds maximum of %d bytes", len(sql), h.config.Query.MaxSQLLength))
	}

	stmt := planStatement(sql, analyze)
	ceiling, _ := h.timeoutMgr.ForStatement(sql)

	env := h.withConn(ctx, logger, ceiling, func(ctx context.Context, conn dbConn) (*Envelope, error) {
		rs, err := conn.queryRows(ctx, stmt.SQL)
		if err != nil {
			return nil, err
		}
		return normalizeText(rs), nil
	})

	if !env.IsError() {
		logger.Info().
			Str("sql", truncateForLog(sql, 200)).
			Dur("duration", time.Since(startTime)).
			Msg("plan retrieved")
	}
	return env
}

// normalizeResult shapes an execute_sql result: statements that return no
// result set (DDL, utility commands under QueryExecModeExec) become a text
// status, everything else a rows envelope.
func (h *HologresMcp) normalizeResult(rs *rowSet) *Envelope {
	if len(rs.columns) == 0 {
		return textEnvelope(fmt.Sprintf("%d row(s) affected", rs.rowsAffected))
	}
	return h.normalizeRows(rs)
}

// isReadOnlyStatement reports whether the SQL is read-only and can be
// rolled back after collecting results. Statements that fail to parse are
// treated as writes so a successful execution still commits.
func isReadOnlyStatement(sql string) bool {
	result, err := pg_query.Parse(sql)
	if err != nil || len(result.Stmts) == 0 {
		return false
	}
	switch result.Stmts[0].Stmt.Node.(type) {
	case *pg_query.Node_SelectStmt:
		return true
	case *pg_query.Node_ExplainStmt:
		return true
	case *pg_query.Node_VariableShowStmt:
		return true
	default:
		return false
	}
}

// truncateForLog truncates a string for log output to avoid oversized log
// entries, backing up to a rune boundary.
func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	truncateAt := maxLen
	for truncateAt > 0 && !utf8.RuneStart(s[truncateAt]) {
		truncateAt--
	}
	return s[:truncateAt] + "...[truncated]"
}
