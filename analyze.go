package holomcp

import (
	"context"
	"fmt"
	"time"
)

// analyzeTable issues the engine's statistics-collection command for one
// table, then reads the refreshed statistics back on the same connection.
// Both statements come from the template engine; schema and table were
// identifier-checked during argument validation.
func (h *HologresMcp) analyzeTable(ctx context.Context, schema, table string) *Envelope {
	startTime := time.Now()
	logger := h.callLogger().With().
		Str("tool", "analyze_table").
		Str("schema", schema).
		Str("table", table).
		Logger()

	stmts := analyzeStatements(schema, table)
	ceiling, _ := h.timeoutMgr.ForStatement(stmts[0].SQL)

	env := h.withConn(ctx, logger, ceiling, func(ctx context.Context, conn dbConn) (*Envelope, error) {
		if _, err := conn.exec(ctx, stmts[0].SQL, stmts[0].Args...); err != nil {
			return nil, err
		}
		rs, err := conn.queryRows(ctx, stmts[1].SQL, stmts[1].Args...)
		if err != nil {
			return nil, err
		}
		if len(rs.rows) == 0 {
			// Analyze succeeded but the statistics view has no row yet.
			return textEnvelope(fmt.Sprintf("Successfully analyzed table %s.%s", schema, table)), nil
		}
		return h.normalizeRows(rs), nil
	})

	if !env.IsError() {
		logger.Info().
			Dur("duration", time.Since(startTime)).
			Msg("table analyzed")
	}
	return env
}
