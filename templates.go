package holomcp

import (
	"fmt"

	"github.com/holodb/holo-mcp/internal/ident"
)

// statement is one parameterized SQL statement ready for execution. Args
// always travel as bound parameters; the only interpolated text is
// identifier positions that passed ident.Check.
type statement struct {
	SQL  string
	Args []any
}

// Engine-internal schemas excluded from catalog enumeration.
const internalSchemas = `('pg_catalog', 'information_schema', 'hologres', 'hologres_statistic', 'hologres_streaming_mv')`

const schemasSQL = `
SELECT table_schema
FROM information_schema.tables
WHERE table_schema NOT IN ` + internalSchemas + `
GROUP BY table_schema
ORDER BY table_schema;
`

const tablesSQL = `
SELECT table_name
FROM information_schema.tables
WHERE table_schema NOT IN ` + internalSchemas + `
  AND table_schema = $1
GROUP BY table_name
ORDER BY table_name;
`

const tableStatisticSQL = `
SELECT
    schema_name,
    table_name,
    schema_version,
    statistic_version,
    total_rows,
    analyze_timestamp
FROM hologres_statistic.hg_table_statistic
WHERE schema_name = $1
  AND table_name = $2
ORDER BY analyze_timestamp DESC;
`

const missingStatsSQL = `
SELECT *
FROM hologres_statistic.hg_stats_missing
WHERE schemaname NOT IN ` + internalSchemas + `
ORDER BY schemaname, tablename;
`

const statActivitySQL = `
SELECT *
FROM hg_stat_activity
ORDER BY pid;
`

const queryLogLatestSQL = `
SELECT *
FROM hologres.hg_query_log
ORDER BY query_start DESC
LIMIT $1;
`

const queryLogByUserSQL = `
SELECT *
FROM hologres.hg_query_log
WHERE usename = $1
ORDER BY query_start DESC
LIMIT $2;
`

const queryLogByApplicationSQL = `
SELECT *
FROM hologres.hg_query_log
WHERE application_name = $1
ORDER BY query_start DESC
LIMIT $2;
`

// resourceStatement returns the single fixed statement for a resolved
// request. TableDDL is the one multi-query variant and is handled by
// readTableDDL instead; passing it here is a programming error.
func (h *HologresMcp) resourceStatement(req ResourceRequest) statement {
	switch r := req.(type) {
	case SchemaList:
		return statement{SQL: schemasSQL}
	case TableList:
		return statement{SQL: tablesSQL, Args: []any{r.Schema}}
	case TableStatistic:
		return statement{SQL: tableStatisticSQL, Args: []any{r.Schema, r.Table}}
	case MissingStatsTables:
		return statement{SQL: missingStatsSQL}
	case StatActivity:
		return statement{SQL: statActivitySQL}
	case QueryLogLatest:
		return statement{SQL: queryLogLatestSQL, Args: []any{h.clampLogRows(r.Limit)}}
	case QueryLogByUser:
		return statement{SQL: queryLogByUserSQL, Args: []any{r.User, h.clampLogRows(r.Limit)}}
	case QueryLogByApplication:
		return statement{SQL: queryLogByApplicationSQL, Args: []any{r.Application, h.clampLogRows(r.Limit)}}
	default:
		panic(fmt.Sprintf("holomcp: no statement template for %T", req))
	}
}

// emptyResourceText returns the message substituted when a diagnostic read
// comes back with zero rows. List resources (schemas, tables) return their
// empty row envelope instead.
func emptyResourceText(req ResourceRequest) string {
	switch r := req.(type) {
	case TableStatistic:
		return fmt.Sprintf("No statistics found for %s.%s", r.Schema, r.Table)
	case MissingStatsTables:
		return "No tables found with missing statistics"
	case StatActivity:
		return "No queries found with current running status"
	case QueryLogLatest, QueryLogByUser, QueryLogByApplication:
		return "No query logs found"
	default:
		return ""
	}
}

// analyzeStatements returns the ANALYZE command followed by the statistics
// read-back for the same table. Schema and table already passed ident.Check
// during argument validation; ANALYZE takes its target in identifier
// position, so the quoted form is interpolated.
func analyzeStatements(schema, table string) []statement {
	return []statement{
		{SQL: "ANALYZE " + ident.QualifiedName(schema, table) + ";"},
		{SQL: tableStatisticSQL, Args: []any{schema, table}},
	}
}

// planStatement wraps an ad-hoc statement in the engine's explain syntax.
// The inner statement is arbitrary user SQL by design and goes through
// whole; it is never assembled from fragments.
func planStatement(sql string, analyze bool) statement {
	if analyze {
		return statement{SQL: "EXPLAIN ANALYZE " + sql}
	}
	return statement{SQL: "EXPLAIN " + sql}
}

// clampLogRows applies the default for unspecified limits and the cap for
// oversized ones. Zero or negative limits never reach this point because
// the resolver rejects them.
func (h *HologresMcp) clampLogRows(limit int) int {
	if limit <= 0 {
		return h.config.Query.DefaultLogRows
	}
	if limit > h.config.Query.MaxLogRows {
		return h.config.Query.MaxLogRows
	}
	return limit
}
