// Package holomcp exposes Hologres database introspection and SQL
// execution to AI agents through the Model Context Protocol (MCP).
//
// It provides four tools (execute_sql, analyze_table, get_query_plan,
// and get_execution_plan) and a set of read-only resources addressed by
// hierarchical paths:
//
//	hologres:///schemas
//	hologres:///{schema}/tables
//	hologres:///{schema}/{table}/ddl
//	hologres:///{schema}/{table}/statistic
//	hg_system:///missing_stats_tables
//	hg_system:///stat_activity
//	hg_system:///query_log/latest/{row_limits}
//	hg_system:///query_log/user/{user_name}
//	hg_system:///query_log/application/{application_name}
//
// Paths resolve to a closed set of typed requests; each request maps to
// exactly one parameterized SQL template. User-supplied values always
// travel as bound parameters over the pgx extended query protocol. Object
// names, which cannot be bound, must pass a strict identifier check before
// they are quoted into identifier positions; resolution fails before any
// SQL is built otherwise.
//
// # Library Usage
//
//	h, err := holomcp.New(ctx, connString, holomcp.DefaultConfig(), logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer h.Close(ctx)
//
//	// Use directly
//	env := h.ReadResource(ctx, "hologres:///public/tables")
//	env = h.Dispatch(ctx, holomcp.ExecuteSQL{Statement: "SELECT 1"})
//
//	// Or register on an MCP server
//	holomcp.RegisterMCPTools(mcpServer, h)
//	holomcp.RegisterMCPResources(mcpServer, h)
//
// Every call returns an Envelope: row data, a text block (DDL, plans), or
// a structured error with a kind from the error taxonomy. Calls never
// return a Go error; callers check Envelope.Error.
//
// Each call owns one pooled connection for its duration and releases it on
// every exit path. A connection dropped mid-execution is retried exactly
// once with a fresh connection; resolution and engine errors are terminal.
package holomcp
