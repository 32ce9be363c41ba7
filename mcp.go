package holomcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const systemPathsDescription = `System information in Hologres. Recognized system paths:

'missing_stats_tables'    Tables that are missing statistics.
'stat_activity'    Information about currently running queries.
'query_log/latest/{row_limits}'    Recent query log history, newest first.
'query_log/user/{user_name}'    Query log history for a specific user.
'query_log/application/{application_name}'    Query log history for a specific application.`

// RegisterMCPTools registers execute_sql, analyze_table, get_query_plan,
// and get_execution_plan on the given MCP server. Every handler routes
// through CallTool, so argument validation and error shaping live in one
// place.
func RegisterMCPTools(mcpServer *server.MCPServer, h *HologresMcp) {
	executeSQLTool := mcp.NewTool("execute_sql",
		mcp.WithDescription("Execute an SQL statement against the Hologres database. Returns results as JSON."),
		mcp.WithString("statement",
			mcp.Required(),
			mcp.Description("The SQL statement to execute"),
		),
	)
	mcpServer.AddTool(executeSQLTool, h.toolHandler("execute_sql"))

	analyzeTableTool := mcp.NewTool("analyze_table",
		mcp.WithDescription("Collect statistics for a table, then return the refreshed statistics."),
		mcp.WithString("schema",
			mcp.Required(),
			mcp.Description("Schema name"),
		),
		mcp.WithString("table",
			mcp.Required(),
			mcp.Description("Table name"),
		),
	)
	mcpServer.AddTool(analyzeTableTool, h.toolHandler("analyze_table"))

	queryPlanTool := mcp.NewTool("get_query_plan",
		mcp.WithDescription("Get the planner's estimated plan for a SQL statement."),
		mcp.WithString("statement",
			mcp.Required(),
			mcp.Description("The SQL statement to plan"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(queryPlanTool, h.toolHandler("get_query_plan"))

	executionPlanTool := mcp.NewTool("get_execution_plan",
		mcp.WithDescription("Run a SQL statement and return its plan with runtime statistics."),
		mcp.WithString("statement",
			mcp.Required(),
			mcp.Description("The SQL statement to execute and plan"),
		),
	)
	mcpServer.AddTool(executionPlanTool, h.toolHandler("get_execution_plan"))
}

// RegisterMCPResources registers the static schema list plus the catalog
// and system resource templates. Handlers pass the request URI straight to
// ReadResource; the resolver owns the grammar.
func RegisterMCPResources(mcpServer *server.MCPServer, h *HologresMcp) {
	mcpServer.AddResource(mcp.NewResource(
		"hologres:///schemas",
		"All Schemas",
		mcp.WithResourceDescription("List all schemas in the Hologres database"),
		mcp.WithMIMEType("text/plain"),
	), h.resourceHandler())

	templates := []mcp.ResourceTemplate{
		mcp.NewResourceTemplate(
			"hologres:///{schema}/tables",
			"Schema Tables",
			mcp.WithTemplateDescription("List all tables in a specific schema"),
			mcp.WithTemplateMIMEType("text/plain"),
		),
		mcp.NewResourceTemplate(
			"hologres:///{schema}/{table}/ddl",
			"Table DDL",
			mcp.WithTemplateDescription("Get the DDL script of a table in a specific schema"),
			mcp.WithTemplateMIMEType("text/plain"),
		),
		mcp.NewResourceTemplate(
			"hologres:///{schema}/{table}/statistic",
			"Table Statistics",
			mcp.WithTemplateDescription("Get statistics information of a table"),
			mcp.WithTemplateMIMEType("text/plain"),
		),
		mcp.NewResourceTemplate(
			"hg_system:///{+system_path}",
			"System Information",
			mcp.WithTemplateDescription(systemPathsDescription),
			mcp.WithTemplateMIMEType("text/plain"),
		),
	}
	for _, tmpl := range templates {
		mcpServer.AddResourceTemplate(tmpl, h.resourceHandler())
	}
}

// toolHandler adapts CallTool to an MCP tool handler and logs request and
// response sizes per call.
func (h *HologresMcp) toolHandler(tool string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		env := h.CallTool(ctx, tool, req.GetArguments())

		var result *mcp.CallToolResult
		if env.IsError() {
			result = mcp.NewToolResultError(fmt.Sprintf("%s: %s", env.Error.Kind, env.Error.Message))
		} else {
			jsonBytes, err := json.Marshal(env)
			if err != nil {
				return mcp.NewToolResultError("failed to marshal result envelope"), nil
			}
			result = mcp.NewToolResultText(string(jsonBytes))
		}

		h.logger.Info().
			Str("tool", tool).
			Int("request_bytes", requestLength(req)).
			Int("response_bytes", resultLength(result)).
			Msg("tool call")
		return result, nil
	}
}

// resourceHandler adapts ReadResource to an MCP resource read handler.
// Error envelopes surface as protocol-level errors, matching how resource
// reads fail in MCP. The unnamed return type satisfies both the static
// resource and resource template handler signatures.
func (h *HologresMcp) resourceHandler() func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		env := h.ReadResource(ctx, req.Params.URI)
		if env.IsError() {
			return nil, fmt.Errorf("%s: %s", env.Error.Kind, env.Error.Message)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "text/plain",
				Text:     env.Render(),
			},
		}, nil
	}
}

// requestLength returns the JSON-encoded byte length of the request arguments.
func requestLength(req mcp.CallToolRequest) int {
	args := req.GetArguments()
	if len(args) == 0 {
		return 0
	}
	b, err := json.Marshal(args)
	if err != nil {
		return 0
	}
	return len(b)
}

// resultLength returns the total byte length of text content in a CallToolResult.
func resultLength(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	total := 0
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			total += len(tc.Text)
		}
	}
	return total
}
