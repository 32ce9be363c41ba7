package holomcp

// ResourceRequest is the closed set of catalog/diagnostic reads a resource
// path can resolve to. Adding a variant means adding it here, to the
// resolver's template table, and to the template engine's switch; the
// compiler flags any branch left behind.
type ResourceRequest interface {
	resourceRequest()
}

// SchemaList enumerates user schemas, excluding engine-internal ones.
type SchemaList struct{}

// TableList enumerates tables in one schema.
type TableList struct {
	Schema string
}

// TableDDL reconstructs the DDL text of one table.
type TableDDL struct {
	Schema string
	Table  string
}

// TableStatistic reads collected statistics for one table.
type TableStatistic struct {
	Schema string
	Table  string
}

// MissingStatsTables lists tables with no or stale collected statistics.
type MissingStatsTables struct{}

// StatActivity lists currently running queries.
type StatActivity struct{}

// QueryLogLatest reads the most recent query-log rows.
type QueryLogLatest struct {
	Limit int
}

// QueryLogByUser reads query-log rows for one user.
type QueryLogByUser struct {
	User  string
	Limit int
}

// QueryLogByApplication reads query-log rows for one application.
type QueryLogByApplication struct {
	Application string
	Limit       int
}

func (SchemaList) resourceRequest()            {}
func (TableList) resourceRequest()             {}
func (TableDDL) resourceRequest()              {}
func (TableStatistic) resourceRequest()        {}
func (MissingStatsTables) resourceRequest()    {}
func (StatActivity) resourceRequest()          {}
func (QueryLogLatest) resourceRequest()        {}
func (QueryLogByUser) resourceRequest()        {}
func (QueryLogByApplication) resourceRequest() {}

// ToolInvocation is the closed set of named tool calls.
type ToolInvocation interface {
	toolInvocation()
}

// ExecuteSQL runs an arbitrary statement. The statement goes to the engine
// as-is over the extended query protocol; it is never spliced into other SQL.
type ExecuteSQL struct {
	Statement string
}

// AnalyzeTable collects statistics for one table, then reads them back.
type AnalyzeTable struct {
	Schema string
	Table  string
}

// GetQueryPlan returns the planner's estimated plan for a statement.
type GetQueryPlan struct {
	Statement string
}

// GetExecutionPlan runs the statement and returns the plan with runtime
// statistics.
type GetExecutionPlan struct {
	Statement string
}

func (ExecuteSQL) toolInvocation()       {}
func (AnalyzeTable) toolInvocation()     {}
func (GetQueryPlan) toolInvocation()     {}
func (GetExecutionPlan) toolInvocation() {}

// EnvelopeError carries the failure class and a human-readable message.
type EnvelopeError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Envelope is the single response shape every call returns. Exactly one of
// the three forms is populated: row data (Columns+Rows), a text block
// (Text), or Error. Constructed once per call and never mutated afterward.
type Envelope struct {
	Columns   []string                 `json:"columns,omitempty"`
	Rows      []map[string]interface{} `json:"rows,omitempty"`
	Text      string                   `json:"text,omitempty"`
	Truncated bool                     `json:"truncated,omitempty"`
	Error     *EnvelopeError           `json:"error,omitempty"`
}

// IsError reports whether the envelope carries a failure.
func (e *Envelope) IsError() bool { return e.Error != nil }
