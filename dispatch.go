package holomcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/holodb/holo-mcp/internal/ident"
)

// ReadResource resolves a resource path and executes its catalog query.
// Every outcome is an envelope; resolution failures return before any
// connection is acquired.
func (h *HologresMcp) ReadResource(ctx context.Context, path string) *Envelope {
	startTime := time.Now()
	logger := h.callLogger().With().Str("path", path).Logger()

	req, err := Resolve(path)
	if err != nil {
		return h.failCall(logger, err)
	}

	var env *Envelope
	if ddl, ok := req.(TableDDL); ok {
		env = h.withConn(ctx, logger, h.timeoutMgr.ForResource(), func(ctx context.Context, conn dbConn) (*Envelope, error) {
			return h.readTableDDL(ctx, conn, ddl.Schema, ddl.Table)
		})
	} else {
		stmt := h.resourceStatement(req)
		env = h.withConn(ctx, logger, h.timeoutMgr.ForResource(), func(ctx context.Context, conn dbConn) (*Envelope, error) {
			rs, err := conn.queryRows(ctx, stmt.SQL, stmt.Args...)
			if err != nil {
				return nil, err
			}
			return h.normalizeRows(rs), nil
		})
		if !env.IsError() && len(env.Rows) == 0 {
			if msg := emptyResourceText(req); msg != "" {
				env = textEnvelope(msg)
			}
		}
	}

	if !env.IsError() {
		logger.Info().
			Dur("duration", time.Since(startTime)).
			Int("row_count", len(env.Rows)).
			Msg("resource read")
	}
	return env
}

// CallTool validates a named tool call's arguments and dispatches it.
func (h *HologresMcp) CallTool(ctx context.Context, name string, args map[string]any) *Envelope {
	inv, err := parseToolInvocation(name, args)
	if err != nil {
		return h.failCall(h.callLogger().With().Str("tool", name).Logger(), err)
	}
	return h.Dispatch(ctx, inv)
}

// Dispatch routes a typed tool invocation to its executor.
func (h *HologresMcp) Dispatch(ctx context.Context, inv ToolInvocation) *Envelope {
	switch t := inv.(type) {
	case ExecuteSQL:
		return h.executeSQL(ctx, t.Statement)
	case AnalyzeTable:
		return h.analyzeTable(ctx, t.Schema, t.Table)
	case GetQueryPlan:
		return h.queryPlan(ctx, t.Statement, false)
	case GetExecutionPlan:
		return h.queryPlan(ctx, t.Statement, true)
	default:
		return h.failCall(h.callLogger(), &ResolutionError{
			Kind: KindUnknownPrefix, Path: fmt.Sprintf("%T", inv), Reason: "unknown tool invocation",
		})
	}
}

// parseToolInvocation maps a (tool name, argument mapping) pair onto the
// closed invocation set. Schema and table arguments are identifier-checked
// here, before any SQL is built.
func parseToolInvocation(name string, args map[string]any) (ToolInvocation, error) {
	switch name {
	case "execute_sql":
		stmt, err := stringArg(name, args, "statement")
		if err != nil {
			return nil, err
		}
		return ExecuteSQL{Statement: stmt}, nil
	case "analyze_table":
		schema, err := stringArg(name, args, "schema")
		if err != nil {
			return nil, err
		}
		table, err := stringArg(name, args, "table")
		if err != nil {
			return nil, err
		}
		if err := ident.Check(schema); err != nil {
			return nil, invalidPath(name, "bad schema argument: %v", err)
		}
		if err := ident.Check(table); err != nil {
			return nil, invalidPath(name, "bad table argument: %v", err)
		}
		return AnalyzeTable{Schema: schema, Table: table}, nil
	case "get_query_plan":
		stmt, err := stringArg(name, args, "statement")
		if err != nil {
			return nil, err
		}
		return GetQueryPlan{Statement: stmt}, nil
	case "get_execution_plan":
		stmt, err := stringArg(name, args, "statement")
		if err != nil {
			return nil, err
		}
		return GetExecutionPlan{Statement: stmt}, nil
	default:
		return nil, unknownPrefix(name, "unknown tool %q", name)
	}
}

func stringArg(tool string, args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", missingSegment(tool, "argument %q is required", key)
	}
	return v, nil
}

// withConn runs fn with an exclusively owned connection under the given
// execution ceiling. Release is unconditional on every exit path. When fn
// fails because the connection dropped mid-execution, exactly one retry
// runs with a freshly acquired connection; a second failure is terminal.
func (h *HologresMcp) withConn(ctx context.Context, logger zerolog.Logger, ceiling time.Duration, fn func(ctx context.Context, conn dbConn) (*Envelope, error)) *Envelope {
	// Gate on the semaphore first so concurrent calls cannot oversubscribe
	// the pool. Respects context cancellation to prevent deadlock.
	select {
	case h.semaphore <- struct{}{}:
	case <-ctx.Done():
		return h.failCall(logger, &ConnectionError{
			Kind: KindPoolExhausted,
			Err:  fmt.Errorf("all %d connection slots are in use, context cancelled while waiting: %w", cap(h.semaphore), ctx.Err()),
		})
	}
	defer func() { <-h.semaphore }()

	env, err := h.attempt(ctx, ceiling, fn)
	if err == nil {
		return env
	}

	var connErr *ConnectionError
	if errors.As(err, &connErr) && connErr.Kind == KindDropped {
		logger.Warn().Err(err).Msg("connection dropped mid-call, retrying once")
		env, err = h.attempt(ctx, ceiling, fn)
		if err == nil {
			return env
		}
	}
	return h.failCall(logger, err)
}

// attempt acquires one connection, runs fn against it within the ceiling,
// and releases it. The connection goes back unhealthy when the session
// state can no longer be trusted: a drop, or a cancellation that may have
// interrupted a statement mid-flight.
func (h *HologresMcp) attempt(ctx context.Context, ceiling time.Duration, fn func(ctx context.Context, conn dbConn) (*Envelope, error)) (*Envelope, error) {
	conn, release, err := h.pool.acquire(ctx)
	if err != nil {
		return nil, err
	}

	healthy := true
	defer func() { release(healthy) }()

	execCtx, cancel := context.WithTimeout(ctx, ceiling)
	defer cancel()

	env, err := fn(execCtx, conn)
	if err != nil {
		classified := classifyExecError(err)
		var connErr *ConnectionError
		if errors.As(classified, &connErr) || execCtx.Err() != nil {
			healthy = false
		}
		return nil, classified
	}
	return env, nil
}

// failCall logs a terminal failure and shapes its envelope.
func (h *HologresMcp) failCall(logger zerolog.Logger, err error) *Envelope {
	env := errorEnvelope(err)
	logger.Error().Err(err).Str("kind", string(env.Error.Kind)).Msg("call failed")
	return env
}

// callLogger returns the engine logger with a fresh per-call correlation id.
func (h *HologresMcp) callLogger() zerolog.Logger {
	return h.logger.With().Str("call_id", uuid.NewString()).Logger()
}
