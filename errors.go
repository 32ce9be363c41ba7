package holomcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorKind identifies the failure class carried in an error envelope.
type ErrorKind string

const (
	// Resolution errors: the path or arguments were malformed. Terminal.
	KindInvalidPath    ErrorKind = "invalid_path"
	KindUnknownPrefix  ErrorKind = "unknown_prefix"
	KindMissingSegment ErrorKind = "missing_segment"

	// Connection errors: infrastructure-shaped. Only Dropped is retried,
	// exactly once, with a freshly acquired connection.
	KindPoolExhausted ErrorKind = "pool_exhausted"
	KindConnectFailed ErrorKind = "connect_failed"
	KindDropped       ErrorKind = "connection_dropped"

	// Execution errors: surfaced from the engine. Never retried.
	KindSyntaxError      ErrorKind = "syntax_error"
	KindPermissionDenied ErrorKind = "permission_denied"
	KindObjectNotFound   ErrorKind = "object_not_found"
	KindEngineRejected   ErrorKind = "engine_rejected"
)

// ResolutionError reports a malformed resource path or tool argument.
type ResolutionError struct {
	Kind   ErrorKind
	Path   string
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %q: %s", e.Path, e.Reason)
}

func invalidPath(path, format string, args ...any) *ResolutionError {
	return &ResolutionError{Kind: KindInvalidPath, Path: path, Reason: fmt.Sprintf(format, args...)}
}

func unknownPrefix(path, format string, args ...any) *ResolutionError {
	return &ResolutionError{Kind: KindUnknownPrefix, Path: path, Reason: fmt.Sprintf(format, args...)}
}

func missingSegment(path, format string, args ...any) *ResolutionError {
	return &ResolutionError{Kind: KindMissingSegment, Path: path, Reason: fmt.Sprintf(format, args...)}
}

// ConnectionError reports a pool or network failure.
type ConnectionError struct {
	Kind ErrorKind
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error (%s): %v", e.Kind, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ExecutionError reports an engine rejection of an executed statement.
type ExecutionError struct {
	Kind ErrorKind
	Err  error
}

func (e *ExecutionError) Error() string { return e.Err.Error() }

func (e *ExecutionError) Unwrap() error { return e.Err }

// errorKind extracts the ErrorKind from a classified error, mapping
// anything unclassified to EngineRejected.
func errorKind(err error) ErrorKind {
	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		return resErr.Kind
	}
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return connErr.Kind
	}
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Kind
	}
	return KindEngineRejected
}

// classifyExecError maps a driver-level error from statement execution to
// the error taxonomy. SQLSTATE classes come from pgconn.PgError; anything
// that looks like a severed session becomes Dropped so the dispatcher can
// retry it once.
func classifyExecError(err error) error {
	if err == nil {
		return nil
	}

	// Already classified errors (e.g. from the DDL assembly or the pool)
	// pass through untouched.
	var connErr *ConnectionError
	var execErr *ExecutionError
	if errors.As(err, &connErr) || errors.As(err, &execErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42601": // syntax_error
			return &ExecutionError{Kind: KindSyntaxError, Err: err}
		case pgErr.Code == "42501" || strings.HasPrefix(pgErr.Code, "28"): // insufficient_privilege, invalid_authorization
			return &ExecutionError{Kind: KindPermissionDenied, Err: err}
		case pgErr.Code == "42P01" || pgErr.Code == "42703" || pgErr.Code == "42704" || pgErr.Code == "3F000":
			// undefined_table, undefined_column, undefined_object, invalid_schema_name
			return &ExecutionError{Kind: KindObjectNotFound, Err: err}
		case strings.HasPrefix(pgErr.Code, "08"): // connection_exception
			return &ConnectionError{Kind: KindDropped, Err: err}
		default:
			return &ExecutionError{Kind: KindEngineRejected, Err: err}
		}
	}

	if isDroppedConn(err) {
		return &ConnectionError{Kind: KindDropped, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ExecutionError{Kind: KindEngineRejected, Err: fmt.Errorf("statement timed out: %w", err)}
	}
	return &ExecutionError{Kind: KindEngineRejected, Err: err}
}

// isDroppedConn detects a session severed mid-call without a SQLSTATE, e.g.
// the server closing the socket or a half-written wire message.
func isDroppedConn(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "conn closed") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "unexpected EOF")
}
