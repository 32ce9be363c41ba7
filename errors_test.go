package holomcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassifyExecErrorPassThrough(t *testing.T) {
	t.Parallel()
	// Already-classified errors keep their kind instead of collapsing to
	// engine_rejected.
	execErr := &ExecutionError{Kind: KindObjectNotFound, Err: errors.New("no such table")}
	if got := classifyExecError(execErr); got != execErr {
		t.Errorf("ExecutionError rewrapped: %v", got)
	}
	connErr := &ConnectionError{Kind: KindPoolExhausted, Err: errors.New("slots full")}
	if got := classifyExecError(connErr); got != connErr {
		t.Errorf("ConnectionError rewrapped: %v", got)
	}
}

func TestClassifyExecErrorSQLStates(t *testing.T) {
	t.Parallel()
	tests := []struct {
		code string
		kind ErrorKind
	}{
		{"42601", KindSyntaxError},
		{"42501", KindPermissionDenied},
		{"28000", KindPermissionDenied},
		{"42P01", KindObjectNotFound},
		{"42704", KindObjectNotFound},
		{"08006", KindDropped},
		{"23505", KindEngineRejected},
	}
	for _, tt := range tests {
		err := classifyExecError(&pgconn.PgError{Code: tt.code})
		if got := errorKind(err); got != tt.kind {
			t.Errorf("code %s: kind = %s, want %s", tt.code, got, tt.kind)
		}
	}
}

func TestClassifyExecErrorDroppedSession(t *testing.T) {
	t.Parallel()
	for _, err := range []error{
		io.EOF,
		io.ErrUnexpectedEOF,
		errors.New("conn closed"),
		errors.New("write tcp 127.0.0.1:5432: connection reset by peer"),
		fmt.Errorf("flush: %w", errors.New("broken pipe")),
	} {
		classified := classifyExecError(err)
		var connErr *ConnectionError
		if !errors.As(classified, &connErr) || connErr.Kind != KindDropped {
			t.Errorf("%v not classified as dropped: %v", err, classified)
		}
	}
}

func TestClassifyExecErrorTimeout(t *testing.T) {
	t.Parallel()
	classified := classifyExecError(fmt.Errorf("query: %w", context.DeadlineExceeded))
	if got := errorKind(classified); got != KindEngineRejected {
		t.Errorf("kind = %s, want %s", got, KindEngineRejected)
	}
	var execErr *ExecutionError
	if !errors.As(classified, &execErr) {
		t.Fatalf("expected *ExecutionError, got %T", classified)
	}
}

func TestErrorKindFallback(t *testing.T) {
	t.Parallel()
	if got := errorKind(errors.New("mystery")); got != KindEngineRejected {
		t.Errorf("kind = %s, want %s", got, KindEngineRejected)
	}
}
