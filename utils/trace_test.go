package utils

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
)

func TestEnsureTraceIDGenerates(t *testing.T) {
	ctx, id := EnsureTraceID(context.Background())
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("generated id %q is not a uuid: %v", id, err)
	}
	if got := TraceIDFromContext(ctx); got != id {
		t.Errorf("TraceIDFromContext: got %q, want %q", got, id)
	}
}

func TestEnsureTraceIDKeepsExisting(t *testing.T) {
	ctx := ContextWithTraceID(context.Background(), "abc-123")
	_, id := EnsureTraceID(ctx)
	if id != "abc-123" {
		t.Errorf("got %q, want the existing id", id)
	}
}

func TestTraceIDFromEmptyContext(t *testing.T) {
	if got := TraceIDFromContext(context.Background()); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestLoggerFromContext(t *testing.T) {
	fallback := NewLogger(LoggerConfig{Writer: io.Discard})
	scoped := fallback.With("trace_id", "t1")

	if got := LoggerFromContext(context.Background(), fallback); got != fallback {
		t.Error("empty context should return the fallback")
	}
	ctx := ContextWithLogger(context.Background(), scoped)
	if got := LoggerFromContext(ctx, fallback); got != scoped {
		t.Error("stored logger should win over the fallback")
	}
	if got := LoggerFromContext(ContextWithLogger(context.Background(), nil), fallback); got != fallback {
		t.Error("a nil stored logger should return the fallback")
	}
}
