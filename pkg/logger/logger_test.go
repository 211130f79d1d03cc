package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appctx "github.com/abbakari/works/internal/core/context"
)

func TestWithContext_AddsRequestFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{zap.New(core).Sugar()}

	ctx := appctx.WithTrace(context.Background(), &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "u-1", Role: "manager"})
	ctx = WithLogger(ctx, l)

	Info(ctx, "budget approved", "budget_id", "b-1")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	for k, want := range map[string]string{
		"trace_id": "t-1", "request_id": "r-1", "user_id": "u-1", "role": "manager", "budget_id": "b-1",
	} {
		if fields[k] != want {
			t.Errorf("field %s = %v, want %s", k, fields[k], want)
		}
	}
}

func TestNew_FallsBackToInfoOnBadLevel(t *testing.T) {
	l, err := New(Config{Level: "loud", OutputPaths: []string{"stderr"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Desugar().Core().Enabled(zap.DebugLevel) {
		t.Error("debug enabled with unparsable level")
	}
}
