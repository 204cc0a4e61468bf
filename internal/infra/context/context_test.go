package context_test

import (
	"context"
	"testing"

	context_ "github.com/mkrupp/mediagate/internal/infra/context"
)

func TestContextIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	if _, ok := context_.TraceIDFromContext(ctx); ok {
		t.Error("trace ID present in empty context")
	}

	if _, ok := context_.BatchIDFromContext(ctx); ok {
		t.Error("batch ID present in empty context")
	}

	ctx = context_.WithTraceID(ctx, "trace")
	ctx = context_.WithBatchID(ctx, "batch")

	if got, ok := context_.TraceIDFromContext(ctx); !ok || got != "trace" {
		t.Errorf("TraceIDFromContext() = %q, %v", got, ok)
	}

	if got, ok := context_.BatchIDFromContext(ctx); !ok || got != "batch" {
		t.Errorf("BatchIDFromContext() = %q, %v", got, ok)
	}

	if _, ok := context_.TraceIDFromContext(context_.WithTraceID(ctx, "")); ok {
		t.Error("empty trace ID reported as present")
	}
}
