package logging

import (
	"context"
	"log/slog"

	context_ "github.com/mkrupp/mediagate/internal/infra/context"
)

// contextGroup holds the IDs taken from the context. It is kept apart from the
// "batch" and "file" groups services attach to their own loggers.
const contextGroup = "ctx"

// TracingHandler wraps another slog.Handler and tags every record with the
// request trace ID and the admission batch ID carried by the context.
type TracingHandler struct {
	next slog.Handler
}

var _ slog.Handler = (*TracingHandler)(nil)

// NewTracingHandler creates a new TracingHandler wrapping next.
func NewTracingHandler(next slog.Handler) *TracingHandler {
	return &TracingHandler{next: next}
}

// Handle implements slog.Handler.Handle.
func (h *TracingHandler) Handle(ctx context.Context, r slog.Record) error {
	if ids := contextIDs(ctx); len(ids) > 0 {
		r.AddAttrs(slog.Group(contextGroup, ids...))
	}

	//nolint:wrapcheck
	return h.next.Handle(ctx, r)
}

func contextIDs(ctx context.Context) []any {
	var ids []any

	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		ids = append(ids, slog.String("trace", traceID))
	}

	if batchID, ok := context_.BatchIDFromContext(ctx); ok {
		ids = append(ids, slog.String("batch", batchID))
	}

	return ids
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *TracingHandler) WithAttrs(attrs []slog.Attr) Handler {
	return NewTracingHandler(h.next.WithAttrs(attrs))
}

// WithGroup implements slog.Handler.WithGroup.
func (h *TracingHandler) WithGroup(name string) Handler {
	return NewTracingHandler(h.next.WithGroup(name))
}

// Enabled implements slog.Handler.Enabled.
func (h *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}
