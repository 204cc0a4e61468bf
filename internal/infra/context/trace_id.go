package context

import (
	"context"
)

const contextKeyTraceID = contextKey("traceID")

// TraceIDFromContext returns the request trace ID, if one was set.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, contextKeyTraceID)
}

// WithTraceID returns a copy of ctx carrying the request trace ID.
// An empty ID is treated as absent by TraceIDFromContext.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKeyTraceID, traceID)
}
