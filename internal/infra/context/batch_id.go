package context

import (
	"context"
)

const contextKeyBatchID = contextKey("batchID")

// BatchIDFromContext returns the admission batch ID, if one was set.
func BatchIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, contextKeyBatchID)
}

// WithBatchID creates a new context carrying the given admission batch ID.
// Log records emitted while the batch runs are tagged with it.
func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, contextKeyBatchID, batchID)
}
