// Package context carries request scoped identifiers that the logging
// handlers attach to every record.
package context

import (
	"context"
)

type contextKey string

// stringValue returns the non-empty string stored under key.
func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}

	value, ok := ctx.Value(key).(string)
	if !ok || value == "" {
		return "", false
	}

	return value, true
}
