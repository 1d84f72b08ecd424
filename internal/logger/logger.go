// Package logger provides structured logging setup using slog.
package logger

import (
	"context"
	"log/slog"
	"os"
)

// runIDKey is the context key for execution-pass correlation IDs.
type runIDKey struct{}

// New creates a new structured JSON logger.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// WithRunID returns a new context carrying the given execution-pass ID.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext extracts the execution-pass ID from the context.
func RunIDFromContext(ctx context.Context) string {
	if v := ctx.Value(runIDKey{}); v != nil {
		return v.(string)
	}
	return ""
}

// FromContext returns a logger with context fields (run ID, etc.) attached.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if runID := RunIDFromContext(ctx); runID != "" {
		return base.With("run_id", runID)
	}
	return base
}
