// Package logging holds the structured logger shared by every invkeeper
// component.
package logging

import "context"

// Logger takes a message followed by alternating keys and values:
//
//	logger.Info(ctx, "session issued", "user_id", id, "admin", isAdmin)
//
// Component loggers are derived with With("module", name).
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that prepends args to every entry.
	With(args ...any) Logger
}
