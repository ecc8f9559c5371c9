// Package logging defines the structured logger used across devlog.
//
// Callers depend on the Logger interface; the only implementation wraps
// log/slog. Arguments after the message are key-value pairs:
//
//	log.Warn(ctx, "save failed", "key", key, "err", err)
package logging

import "context"

// Logger is a context-aware, structured logger.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}
