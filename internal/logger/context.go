package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is an unexported type to prevent collisions with keys from other packages.
type contextKey struct{}

// loggerKey is the key for the sugared logger stored in a context.Context.
//
//nolint:gochecknoglobals // Context key must be shared between ToContext and FromContext.
var loggerKey = contextKey{}

// ToContext returns a new context carrying the provided logger.
func ToContext(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from a context.
// If no logger is attached, the global logger is returned.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*zap.SugaredLogger); ok && l != nil {
			return l
		}
	}

	return global
}

// WithName returns a context whose logger is named with the provided name.
func WithName(ctx context.Context, name string) context.Context {
	return ToContext(ctx, FromContext(ctx).Named(name))
}

// WithKV returns a context whose logger always emits the provided key-value pair.
func WithKV(ctx context.Context, key string, value any) context.Context {
	return ToContext(ctx, FromContext(ctx).With(key, value))
}
