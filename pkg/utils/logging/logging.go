package logging

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
)

var defaultLogger atomic.Pointer[slog.Logger]

func init() {
	defaultLogger.Store(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// Default returns the process-wide logger
func Default() *slog.Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the process-wide logger
func SetDefault(logger *slog.Logger) {
	if logger == nil {
		return
	}
	defaultLogger.Store(logger)
}

type ctxLoggerKey struct{}

// With returns a context carrying logger
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// From returns the logger attached to ctx, or the default logger
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return Default()
}
