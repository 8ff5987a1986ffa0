package emberstore

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with emberstore-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithStore adds a store name field to the logger.
func (l *Logger) WithStore(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("store", name),
	}
}

// WithRows adds a row count field to the logger.
func (l *Logger) WithRows(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("rows", n),
	}
}

// WithWorkers adds a worker count field to the logger.
func (l *Logger) WithWorkers(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("workers", n),
	}
}

// LogBuild logs a completed or failed store build.
func (l *Logger) LogBuild(ctx context.Context, store string, rows, failed int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"store", store,
			"error", err,
		)
	} else if failed > 0 {
		l.WarnContext(ctx, "build completed with sentinel rows",
			"store", store,
			"rows", rows,
			"failed", failed,
		)
	} else {
		l.InfoContext(ctx, "build completed",
			"store", store,
			"rows", rows,
		)
	}
}

// LogOpen logs a store open.
func (l *Logger) LogOpen(ctx context.Context, store string, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"store", store,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "store opened",
			"store", store,
			"rows", rows,
		)
	}
}

// LogFetch logs a corpus mirror run.
func (l *Logger) LogFetch(ctx context.Context, downloaded, skipped int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "fetch failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "fetch completed",
			"downloaded", downloaded,
			"skipped", skipped,
			"bytes", bytes,
		)
	}
}
