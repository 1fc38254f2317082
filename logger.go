package clgpu

import (
	"context"
	"log/slog"
	"os"

	"github.com/intel/clGPU/compute"
)

// Logger wraps slog.Logger with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, a text handler writing to stderr at Info level is used.
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

// NewJSONLogger creates a Logger that writes JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards everything.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithEngine adds an engine field.
func (l *Logger) WithEngine(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("engine", name),
	}
}

// WithQueue adds a queue field.
func (l *Logger) WithQueue(q compute.CommandQueue) *Logger {
	return &Logger{
		Logger: l.Logger.With("queue", q.ID()),
	}
}

// WithKernel adds a kernel field.
func (l *Logger) WithKernel(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("kernel", name),
	}
}

// LogDispatch logs a completed function dispatch.
func (l *Logger) LogDispatch(ctx context.Context, function string, candidates int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "dispatch failed",
			"function", function,
			"candidates", candidates,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "dispatch completed",
		"function", function,
		"candidates", candidates,
	)
}

// LogSelect logs a selection.
func (l *Logger) LogSelect(ctx context.Context, candidates, accepted int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "select failed",
			"candidates", candidates,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "select completed",
		"candidates", candidates,
		"accepted", accepted,
	)
}

// LogCatalog logs a catalog save or load.
func (l *Logger) LogCatalog(ctx context.Context, op string, version uint32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "catalog "+op+" failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "catalog "+op,
		"version", version,
	)
}

// LogEngine logs engine creation.
func (l *Logger) LogEngine(ctx context.Context, t EngineType, err error) {
	if err != nil {
		l.ErrorContext(ctx, "engine creation failed",
			"engine", t.String(),
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "engine created",
		"engine", t.String(),
	)
}
