package keygraph

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with keygraph-specific context.
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

// NewJSONLogger creates a Logger that writes JSON records to w.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that writes human-readable records to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithCheckpoint adds a checkpoint name field to the logger.
func (l *Logger) WithCheckpoint(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("checkpoint", name),
	}
}

// WithFrames adds a frame count field to the logger.
func (l *Logger) WithFrames(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("frames", n),
	}
}

// WithRun adds a run ID field to the logger.
func (l *Logger) WithRun(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run", id),
	}
}

// LogExtract logs an extraction pass.
func (l *Logger) LogExtract(ctx context.Context, frames, detections int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "extraction failed",
			"frames", frames,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "extraction completed",
		"frames", frames,
		"detections", detections,
		"elapsed", elapsed,
	)
}

// LogMatch logs a matcher run.
func (l *Logger) LogMatch(ctx context.Context, frames, landmarks, merged int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "matching failed",
			"frames", frames,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "matching completed",
		"frames", frames,
		"landmarks", landmarks,
		"merged", merged,
		"elapsed", elapsed,
	)
}

// LogCheckpoint logs a checkpoint save or load.
func (l *Logger) LogCheckpoint(ctx context.Context, op, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "checkpoint "+op+" failed",
			"checkpoint", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "checkpoint "+op,
		"checkpoint", name,
	)
}
