// Package logger carries slog loggers through command contexts.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

type contextKey struct{}

// Logger is the slog.Logger alias the rest of the module logs through.
type Logger = slog.Logger

// levels maps the --log-level flag vocabulary onto slog levels.
var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// New creates a logger writing to stderr at the named level; unknown names
// fall back to info. Log output stays on stderr so command output on stdout
// remains scriptable.
func New(level string) *Logger {
	lvl, ok := levels[strings.ToLower(level)]
	if !ok {
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	}))
}

// WithContext returns a context carrying the logger.
func WithContext(ctx context.Context, log *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, log)
}

// FromContext retrieves the context's logger, or an info-level default when
// none was injected.
func FromContext(ctx context.Context) *Logger {
	if log, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return log
	}

	return New("info")
}
