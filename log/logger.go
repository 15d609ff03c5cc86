package log

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// errorKey is attached to records whose key/value list had a dangling key.
const errorKey = "LOG_ERROR"

// Levels beyond the four slog ships with.
const (
	levelTrace slog.Level = -8
	levelCrit  slog.Level = 12
)

// verbosities maps the numeric --verbosity values onto slog levels, from
// the quietest (0) to the loudest (5).
var verbosities = [...]slog.Level{
	levelCrit,
	slog.LevelError,
	slog.LevelWarn,
	slog.LevelInfo,
	slog.LevelDebug,
	levelTrace,
}

// FromLegacyLevel converts a command line verbosity into a slog level.
// Values past the loudest setting saturate at trace, negative ones at crit.
func FromLegacyLevel(lvl int) slog.Level {
	switch {
	case lvl < 0:
		return levelCrit
	case lvl >= len(verbosities):
		return levelTrace
	}
	return verbosities[lvl]
}

// levelName gives the lower case name used by the machine readable formats.
// The terminal format upper cases it and pads it to five columns.
func levelName(l slog.Level) string {
	switch l {
	case levelTrace:
		return "trace"
	case slog.LevelDebug:
		return "debug"
	case slog.LevelInfo:
		return "info"
	case slog.LevelWarn:
		return "warn"
	case slog.LevelError:
		return "error"
	case levelCrit:
		return "crit"
	}
	return "unknown"
}

// Logger writes leveled key/value records.
type Logger interface {
	Write(level slog.Level, msg string, attrs ...any)
}

type logger struct {
	inner *slog.Logger
}

// NewLogger wraps h into a Logger.
func NewLogger(h slog.Handler) Logger {
	return &logger{inner: slog.New(h)}
}

func (l *logger) Write(level slog.Level, msg string, attrs ...any) {
	ctx := context.Background()
	if !l.inner.Enabled(ctx, level) {
		return
	}
	// Skip runtime.Callers, Write and the package level helper.
	var pc [1]uintptr
	runtime.Callers(3, pc[:])

	if len(attrs)%2 == 1 {
		attrs = append(attrs, nil, errorKey, "Normalized odd number of arguments by adding nil")
	}
	r := slog.NewRecord(time.Now(), level, msg, pc[0])
	r.Add(attrs...)
	l.inner.Handler().Handle(ctx, r)
}
