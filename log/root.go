package log

import (
	"log/slog"
	"sync/atomic"
)

var root atomic.Pointer[Logger]

func init() {
	SetDefault(NewLogger(discard{}))
}

// SetDefault installs l as the process-wide logger. The slog default is
// pointed at the same handler so library code using slog ends up in the
// same output.
func SetDefault(l Logger) {
	root.Store(&l)
	if lg, ok := l.(*logger); ok {
		slog.SetDefault(lg.inner)
	}
}

// Root returns the process-wide logger.
func Root() Logger {
	return *root.Load()
}

// The package level helpers call Write directly so that every path reaches
// the handler at the same stack depth and the recorded caller is correct.

// Trace logs at trace level on the root logger.
func Trace(msg string, ctx ...any) {
	Root().Write(levelTrace, msg, ctx...)
}

// Debug logs at debug level on the root logger.
func Debug(msg string, ctx ...any) {
	Root().Write(slog.LevelDebug, msg, ctx...)
}

// Info logs at info level on the root logger.
func Info(msg string, ctx ...any) {
	Root().Write(slog.LevelInfo, msg, ctx...)
}

// Warn logs at warn level on the root logger.
func Warn(msg string, ctx ...any) {
	Root().Write(slog.LevelWarn, msg, ctx...)
}
