package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// discard drops every record. It backs the root logger until the command
// line has been parsed.
type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool  { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (d discard) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discard) WithGroup(string) slog.Handler           { return d }

// TerminalHandler renders one record per line for a person watching the
// build:
//
//	INFO [10-16|20:58:45.123] Compiling crate      crate=wasm-counter
//
// Values of a key are padded to the widest value seen so far so that
// repeated lines form columns.
type TerminalHandler struct {
	mu       sync.Mutex
	wr       io.Writer
	lvl      slog.Level
	useColor bool
	attrs    []slog.Attr
	widths   map[string]int
	buf      []byte
}

// NewTerminalHandler returns a TerminalHandler writing records at lvl or
// above to wr, with colored levels when useColor is set.
func NewTerminalHandler(wr io.Writer, lvl slog.Level, useColor bool) *TerminalHandler {
	return &TerminalHandler{wr: wr, lvl: lvl, useColor: useColor, widths: make(map[string]int)}
}

func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.lvl
}

func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := h.format(h.buf[:0], r)
	_, err := h.wr.Write(out)
	h.buf = out
	return err
}

func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TerminalHandler{
		wr:       h.wr,
		lvl:      h.lvl,
		useColor: h.useColor,
		attrs:    append(append([]slog.Attr(nil), h.attrs...), attrs...),
		widths:   make(map[string]int),
	}
}

// Groups are flattened; the compiler never opens one.
func (h *TerminalHandler) WithGroup(string) slog.Handler {
	return h
}

// JSONHandler writes records at level or above as JSON objects, one per line.
func JSONHandler(wr io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{Level: level, ReplaceAttr: replaceJSON})
}

// LogfmtHandler writes records at level or above as logfmt key=value lines.
func LogfmtHandler(wr io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(wr, &slog.HandlerOptions{Level: level, ReplaceAttr: replaceLogfmt})
}

func replaceJSON(_ []string, attr slog.Attr) slog.Attr   { return rewriteAttr(attr, false) }
func replaceLogfmt(_ []string, attr slog.Attr) slog.Attr { return rewriteAttr(attr, true) }

// rewriteAttr shortens the built-in time and level keys and flattens errors
// and Stringers to their text so both formats print them the same way.
func rewriteAttr(attr slog.Attr, text bool) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		if t, ok := attr.Value.Any().(time.Time); ok {
			if text {
				return slog.String("t", t.Format(timeFormat))
			}
			return slog.Time("t", t)
		}
	case slog.LevelKey:
		if l, ok := attr.Value.Any().(slog.Level); ok {
			return slog.String("lvl", levelName(l))
		}
	}

	switch v := attr.Value.Any().(type) {
	case time.Time:
		if text {
			attr.Value = slog.StringValue(v.Format(timeFormat))
		}
	case error:
		attr.Value = slog.StringValue(describe(v, v.Error))
	case fmt.Stringer:
		attr.Value = slog.StringValue(describe(v, v.String))
	}
	return attr
}

// describe calls text unless v is a typed nil pointer.
func describe(v any, text func() string) string {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "<nil>"
	}
	return text()
}
