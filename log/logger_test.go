package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTerminalHandlerFormat(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(NewTerminalHandler(out, levelTrace, false))
	l.Write(slog.LevelInfo, "Compiling crate", "crate", "wasm-counter", "confidential", true)

	line := out.String()
	assert.True(t, strings.HasPrefix(line, "INFO ["), line)
	assert.Contains(t, line, "] Compiling crate")
	assert.Contains(t, line, "crate=wasm-counter confidential=true\n")
}

func TestTerminalHandlerTimestamp(t *testing.T) {
	out := new(bytes.Buffer)
	h := NewTerminalHandler(out, levelTrace, false)
	r := slog.NewRecord(time.Date(2019, 3, 7, 9, 5, 2, 45_000_000, time.UTC), levelTrace, "tick", 0)
	assert.NoError(t, h.Handle(context.Background(), r))
	assert.Equal(t, "TRACE[03-07|09:05:02.045] tick\n", out.String())
}

func TestTerminalHandlerLevel(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(NewTerminalHandler(out, slog.LevelWarn, false))
	l.Write(slog.LevelInfo, "dropped")
	l.Write(slog.LevelDebug, "dropped")
	l.Write(slog.LevelWarn, "kept", "err", errors.New("exit status 1"))

	assert.NotContains(t, out.String(), "dropped")
	assert.Contains(t, out.String(), `err="exit status 1"`)
}

func TestTerminalHandlerPadsColumns(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(NewTerminalHandler(out, levelTrace, false))
	l.Write(slog.LevelInfo, "Built", "crate", "wasm-counter-long", "ms", 1)
	l.Write(slog.LevelInfo, "Built", "crate", "short", "ms", 2)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[1], "crate=short             ms=2")
}

func TestOddArguments(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(NewTerminalHandler(out, levelTrace, false))
	l.Write(slog.LevelInfo, "odd", "lonely")
	assert.Contains(t, out.String(), errorKey)
}

func TestQuoteValue(t *testing.T) {
	assert.Equal(t, "plain", string(quoteValue(nil, "plain")))
	assert.Equal(t, `"two words"`, string(quoteValue(nil, "two words")))
	assert.Equal(t, `"a\nb"`, string(quoteValue(nil, "a\nb")))
	assert.Equal(t, "multi\nline", quoteMessage("multi\nline"))
	assert.Equal(t, `"k=v"`, quoteMessage("k=v"))
}

func TestFromLegacyLevel(t *testing.T) {
	assert.Equal(t, levelCrit, FromLegacyLevel(0))
	assert.Equal(t, slog.LevelInfo, FromLegacyLevel(3))
	assert.Equal(t, levelTrace, FromLegacyLevel(5))
	assert.Equal(t, levelTrace, FromLegacyLevel(9))
	assert.Equal(t, levelCrit, FromLegacyLevel(-1))
}

func TestJSONHandler(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(JSONHandler(out, levelTrace))
	l.Write(slog.LevelWarn, "Artifact overwritten", "contract", "Counter")
	assert.Contains(t, out.String(), `"lvl":"warn"`)
	assert.Contains(t, out.String(), `"contract":"Counter"`)
}

func TestRootHelpers(t *testing.T) {
	defer SetDefault(Root())

	out := new(bytes.Buffer)
	SetDefault(NewLogger(LogfmtHandler(out, slog.LevelDebug)))
	Trace("hidden")
	Debug("shown", "n", 1)
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "lvl=debug msg=shown n=1")
}
