package log

import (
	"bytes"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	timeFormat = "2006-01-02T15:04:05-0700"
	termTime   = "01-02|15:04:05.000"

	// Messages shorter than msgWidth are padded so attributes line up, and
	// values longer than maxValueWidth never widen their column.
	msgWidth      = 40
	maxValueWidth = 40
)

var levelColors = map[slog.Level]string{
	levelCrit:       "\x1b[35m",
	slog.LevelError: "\x1b[31m",
	slog.LevelWarn:  "\x1b[33m",
	slog.LevelInfo:  "\x1b[32m",
	slog.LevelDebug: "\x1b[36m",
	levelTrace:      "\x1b[34m",
}

const colorReset = "\x1b[0m"

func (h *TerminalHandler) format(buf []byte, r slog.Record) []byte {
	b := bytes.NewBuffer(buf)
	color := ""
	if h.useColor {
		color = levelColors[r.Level]
	}

	label := fmt.Sprintf("%-5s", strings.ToUpper(levelName(r.Level)))
	if color != "" {
		label = color + label + colorReset
	}
	b.WriteString(label)
	b.WriteByte('[')
	b.Write(r.Time.AppendFormat(b.AvailableBuffer(), termTime))
	b.WriteString("] ")

	msg := quoteMessage(r.Message)
	b.WriteString(msg)

	total := len(h.attrs) + r.NumAttrs()
	if n := utf8.RuneCountInString(msg); total > 0 && n < msgWidth {
		b.WriteString(strings.Repeat(" ", msgWidth-n))
	}

	i := 0
	emit := func(a slog.Attr) bool {
		i++
		h.writeAttr(b, a, color, i == total)
		return true
	}
	for _, a := range h.attrs {
		emit(a)
	}
	r.Attrs(emit)
	b.WriteByte('\n')
	return b.Bytes()
}

func (h *TerminalHandler) writeAttr(b *bytes.Buffer, a slog.Attr, color string, last bool) {
	b.WriteByte(' ')
	if color != "" {
		b.WriteString(color)
	}
	b.Write(quoteValue(b.AvailableBuffer(), a.Key))
	if color != "" {
		b.WriteString(colorReset)
	}
	b.WriteByte('=')

	val := appendValue(b.AvailableBuffer(), a.Value)
	n := utf8.RuneCount(val)
	width := h.widths[a.Key]
	if n > width && n <= maxValueWidth {
		width = n
		h.widths[a.Key] = n
	}
	b.Write(val)
	if !last && width > n {
		b.WriteString(strings.Repeat(" ", width-n))
	}
}

// appendValue renders v for the terminal, quoting it when it would otherwise
// be ambiguous next to other key=value pairs.
func appendValue(dst []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindString:
		return quoteValue(dst, v.String())
	case slog.KindInt64:
		return strconv.AppendInt(dst, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(dst, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(dst, v.Float64(), 'f', 3, 64)
	case slog.KindBool:
		return strconv.AppendBool(dst, v.Bool())
	case slog.KindTime:
		return v.Time().AppendFormat(dst, timeFormat)
	case slog.KindDuration:
		return quoteValue(dst, v.Duration().String())
	}

	value := v.Any()
	if value == nil {
		return append(dst, "<nil>"...)
	}
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return append(dst, "<nil>"...)
	}
	switch x := value.(type) {
	case error:
		return quoteValue(dst, x.Error())
	case fmt.Stringer:
		return quoteValue(dst, x.String())
	}
	return quoteValue(dst, fmt.Sprintf("%+v", value))
}

// quoteValue appends s, wrapped in quotes if it holds a space or '=' and
// fully escaped if it holds control, quote or non-ASCII characters.
func quoteValue(dst []byte, s string) []byte {
	quote := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '=':
			quote = true
		case r <= '"' || r > '~':
			return strconv.AppendQuote(dst, s)
		}
	}
	if quote {
		dst = append(dst, '"')
		dst = append(dst, s...)
		return append(dst, '"')
	}
	return append(dst, s...)
}

// quoteMessage leaves messages readable: spaces and line breaks pass
// through, anything else outside printable ASCII gets the whole message
// quoted.
func quoteMessage(s string) string {
	for _, r := range s {
		if r == '\r' || r == '\n' || r == '\t' {
			continue
		}
		if r < ' ' || r > '~' || r == '=' {
			return strconv.Quote(s)
		}
	}
	return s
}
