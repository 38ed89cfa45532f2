package denly

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// ConsoleHandler is a slog.Handler for terminals. Request records render as
//
//	15:04:05 INFO  HTTP/1.1: GET - /users/42 200 latency=1ms
//
// with successful statuses in green and failures in red; other records
// render as the message followed by key=value pairs. Colours are dropped
// when the writer is not a terminal.
type ConsoleHandler struct {
	w      io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
	mu     *sync.Mutex
	styles *consoleStyles
}

type consoleStyles struct {
	time  lipgloss.Style
	ok    lipgloss.Style
	fail  lipgloss.Style
	addr  lipgloss.Style
	key   lipgloss.Style
	level map[slog.Level]lipgloss.Style
}

func newConsoleStyles(w io.Writer) *consoleStyles {
	re := lipgloss.NewRenderer(w)
	return &consoleStyles{
		time: re.NewStyle().Foreground(lipgloss.Color("240")),
		ok:   re.NewStyle().Foreground(lipgloss.Color("46")),
		fail: re.NewStyle().Foreground(lipgloss.Color("196")),
		addr: re.NewStyle().Foreground(lipgloss.Color("33")),
		key:  re.NewStyle().Foreground(lipgloss.Color("245")),
		level: map[slog.Level]lipgloss.Style{
			slog.LevelDebug: re.NewStyle().Foreground(lipgloss.Color("63")),
			slog.LevelInfo:  re.NewStyle().Foreground(lipgloss.Color("86")),
			slog.LevelWarn:  re.NewStyle().Foreground(lipgloss.Color("220")),
			slog.LevelError: re.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		},
	}
}

// NewConsoleHandler creates a console handler writing to w.
func NewConsoleHandler(w io.Writer, opts *slog.HandlerOptions) *ConsoleHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &ConsoleHandler{
		w:      w,
		level:  level,
		mu:     &sync.Mutex{},
		styles: newConsoleStyles(w),
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes the record.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		a.Key = h.prefix + a.Key
		attrs = append(attrs, a)
		return true
	})

	var buf bytes.Buffer
	if !r.Time.IsZero() {
		buf.WriteString(h.styles.time.Render(r.Time.Format("15:04:05")))
		buf.WriteByte(' ')
	}
	buf.WriteString(h.levelLabel(r.Level))
	buf.WriteByte(' ')

	if r.Message == requestMessage {
		attrs = h.writeRequestLine(&buf, attrs)
	} else {
		buf.WriteString(r.Message)
	}

	for _, a := range attrs {
		if a.Key == "" {
			continue
		}
		buf.WriteByte(' ')
		buf.WriteString(h.styles.key.Render(a.Key + "="))
		if a.Key == "addr" {
			buf.WriteString(h.styles.addr.Render(a.Value.String()))
			continue
		}
		buf.WriteString(formatConsoleValue(a.Value))
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// writeRequestLine renders "PROTO: METHOD - URL STATUS" and returns the
// attributes it did not consume.
func (h *ConsoleHandler) writeRequestLine(buf *bytes.Buffer, attrs []slog.Attr) []slog.Attr {
	var proto, method, url string
	var status int64
	rest := attrs[:0:0]
	for _, a := range attrs {
		switch a.Key {
		case "proto":
			proto = a.Value.String()
		case "method":
			method = a.Value.String()
		case "url":
			url = a.Value.String()
		case "status":
			status = a.Value.Int64()
		default:
			rest = append(rest, a)
		}
	}

	fmt.Fprintf(buf, "%s: %s - %s ", proto, method, url)
	code := strconv.FormatInt(status, 10)
	if status > 0 && status < 400 {
		buf.WriteString(h.styles.ok.Render(code))
	} else {
		buf.WriteString(h.styles.fail.Render(code))
	}
	return rest
}

func (h *ConsoleHandler) levelLabel(level slog.Level) string {
	label := fmt.Sprintf("%-5s", level.String())
	style, ok := h.styles.level[level]
	if !ok {
		return label
	}
	return style.Render(label)
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	h2.attrs = append(h2.attrs, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		h2.attrs = append(h2.attrs, a)
	}
	return &h2
}

// WithGroup returns a handler that qualifies subsequent keys with name.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

func formatConsoleValue(v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindString {
		s := v.String()
		if s == "" || bytes.ContainsAny([]byte(s), " =\"") {
			return strconv.Quote(s)
		}
		return s
	}
	return v.String()
}
