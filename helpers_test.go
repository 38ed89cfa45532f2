package denly_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// logRecorder is a slog.Handler that keeps every record for inspection.
type logRecorder struct {
	mu      sync.Mutex
	records []loggedRecord
}

type loggedRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]slog.Value
}

func newLogRecorder() (*logRecorder, *slog.Logger) {
	rec := &logRecorder{}
	return rec, slog.New(rec)
}

func (l *logRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (l *logRecorder) Handle(_ context.Context, r slog.Record) error {
	lr := loggedRecord{
		Level:   r.Level,
		Message: r.Message,
		Attrs:   make(map[string]slog.Value, r.NumAttrs()),
	}
	r.Attrs(func(a slog.Attr) bool {
		lr.Attrs[a.Key] = a.Value.Resolve()
		return true
	})

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, lr)
	return nil
}

func (l *logRecorder) WithAttrs([]slog.Attr) slog.Handler { return l }

func (l *logRecorder) WithGroup(string) slog.Handler { return l }

// find returns the records logged with msg so far.
func (l *logRecorder) find(msg string) []loggedRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []loggedRecord
	for _, r := range l.records {
		if r.Message == msg {
			out = append(out, r)
		}
	}
	return out
}

// wait blocks until a record with msg is logged and returns the first one.
func (l *logRecorder) wait(t *testing.T, msg string) loggedRecord {
	t.Helper()

	require.Eventually(t, func() bool {
		return len(l.find(msg)) > 0
	}, 2*time.Second, 5*time.Millisecond, "no %q record logged", msg)
	return l.find(msg)[0]
}
