package denly_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/denly"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, want, denly.ParseLevel(in))
		})
	}
}

func TestNewLogger_formats(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		format string
		check  func(t *testing.T, out string)
	}{
		"json": {
			format: "json",
			check: func(t *testing.T, out string) {
				t.Helper()
				var rec map[string]any
				require.NoError(t, json.Unmarshal([]byte(out), &rec))
				assert.Equal(t, "server started", rec["msg"])
				assert.Equal(t, "http://x", rec["addr"])
			},
		},
		"text": {
			format: "text",
			check: func(t *testing.T, out string) {
				t.Helper()
				assert.Contains(t, out, `msg="server started" addr=http://x`)
			},
		},
		"console": {
			format: "console",
			check: func(t *testing.T, out string) {
				t.Helper()
				assert.Contains(t, out, "INFO  server started addr=http://x")
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := denly.NewLogger(&buf, denly.LoggingConfig{Format: tc.format, Level: "info"})
			logger.Debug("hidden")
			logger.Info("server started", "addr", "http://x")

			assert.NotContains(t, buf.String(), "hidden")
			tc.check(t, buf.String())
		})
	}
}

type failingHandler struct {
	slog.Handler
}

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("disk full")
}

func TestTeeHandler(t *testing.T) {
	t.Parallel()

	var console, file bytes.Buffer
	tee := denly.NewTeeHandler(
		slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	logger := slog.New(tee).With("svc", "denly").WithGroup("req")

	assert.True(t, tee.Enabled(context.Background(), slog.LevelDebug))

	logger.Debug("decoded", "args", 2)
	logger.Warn("dropped", "size", 10)

	assert.NotContains(t, console.String(), "decoded")
	assert.Contains(t, console.String(), "svc=denly req.size=10")
	assert.Contains(t, file.String(), `"msg":"decoded"`)
	assert.Contains(t, file.String(), `"req":{"size":10}`)
}

func TestTeeHandler_joins_errors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tee := denly.NewTeeHandler(
		failingHandler{slog.NewTextHandler(&buf, nil)},
		slog.NewTextHandler(&buf, nil),
	)

	err := tee.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0))
	assert.EqualError(t, err, "disk full")
	assert.Contains(t, buf.String(), "msg=msg")
}
