package denly

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

const defaultMemoryInterval = time.Minute

// MemoryMonitor periodically runs a memory reclamation pass, independent of
// request traffic. The default pass is debug.FreeOSMemory, which only returns
// memory the garbage collector has already proven unreachable, so in-flight
// requests are never affected.
type MemoryMonitor struct {
	interval time.Duration
	reclaim  func()
	logger   *slog.Logger
	passes   atomic.Uint64
}

// NewMemoryMonitor creates a monitor that runs reclaim every interval. A nil
// reclaim uses debug.FreeOSMemory and a nil logger uses slog.Default().
func NewMemoryMonitor(interval time.Duration, logger *slog.Logger, reclaim func()) *MemoryMonitor {
	if reclaim == nil {
		reclaim = debug.FreeOSMemory
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryMonitor{
		interval: interval,
		reclaim:  reclaim,
		logger:   logger,
	}
}

// Run blocks, running a pass on every tick until ctx is done. A monitor
// with no positive interval just waits for ctx.
func (m *MemoryMonitor) Run(ctx context.Context) error {
	if m.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.pass(ctx)
		}
	}
}

// Passes returns how many reclamation passes have completed.
func (m *MemoryMonitor) Passes() uint64 {
	return m.passes.Load()
}

func (m *MemoryMonitor) pass(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			m.logger.LogAttrs(ctx, slog.LevelError, "memory reclamation failed",
				slog.Any("panic", rec),
			)
		}
	}()

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	m.reclaim()
	runtime.ReadMemStats(&after)

	n := m.passes.Add(1)
	m.logger.LogAttrs(ctx, slog.LevelDebug, "memory reclaimed",
		slog.Uint64("pass", n),
		slog.String("heap_before", humanize.Bytes(before.HeapAlloc)),
		slog.String("heap_after", humanize.Bytes(after.HeapAlloc)),
		slog.String("released", humanize.Bytes(after.HeapReleased)),
		slog.Int("goroutines", runtime.NumGoroutine()),
	)
}
