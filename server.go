package denly

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// ListenAndServe binds addr and serves until ctx is cancelled, then shuts
// down gracefully.
func (r *Router) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return r.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. Each connection is
// served on its own goroutine, so a slow handler never holds up accepting
// the next request. The memory monitor runs alongside for the server's
// lifetime. Serve takes ownership of ln.
func (r *Router) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(r.logger.Handler(), slog.LevelWarn),
	}

	r.announce(ctx, ln.Addr())

	monitor := NewMemoryMonitor(r.memoryInterval, r.logger, r.reclaim)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return monitor.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()

		r.logger.LogAttrs(ctx, slog.LevelInfo, "server stopping",
			slog.String("addr", ln.Addr().String()),
		)
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// announce logs the startup banner and, in debug mode, a warning.
func (r *Router) announce(ctx context.Context, addr net.Addr) {
	r.logger.LogAttrs(ctx, slog.LevelInfo, "server started",
		slog.String("addr", "http://"+addr.String()),
	)
	if r.debug {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "debug mode is on; use it for development only")
	}
}
