package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bjaus/denly"
)

const logFileName = "denly.log"

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		host  string
		port  int
		debug bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the sample application. Settings come from the config file,
then DENLY_* environment variables, then the flags below.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := denly.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Hostname = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("debug") {
				cfg.Debug = debug
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, closeLog, err := newLogger(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			r, err := newApp(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return r.ListenAndServe(ctx, cfg.Addr())
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host to bind to (default from config: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default from config: 808)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug mode")

	return cmd
}

// newLogger logs to the console and, when a log directory is configured, to
// a JSON log file inside it.
func newLogger(console io.Writer, cfg *denly.Config) (*slog.Logger, func(), error) {
	consoleHandler := denly.NewLogHandler(console, cfg.Logging)
	if cfg.Storage.Log == "" {
		return slog.New(consoleHandler), func() {}, nil
	}

	if err := os.MkdirAll(cfg.Storage.Log, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	path := filepath.Join(cfg.Storage.Log, logFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	fileHandler := denly.NewLogHandler(f, denly.LoggingConfig{Format: "json", Level: cfg.Logging.Level})
	closeLog := func() {
		//nolint:errcheck,gosec // nothing left to log to
		f.Close()
	}
	return slog.New(denly.NewTeeHandler(consoleHandler, fileHandler)), closeLog, nil
}
