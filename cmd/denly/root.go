package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCommand(version, commit, date string) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "denly",
		Short: "Denly - a minimal HTTP server framework",
		Long: `denly serves a sample application built on the denly framework:
typed route placeholders, form and multipart decoding, redirects,
and tagged handler errors.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"Config file path (YAML, JSON, or TOML); DENLY_* variables override it")

	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newRoutesCommand(opts))

	return rootCmd
}
