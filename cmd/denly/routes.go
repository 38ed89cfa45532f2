package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bjaus/denly"
)

func newRoutesCommand(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route table in resolution order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := denly.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}

			r, err := newApp(cfg, slog.New(slog.DiscardHandler))
			if err != nil {
				return err
			}

			switch format {
			case "json":
				return r.WriteRoutes(cmd.OutOrStdout())
			case "yaml":
				return r.WriteRoutesYAML(cmd.OutOrStdout())
			default:
				return fmt.Errorf("unknown format %q (want json or yaml)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: json or yaml")

	return cmd
}
