package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/buildwatch/internal/app"
	"github.com/GriffinCanCode/buildwatch/internal/console"
)

var routeCmd = &cobra.Command{
	Use:   "route [file]",
	Short: "Route already captured output from stdin or a transcript",
	Long: `route reads tagged lines and renders them the same way a supervised
command's output is rendered, e.g. "make 2>&1 | buildwatch route".
Transcripts ending in .gz or .zst are decompressed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		in := cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			rc, err := console.OpenTranscript(args[0])
			if err != nil {
				return err
			}
			defer rc.Close()
			in = rc
		}

		sinks, err := app.BuildSinks(cfg.Console, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer sinks.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if _, err := app.Route(ctx, in, sinks); err != nil {
			return fmt.Errorf("route: %w", err)
		}
		return nil
	},
}
