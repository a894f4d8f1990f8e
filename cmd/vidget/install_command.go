package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediakit/internal/cli"
)

func newInstallCommand(ctx *cli.CommandContext, newEngine engineFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Download yt-dlp into the local cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.EnsureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.Logger()
			if err != nil {
				return err
			}

			installation, err := newEngine(cfg, logger).Install(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if installation.Downloaded {
				fmt.Fprintln(out, "Downloaded yt-dlp")
			} else {
				fmt.Fprintln(out, "yt-dlp already installed")
			}
			fmt.Fprintf(out, "Path: %s\n", installation.Executable)
			if installation.Version != "" {
				fmt.Fprintf(out, "Version: %s\n", installation.Version)
			}
			return nil
		},
	}
}
