package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"mediakit/internal/bgremove"
	"mediakit/internal/cli"
	"mediakit/internal/config"
	"mediakit/internal/history"
	"mediakit/internal/services/carvekit"
)

type engineFactory func(cfg *config.Config, logger *slog.Logger) bgremove.Engine

func newCarveKitEngine(cfg *config.Config, logger *slog.Logger) bgremove.Engine {
	return carvekit.NewService(cfg.BGRemove.PythonBinary, logger)
}

func newRootCommand(newEngine engineFactory) *cobra.Command {
	ctx := cli.NewCommandContext(history.ToolBGRemove)
	opts := bgremove.DefaultOptions(config.Default().BGRemove.Output, config.Default().BGRemove.BatchSize)
	var dryRun bool
	var jsonOutput bool

	rootCmd := cli.NewRootCommand(ctx, "bgremove <input>", "Remove image backgrounds with CarveKit")
	rootCmd.Args = cobra.MaximumNArgs(1)
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		cfg, err := ctx.EnsureConfig()
		if err != nil {
			return err
		}
		logger, err := ctx.Logger()
		if err != nil {
			return err
		}

		runOpts := opts
		runOpts.Input = args[0]
		if !cmd.Flags().Changed("output") {
			runOpts.Output = cfg.BGRemove.Output
		}
		if !cmd.Flags().Changed("batch-size") {
			runOpts.BatchSize = cfg.BGRemove.BatchSize
		}

		engine := newEngine(cfg, logger)
		out := cmd.OutOrStdout()

		if dryRun {
			job, err := bgremove.NewRunner(cfg, engine, nil, nil, logger).Prepare(cmd.Context(), runOpts)
			if err != nil {
				return withEngineHints(err)
			}
			report, err := job.DryRun()
			if err != nil {
				return err
			}
			return cli.WriteJSON(out, report)
		}

		store, err := ctx.OpenHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		var reporter bgremove.Reporter
		if !jsonOutput {
			reporter = newTextReporter(out)
		}
		summary, err := bgremove.NewRunner(cfg, engine, store, reporter, logger).Run(cmd.Context(), runOpts)
		if err != nil {
			return withEngineHints(err)
		}
		if jsonOutput {
			return cli.WriteJSON(out, summary)
		}
		return nil
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.Output, "output", "o", opts.Output, "Output file or directory (default from config bgremove.output)")
	flags.StringVar(&opts.Mode, "mode", opts.Mode, "Segmentation mode: auto, hairs, general")
	flags.StringVar(&opts.Device, "device", opts.Device, "Device: auto, cpu, cuda")
	flags.StringVar(&opts.Quality, "quality", opts.Quality, "Quality preset: fast, balanced, high")
	flags.StringVar(&opts.PostProcessing, "post-processing", opts.PostProcessing, "Post-processing: fba, none")
	flags.IntVar(&opts.BatchSize, "batch-size", opts.BatchSize, "Segmentation batch size for the balanced preset")
	flags.BoolVar(&opts.FP16, "fp16", false, "Use half precision (CUDA only)")
	flags.BoolVar(&dryRun, "dry-run", false, "Print the resolved engine options as JSON without processing")
	flags.BoolVar(&jsonOutput, "json", false, "Print a JSON summary of saved files")

	return rootCmd
}

func withEngineHints(err error) error {
	if errors.Is(err, bgremove.ErrEngineUnavailable) {
		return cli.WithHints(err, carvekit.InstallHints()...)
	}
	return err
}
