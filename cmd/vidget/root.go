package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"mediakit/internal/cli"
	"mediakit/internal/config"
	"mediakit/internal/history"
	"mediakit/internal/services/ytdlp"
	"mediakit/internal/vidget"
)

// engine is the yt-dlp surface the command uses, including installation.
type engine interface {
	vidget.Engine
	Install(ctx context.Context) (ytdlp.Installation, error)
}

type engineFactory func(cfg *config.Config, logger *slog.Logger) engine

func newYTDLPEngine(cfg *config.Config, logger *slog.Logger) engine {
	return ytdlp.NewClient(ytdlp.Config{
		Binary:      cfg.YTDLP.Binary,
		AutoInstall: cfg.YTDLP.AutoInstall,
		Timeout:     cfg.YTDLPTimeout(),
	}, logger)
}

func newRootCommand(newEngine engineFactory) *cobra.Command {
	ctx := cli.NewCommandContext(history.ToolVidget)
	opts := vidget.DefaultOptions(config.Default().YTDLP.OutputDir)
	var dryRun bool
	var jsonOutput bool

	rootCmd := cli.NewRootCommand(ctx, "vidget <url>", "Download video and audio with yt-dlp")
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
		runOpts.URL = args[0]
		if !cmd.Flags().Changed("output") {
			runOpts.Output = cfg.YTDLP.OutputDir
		}

		client := newEngine(cfg, logger)
		out := cmd.OutOrStdout()

		job, err := vidget.NewRunner(cfg, client, nil, nil, logger).Prepare(runOpts)
		if err != nil {
			return err
		}

		if dryRun {
			dict, err := job.Engine.Dict()
			if err != nil {
				return err
			}
			return cli.WriteJSON(out, dict)
		}

		if jsonOutput {
			info, err := vidget.NewRunner(cfg, client, nil, nil, logger).Info(cmd.Context(), job)
			if err != nil {
				return withEngineHints(err)
			}
			return cli.WriteJSON(out, vidget.Summarize(info))
		}

		store, err := ctx.OpenHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		runner := vidget.NewRunner(cfg, client, store, newTextReporter(out), logger)
		if _, err := runner.Execute(cmd.Context(), job); err != nil {
			return withEngineHints(err)
		}
		return nil
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.Output, "output", "o", opts.Output, "Output directory (default from config ytdlp.output_dir)")
	flags.BoolVarP(&opts.AudioOnly, "audio-only", "a", false, "Download best audio and extract it to m4a")
	flags.BoolVarP(&opts.Subs, "subs", "s", false, "Write subtitles and automatic subtitles")
	flags.BoolVar(&opts.EmbedSubs, "embed-subs", false, "Embed subtitles into the video (implies --subs)")
	flags.BoolVarP(&opts.Playlist, "playlist", "p", false, "Download the whole playlist")
	flags.IntVar(&opts.PlaylistStart, "playlist-start", opts.PlaylistStart, "First playlist item (1-based)")
	flags.IntVar(&opts.PlaylistEnd, "playlist-end", 0, "Last playlist item (1-based, default last)")
	flags.StringVarP(&opts.Format, "format", "f", opts.Format, "yt-dlp format selector")
	flags.StringVar(&opts.Quality, "quality", "", "Maximum video height: "+strings.Join(vidget.Qualities, ", "))
	flags.BoolVar(&opts.NoWarnings, "no-warnings", false, "Suppress yt-dlp warnings")
	flags.BoolVar(&jsonOutput, "json", false, "Print video metadata as JSON without downloading")
	flags.BoolVar(&dryRun, "dry-run", false, "Print the resolved yt-dlp options without running")

	rootCmd.AddCommand(newInstallCommand(ctx, newEngine))
	return rootCmd
}

func withEngineHints(err error) error {
	if errors.Is(err, vidget.ErrEngineUnavailable) {
		return cli.WithHints(err,
			"or run: vidget install",
			"or set ytdlp.auto_install = true in the config",
		)
	}
	return err
}
