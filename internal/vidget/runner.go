package vidget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"mediakit/internal/config"
	"mediakit/internal/history"
	"mediakit/internal/logging"
	"mediakit/internal/runlock"
	"mediakit/internal/services"
	"mediakit/internal/services/ytdlp"
)

// ErrEngineUnavailable is matched when no yt-dlp executable can be found.
var ErrEngineUnavailable = ytdlp.ErrNotInstalled

// Engine runs yt-dlp. *ytdlp.Client implements it.
type Engine interface {
	Resolve(ctx context.Context) (string, error)
	ExtractInfo(ctx context.Context, opts ytdlp.Options, url string) (*ytdlp.Info, error)
	Download(ctx context.Context, opts ytdlp.Options, url string, onProgress func(ytdlp.Progress)) (ytdlp.DownloadResult, error)
}

// Reporter receives progress for display.
type Reporter interface {
	Downloading(title string)
	Playlist(title string, count int)
	Progress(p ytdlp.Progress)
	Complete(result Result)
}

// Job is a validated request with its resolved option dictionary.
type Job struct {
	Options   Options
	OutputDir string
	Engine    ytdlp.Options
}

// Result describes a finished download.
type Result struct {
	RunID    string   `json:"run_id,omitempty"`
	Title    string   `json:"title"`
	Files    []string `json:"files"`
	Failures []string `json:"failures"`
}

// Runner coordinates option resolution, yt-dlp, and run history.
type Runner struct {
	cfg      *config.Config
	engine   Engine
	store    *history.Store
	reporter Reporter
	logger   *slog.Logger
}

// NewRunner constructs a runner. store and reporter may be nil.
func NewRunner(cfg *config.Config, engine Engine, store *history.Store, reporter Reporter, logger *slog.Logger) *Runner {
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Runner{
		cfg:      cfg,
		engine:   engine,
		store:    store,
		reporter: reporter,
		logger:   logging.NewComponentLogger(logger, "vidget"),
	}
}

// Prepare validates opts and builds the option dictionary. Nothing is
// created on disk.
func (r *Runner) Prepare(opts Options) (*Job, error) {
	opts.Normalize()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	outputDir, err := config.ExpandPath(opts.Output)
	if err != nil {
		return nil, fmt.Errorf("expand output path: %w", err)
	}
	settings := EngineSettings{SubtitleLanguages: config.DefaultSubtitleLanguages}
	if r.cfg != nil {
		if len(r.cfg.YTDLP.SubtitleLanguages) > 0 {
			settings.SubtitleLanguages = r.cfg.YTDLP.SubtitleLanguages
		}
		settings.DownloadArchive = r.cfg.YTDLP.DownloadArchive
	}
	return &Job{
		Options:   opts,
		OutputDir: outputDir,
		Engine:    BuildEngineOptions(opts, outputDir, settings),
	}, nil
}

// Info checks that yt-dlp is available and extracts metadata for the job's
// URL without downloading.
func (r *Runner) Info(ctx context.Context, job *Job) (*ytdlp.Info, error) {
	if _, err := r.engine.Resolve(ctx); err != nil {
		return nil, err
	}
	info, err := r.engine.ExtractInfo(ctx, job.Engine, job.Options.URL)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, ErrEngineUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("fetching video info: %w", err)
	}
	return info, nil
}

// Run prepares the job, extracts metadata, and downloads.
func (r *Runner) Run(ctx context.Context, opts Options) (Result, error) {
	job, err := r.Prepare(opts)
	if err != nil {
		return Result{}, err
	}
	return r.Execute(ctx, job)
}

// Execute downloads a prepared job under the output directory lock and
// records it in history.
func (r *Runner) Execute(ctx context.Context, job *Job) (result Result, err error) {
	result = Result{Files: []string{}, Failures: []string{}}

	if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
		return result, fmt.Errorf("create output directory: %w", err)
	}

	info, err := r.Info(ctx, job)
	if err != nil {
		return result, err
	}
	result.Title = DisplayTitle(info)
	r.reporter.Downloading(result.Title)
	if info.HasEntries() {
		r.reporter.Playlist(result.Title, len(info.Entries))
	}

	lock, err := runlock.Acquire(r.cfg.LockDir(), job.OutputDir)
	if err != nil {
		return result, err
	}
	defer func() {
		if relErr := lock.Release(); relErr != nil {
			r.logger.Warn("release output lock", logging.Error(relErr))
		}
	}()

	logger := r.logger
	if r.store != nil {
		if n, markErr := r.store.MarkInterrupted(ctx, history.ToolVidget, job.OutputDir); markErr != nil {
			logger.Warn("mark interrupted runs", logging.Error(markErr))
		} else if n > 0 {
			logger.Info("closed interrupted runs", logging.Int64("count", n), logging.String("output", job.OutputDir))
		}
		run, beginErr := r.store.Begin(ctx, history.ToolVidget, job.Options.URL, job.OutputDir, job.Engine)
		if beginErr != nil {
			return result, fmt.Errorf("record run: %w", beginErr)
		}
		result.RunID = run.ID
		ctx = services.WithRunID(ctx, run.ID)
		logger = logger.With(logging.String(logging.FieldRunID, run.ID))
		defer func() {
			if finishErr := r.store.Finish(ctx, run, len(result.Files), err); finishErr != nil {
				logger.Warn("record run result", logging.Error(finishErr))
			}
		}()
	}

	logger.Info("downloading",
		logging.String("url", job.Options.URL),
		logging.String("title", result.Title),
		logging.String("format", job.Engine.Format),
	)
	downloaded, err := r.engine.Download(ctx, job.Engine, job.Options.URL, r.reporter.Progress)
	result.Files = append(result.Files, downloaded.Files...)
	result.Failures = append(result.Failures, downloaded.Failures...)
	if err != nil {
		return result, err
	}

	r.reporter.Complete(result)
	logger.Info("download complete",
		logging.Int("files", len(result.Files)),
		logging.Int("failures", len(result.Failures)),
	)
	return result, nil
}

type nopReporter struct{}

func (nopReporter) Downloading(string)      {}
func (nopReporter) Playlist(string, int)    {}
func (nopReporter) Progress(ytdlp.Progress) {}
func (nopReporter) Complete(Result)         {}
