package bgremove

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
	"mediakit/internal/services/carvekit"
)

// ErrEngineUnavailable is matched when the interpreter or the CarveKit
// packages are missing.
var ErrEngineUnavailable = carvekit.ErrUnavailable

// Engine runs background removal. *carvekit.Service implements it.
type Engine interface {
	Probe(ctx context.Context) (carvekit.Runtime, error)
	Process(ctx context.Context, job carvekit.Job, onEvent func(carvekit.Event)) (carvekit.Result, error)
}

// Reporter receives progress for display. Indexes are 1-based.
type Reporter interface {
	Start(job *Job)
	Saved(index, total int, path string, size int64)
	Failed(index, total int, input, reason string)
	Complete(processed int)
}

// Job is a fully resolved run.
type Job struct {
	Options Options
	Source  Source
	Plan    Plan
	Runtime carvekit.Runtime
	Device  string
	Params  carvekit.Params
	Headers []ImageInfo
}

// EngineJob returns the request handed to the engine.
func (j *Job) EngineJob() carvekit.Job {
	return carvekit.Job{
		Params:         j.Params,
		PostProcessing: j.Options.PostProcessing,
		Items:          j.Plan.Items,
	}
}

// DryRunReport is printed by --dry-run instead of invoking the engine.
type DryRunReport struct {
	Device         string          `json:"device"`
	Mode           string          `json:"mode"`
	Quality        string          `json:"quality"`
	PostProcessing string          `json:"post_processing"`
	Interface      map[string]any  `json:"interface"`
	Items          []carvekit.Item `json:"items"`
}

// DryRun renders the resolved engine options.
func (j *Job) DryRun() (DryRunReport, error) {
	dict, err := j.Params.Dict()
	if err != nil {
		return DryRunReport{}, err
	}
	return DryRunReport{
		Device:         j.Device,
		Mode:           j.Options.Mode,
		Quality:        j.Options.Quality,
		PostProcessing: j.Options.PostProcessing,
		Interface:      dict,
		Items:          j.Plan.Items,
	}, nil
}

// SavedImage is one file the engine wrote.
type SavedImage struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Bytes  int64  `json:"bytes"`
}

// FailedImage is one input the engine could not process.
type FailedImage struct {
	Input string `json:"input"`
	Error string `json:"error"`
}

// Summary describes a finished run.
type Summary struct {
	RunID   string        `json:"run_id,omitempty"`
	Device  string        `json:"device"`
	Mode    string        `json:"mode"`
	Quality string        `json:"quality"`
	Saved   []SavedImage  `json:"saved"`
	Failed  []FailedImage `json:"failed"`
}

// Runner coordinates option resolution, the engine, and run history.
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
		logger:   logging.NewComponentLogger(logger, "bgremove"),
	}
}

// Prepare validates opts, checks the engine, and resolves images, outputs,
// and engine parameters without writing anything.
func (r *Runner) Prepare(ctx context.Context, opts Options) (*Job, error) {
	opts.Normalize()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	runtime, err := r.engine.Probe(ctx)
	if err != nil {
		if errors.Is(err, ErrEngineUnavailable) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("probe carvekit: %w", err)
	}

	src, err := Collect(opts.Input)
	if err != nil {
		return nil, err
	}
	plan, err := PlanOutputs(src, opts.Output)
	if err != nil {
		return nil, err
	}

	device := ResolveDevice(opts.Device, runtime)
	if opts.FP16 && device != carvekit.DeviceCUDA {
		logging.WarnWithContext(r.logger, "fp16 ignored on cpu", "fp16_ignored",
			logging.String(logging.FieldErrorHint, "use --device cuda on a machine with a CUDA GPU"))
	}
	if opts.Device == DeviceCUDA && !runtime.CUDAAvailable {
		logging.WarnWithContext(r.logger, "cuda requested but torch reports no CUDA device", "cuda_unavailable")
	}

	headers, err := ProbeImages(ctx, src.Images, r.probeWorkers())
	if err != nil {
		return nil, err
	}
	for _, h := range headers {
		if h.Err != nil {
			logging.WarnWithContext(r.logger, "could not read image header", "image_probe_failed",
				logging.String("path", h.Path),
				logging.Error(h.Err),
				logging.String(logging.FieldErrorHint, "the engine will still try to open the file"),
			)
			continue
		}
		r.logger.Debug("image",
			logging.String("path", h.Path),
			logging.String("format", h.Format),
			logging.Int("width", h.Width),
			logging.Int("height", h.Height),
		)
	}

	return &Job{
		Options: opts,
		Source:  src,
		Plan:    plan,
		Runtime: runtime,
		Device:  device,
		Params:  ResolveParams(opts, device),
		Headers: headers,
	}, nil
}

// Run prepares and executes a job.
func (r *Runner) Run(ctx context.Context, opts Options) (Summary, error) {
	job, err := r.Prepare(ctx, opts)
	if err != nil {
		return Summary{}, err
	}
	return r.Execute(ctx, job)
}

// Execute runs a prepared job under the output directory lock and records
// it in history.
func (r *Runner) Execute(ctx context.Context, job *Job) (summary Summary, err error) {
	summary = Summary{
		Device:  job.Device,
		Mode:    job.Options.Mode,
		Quality: job.Options.Quality,
		Saved:   []SavedImage{},
		Failed:  []FailedImage{},
	}

	outputDir := job.Plan.OutputDir
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return summary, fmt.Errorf("create output directory: %w", err)
	}
	lock, err := runlock.Acquire(r.cfg.LockDir(), outputDir)
	if err != nil {
		return summary, err
	}
	defer func() {
		if relErr := lock.Release(); relErr != nil {
			r.logger.Warn("release output lock", logging.Error(relErr))
		}
	}()

	logger := r.logger
	if r.store != nil {
		if n, markErr := r.store.MarkInterrupted(ctx, history.ToolBGRemove, outputDir); markErr != nil {
			logger.Warn("mark interrupted runs", logging.Error(markErr))
		} else if n > 0 {
			logger.Info("closed interrupted runs", logging.Int64("count", n), logging.String("output", outputDir))
		}
		report, dictErr := job.DryRun()
		if dictErr != nil {
			return summary, dictErr
		}
		report.Items = nil
		run, beginErr := r.store.Begin(ctx, history.ToolBGRemove, job.Source.Root, outputDir, report)
		if beginErr != nil {
			return summary, fmt.Errorf("record run: %w", beginErr)
		}
		summary.RunID = run.ID
		ctx = services.WithRunID(ctx, run.ID)
		logger = logger.With(logging.String(logging.FieldRunID, run.ID))
		defer func() {
			if finishErr := r.store.Finish(ctx, run, len(summary.Saved), err); finishErr != nil {
				logger.Warn("record run result", logging.Error(finishErr))
			}
		}()
	}

	total := len(job.Plan.Items)
	r.reporter.Start(job)
	logger.Info("processing images",
		logging.Int("images", total),
		logging.String("device", job.Device),
		logging.String("object_type", job.Params.ObjectType),
	)

	result, err := r.engine.Process(ctx, job.EngineJob(), func(ev carvekit.Event) {
		switch ev.Event {
		case carvekit.EventSaved:
			r.reporter.Saved(ev.Index+1, total, ev.Output, ev.Bytes)
		case carvekit.EventError:
			r.reporter.Failed(ev.Index+1, total, ev.Input, ev.Message)
		}
	})
	for _, ev := range result.Saved {
		summary.Saved = append(summary.Saved, SavedImage{Input: ev.Input, Output: ev.Output, Bytes: ev.Bytes})
	}
	for _, ev := range result.Failed {
		summary.Failed = append(summary.Failed, FailedImage{Input: ev.Input, Error: ev.Message})
	}
	if err != nil {
		return summary, err
	}
	if len(summary.Saved) == 0 && len(summary.Failed) > 0 {
		return summary, fmt.Errorf("all %d image(s) failed: %s", len(summary.Failed), summary.Failed[0].Error)
	}

	r.reporter.Complete(len(summary.Saved))
	logger.Info("run complete",
		logging.Int("saved", len(summary.Saved)),
		logging.Int("failed", len(summary.Failed)),
	)
	return summary, nil
}

func (r *Runner) probeWorkers() int {
	if r.cfg == nil || r.cfg.BGRemove.ProbeWorkers < 1 {
		return 1
	}
	return r.cfg.BGRemove.ProbeWorkers
}

type nopReporter struct{}

func (nopReporter) Start(*Job)                      {}
func (nopReporter) Saved(int, int, string, int64)   {}
func (nopReporter) Failed(int, int, string, string) {}
func (nopReporter) Complete(int)                    {}
