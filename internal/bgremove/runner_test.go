package bgremove_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediakit/internal/bgremove"
	"mediakit/internal/history"
	"mediakit/internal/logging"
	"mediakit/internal/runlock"
	"mediakit/internal/services/carvekit"
	"mediakit/internal/testsupport"
)

type fakeEngine struct {
	runtime  carvekit.Runtime
	probeErr error
	fail     map[string]string
	jobs     []carvekit.Job
}

func (f *fakeEngine) Probe(context.Context) (carvekit.Runtime, error) {
	return f.runtime, f.probeErr
}

func (f *fakeEngine) Process(_ context.Context, job carvekit.Job, onEvent func(carvekit.Event)) (carvekit.Result, error) {
	f.jobs = append(f.jobs, job)
	var result carvekit.Result
	for i, item := range job.Items {
		if reason, ok := f.fail[filepath.Base(item.Input)]; ok {
			ev := carvekit.Event{Event: carvekit.EventError, Index: i, Input: item.Input, Output: item.Output, Message: reason}
			result.Failed = append(result.Failed, ev)
			onEvent(ev)
			continue
		}
		if err := os.WriteFile(item.Output, []byte("png"), 0o644); err != nil {
			return result, err
		}
		ev := carvekit.Event{Event: carvekit.EventSaved, Index: i, Input: item.Input, Output: item.Output, Bytes: 3}
		result.Saved = append(result.Saved, ev)
		onEvent(ev)
	}
	return result, nil
}

type recordingReporter struct {
	started  *bgremove.Job
	saved    []string
	failed   []string
	complete int
}

func (r *recordingReporter) Start(job *bgremove.Job) { r.started = job }

func (r *recordingReporter) Saved(index, total int, path string, _ int64) {
	r.saved = append(r.saved, filepath.Base(path))
	if index < 1 || index > total {
		panic("index out of range")
	}
}

func (r *recordingReporter) Failed(_, _ int, input, _ string) {
	r.failed = append(r.failed, filepath.Base(input))
}

func (r *recordingReporter) Complete(processed int) { r.complete = processed }

func inputDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "photos")
	for _, name := range names {
		testsupport.WriteImage(t, filepath.Join(dir, name), 4, 4)
	}
	return dir
}

func TestRunnerProcessesDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	engine := &fakeEngine{runtime: carvekit.Runtime{CUDAAvailable: true}}
	reporter := &recordingReporter{}
	runner := bgremove.NewRunner(cfg, engine, store, reporter, logging.NewNop())

	opts := bgremove.DefaultOptions(cfg.BGRemove.Output, 5)
	opts.Input = inputDir(t, "b.jpg", "a.png")
	opts.FP16 = true

	summary, err := runner.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Device != carvekit.DeviceCUDA || len(summary.Saved) != 2 || len(summary.Failed) != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if strings.Join(reporter.saved, ",") != "a_no_bg.png,b_no_bg.png" || reporter.complete != 2 {
		t.Fatalf("unexpected reporter state %+v", reporter)
	}
	if len(engine.jobs) != 1 {
		t.Fatalf("expected one engine invocation, got %d", len(engine.jobs))
	}
	job := engine.jobs[0]
	if !job.Params.FP16 || job.Params.Device != carvekit.DeviceCUDA || job.PostProcessing != carvekit.PostProcessingFBA {
		t.Fatalf("unexpected engine job %+v", job)
	}
	if _, err := os.Stat(filepath.Join(cfg.BGRemove.Output, "a_no_bg.png")); err != nil {
		t.Fatalf("expected output written: %v", err)
	}

	run, err := store.Get(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("history Get: %v", err)
	}
	if run.Tool != history.ToolBGRemove || run.Status != history.StatusSucceeded || run.Items != 2 {
		t.Fatalf("unexpected history run %+v", run)
	}
	if !strings.Contains(run.OptionsJSON, `"object_type":"hairs-like"`) {
		t.Fatalf("expected engine options in history, got %s", run.OptionsJSON)
	}
}

func TestRunnerPartialFailureIsReported(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	engine := &fakeEngine{fail: map[string]string{"a.png": "cannot identify image file"}}
	reporter := &recordingReporter{}
	runner := bgremove.NewRunner(cfg, engine, nil, reporter, logging.NewNop())

	opts := bgremove.DefaultOptions(cfg.BGRemove.Output, 5)
	opts.Input = inputDir(t, "a.png", "b.png")

	summary, err := runner.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Saved) != 1 || len(summary.Failed) != 1 || summary.Failed[0].Error != "cannot identify image file" {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Device != carvekit.DeviceCPU {
		t.Fatalf("expected cpu without CUDA, got %s", summary.Device)
	}
	if strings.Join(reporter.failed, ",") != "a.png" || reporter.complete != 1 {
		t.Fatalf("unexpected reporter state %+v", reporter)
	}
}

func TestRunnerAllFailedIsError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	engine := &fakeEngine{fail: map[string]string{"a.png": "broken"}}
	runner := bgremove.NewRunner(cfg, engine, store, nil, logging.NewNop())

	opts := bgremove.DefaultOptions(cfg.BGRemove.Output, 5)
	opts.Input = inputDir(t, "a.png")

	summary, err := runner.Run(context.Background(), opts)
	if err == nil || !strings.Contains(err.Error(), "all 1 image(s) failed: broken") {
		t.Fatalf("expected all-failed error, got %v", err)
	}
	run, getErr := store.Get(context.Background(), summary.RunID)
	if getErr != nil {
		t.Fatalf("history Get: %v", getErr)
	}
	if run.Status != history.StatusFailed {
		t.Fatalf("expected failed run, got %s", run.Status)
	}
}

func TestRunnerEngineUnavailable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	engine := &fakeEngine{probeErr: &carvekit.UnavailableError{Detail: "No module named 'carvekit'"}}
	runner := bgremove.NewRunner(cfg, engine, nil, nil, logging.NewNop())

	opts := bgremove.DefaultOptions(cfg.BGRemove.Output, 5)
	opts.Input = inputDir(t, "a.png")

	_, err := runner.Run(context.Background(), opts)
	if !errors.Is(err, bgremove.ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable, got %v", err)
	}
	if err.Error() != "required package not found: No module named 'carvekit'" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if len(engine.jobs) != 0 {
		t.Fatal("engine must not run when unavailable")
	}
}

func TestRunnerRejectsInvalidOptionsBeforeProbe(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	engine := &fakeEngine{probeErr: errors.New("probe should not run")}
	runner := bgremove.NewRunner(cfg, engine, nil, nil, logging.NewNop())

	opts := bgremove.DefaultOptions(cfg.BGRemove.Output, 5)
	opts.Input = "whatever.png"
	opts.Quality = "extreme"

	if _, err := runner.Run(context.Background(), opts); !errors.Is(err, bgremove.ErrInvalidOption) {
		t.Fatalf("expected ErrInvalidOption, got %v", err)
	}
}

func TestRunnerPrepareDryRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := bgremove.NewRunner(cfg, &fakeEngine{}, nil, nil, logging.NewNop())

	opts := bgremove.DefaultOptions(cfg.BGRemove.Output, 5)
	opts.Input = filepath.Join(inputDir(t, "cat.jpg"), "cat.jpg")
	opts.Mode = bgremove.ModeGeneral
	opts.PostProcessing = bgremove.PostProcessingNone

	job, err := runner.Prepare(context.Background(), opts)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	report, err := job.DryRun()
	if err != nil {
		t.Fatalf("DryRun: %v", err)
	}
	if report.Interface["object_type"] != carvekit.ObjectGeneric || report.Interface["seg_mask_size"] != 640 {
		t.Fatalf("unexpected interface %v", report.Interface)
	}
	if report.PostProcessing != "none" || len(report.Items) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if want := filepath.Join(cfg.BGRemove.Output, "cat_no_bg.png"); report.Items[0].Output != want {
		t.Fatalf("output = %s, want %s", report.Items[0].Output, want)
	}
	if _, err := os.Stat(cfg.BGRemove.Output); !os.IsNotExist(err) {
		t.Fatal("prepare must not create the output directory")
	}
}

func TestRunnerOutputLocked(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	runner := bgremove.NewRunner(cfg, &fakeEngine{}, nil, nil, logging.NewNop())

	held, err := runlock.Acquire(cfg.LockDir(), cfg.BGRemove.Output)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer held.Release()

	opts := bgremove.DefaultOptions(cfg.BGRemove.Output, 5)
	opts.Input = inputDir(t, "a.png")
	if _, err := runner.Run(context.Background(), opts); !errors.Is(err, runlock.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}
