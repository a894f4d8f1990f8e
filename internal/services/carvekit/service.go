package carvekit

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"

	"mediakit/internal/logging"
	"mediakit/internal/services"
)

//go:embed driver.py
var driverScript string

// exitImportFailure is the driver's exit status when torch, carvekit, or PIL
// cannot be imported.
const exitImportFailure = 3

// ErrUnavailable marks failures caused by a missing interpreter or package.
var ErrUnavailable = errors.New("required package not found")

// UnavailableError reports why the engine cannot run.
type UnavailableError struct {
	Detail string
}

func (e *UnavailableError) Error() string {
	if e.Detail == "" {
		return ErrUnavailable.Error()
	}
	return ErrUnavailable.Error() + ": " + e.Detail
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// CommandRunner executes name with args, wiring the provided streams.
type CommandRunner func(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error

// Service runs the driver under a Python interpreter.
type Service struct {
	python        string
	logger        *slog.Logger
	commandRunner CommandRunner
}

// NewService creates a CarveKit service using the given interpreter.
func NewService(python string, logger *slog.Logger) *Service {
	python = strings.TrimSpace(python)
	if python == "" {
		python = DefaultPython
	}
	return &Service{
		python: python,
		logger: logging.NewComponentLogger(logger, "carvekit"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// Python returns the configured interpreter.
func (s *Service) Python() string {
	return s.python
}

// Probe imports the engine and reports its runtime.
func (s *Service) Probe(ctx context.Context) (Runtime, error) {
	var stdout, stderr bytes.Buffer
	if err := s.run(ctx, "probe", nil, &stdout, &stderr); err != nil {
		return Runtime{}, s.classify(ctx, "probe", err, stderr.String())
	}

	var runtime Runtime
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var probe struct {
			Event string `json:"event"`
			Runtime
		}
		if err := json.Unmarshal([]byte(line), &probe); err != nil {
			continue
		}
		if probe.Event == EventRuntime {
			runtime = probe.Runtime
			s.logger.Debug("carvekit runtime",
				logging.String("python", runtime.Python),
				logging.String("torch", runtime.TorchVersion),
				logging.String("carvekit", runtime.CarveKitVersion),
				logging.Bool("cuda", runtime.CUDAAvailable),
			)
			return runtime, nil
		}
	}
	return Runtime{}, services.Wrap(services.ErrExternalTool, "carvekit", "probe", "driver reported no runtime", nil)
}

// Process hands the job to the driver in a single invocation. onEvent, when
// non-nil, is called for every event in the order the driver emits them.
func (s *Service) Process(ctx context.Context, job Job, onEvent func(Event)) (Result, error) {
	if len(job.Items) == 0 {
		return Result{}, services.Wrap(services.ErrValidation, "carvekit", "process", "no images in job", nil)
	}
	payload, err := job.payload()
	if err != nil {
		return Result{}, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("encode carvekit job: %w", err)
	}

	logger := s.logger
	if id, ok := services.RunIDFromContext(ctx); ok {
		logger = logger.With(logging.String(logging.FieldRunID, id))
	}

	var result Result
	events := &eventWriter{
		logger: logger,
		handle: func(ev Event) {
			switch ev.Event {
			case EventSaved:
				result.Saved = append(result.Saved, ev)
			case EventError:
				result.Failed = append(result.Failed, ev)
				logger.Warn("image failed",
					logging.String("input", ev.Input),
					logging.String("reason", ev.Message),
					logging.String(logging.FieldEventType, "image_failed"),
				)
			}
			if onEvent != nil {
				onEvent(ev)
			}
		},
	}
	stderr := &tailBuffer{limit: 16 * 1024}

	logger.Debug("starting carvekit driver",
		logging.String("python", s.python),
		logging.Int("images", len(job.Items)),
		logging.String("device", job.Params.Device),
	)
	runErr := s.run(ctx, "process", bytes.NewReader(data), events, stderr)
	events.flush()
	if runErr != nil {
		return result, s.classify(ctx, "process", runErr, stderr.String())
	}
	return result, nil
}

func (s *Service) run(ctx context.Context, mode string, stdin io.Reader, stdout, stderr io.Writer) error {
	args := []string{"-c", driverScript, mode}
	if s.commandRunner != nil {
		return s.commandRunner(ctx, s.python, args, stdin, stdout, stderr)
	}
	cmd := exec.CommandContext(ctx, s.python, args...) //nolint:gosec
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

func (s *Service) classify(ctx context.Context, operation string, err error, stderr string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return &UnavailableError{Detail: fmt.Sprintf("python interpreter %q not found", s.python)}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == exitImportFailure {
		return &UnavailableError{Detail: lastLine(stderr)}
	}
	return services.Wrap(services.ErrExternalTool, "carvekit", operation, lastLine(stderr), err)
}

// eventWriter splits driver stdout into lines and decodes each as an Event.
type eventWriter struct {
	logger  *slog.Logger
	handle  func(Event)
	pending []byte
}

func (w *eventWriter) Write(p []byte) (int, error) {
	w.pending = append(w.pending, p...)
	for {
		idx := bytes.IndexByte(w.pending, '\n')
		if idx < 0 {
			break
		}
		w.line(w.pending[:idx])
		w.pending = w.pending[idx+1:]
	}
	return len(p), nil
}

func (w *eventWriter) flush() {
	if len(w.pending) > 0 {
		w.line(w.pending)
		w.pending = nil
	}
}

func (w *eventWriter) line(raw []byte) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return
	}
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil || ev.Event == "" {
		// CarveKit and torch print download progress and warnings on stdout.
		w.logger.Debug("driver output", logging.String("line", string(raw)))
		return
	}
	w.handle(ev)
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return string(b.buf)
}

func lastLine(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
