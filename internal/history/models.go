package history

import (
	"context"
	"errors"
	"time"
)

// Status represents the lifecycle of a recorded run.
type Status string

const (
	StatusRunning     Status = "running"
	StatusSucceeded   Status = "succeeded"
	StatusFailed      Status = "failed"
	StatusCanceled    Status = "canceled"
	StatusInterrupted Status = "interrupted"
)

// Tool names recorded in the runs table.
const (
	ToolBGRemove = "bgremove"
	ToolVidget   = "vidget"
)

// InterruptedReason is the error message stored on runs left in the running
// state by a process that exited without calling Finish.
const InterruptedReason = "process exited before the run finished"

// Run is a single invocation of one of the tools.
type Run struct {
	ID           string
	Tool         string
	Target       string
	Output       string
	Status       Status
	Items        int
	OptionsJSON  string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// IsFinished reports whether the run reached a terminal status.
func (r Run) IsFinished() bool {
	return r.Status != StatusRunning
}

// Duration returns how long the run took, or zero while it is still running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// StatusFor maps the error a run returned to its terminal status.
func StatusFor(err error) Status {
	switch {
	case err == nil:
		return StatusSucceeded
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	default:
		return StatusFailed
	}
}
