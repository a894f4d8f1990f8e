package deps

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an executable a tool needs on PATH.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the outcome of checking one Requirement. Detail explains an
// unavailable dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries resolves each requirement's command on PATH, in order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		status := Status{
			Name:        req.Name,
			Command:     strings.TrimSpace(req.Command),
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch _, err := exec.LookPath(status.Command); {
		case status.Command == "":
			status.Detail = "command not configured"
		case err != nil:
			status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		default:
			status.Available = true
		}
		results[i] = status
	}
	return results
}

// CheckPythonModules reports whether python can import every module. The
// detail carries the interpreter's last stderr line, typically the
// ModuleNotFoundError naming the first missing package.
func CheckPythonModules(ctx context.Context, python string, modules []string) Status {
	python = strings.TrimSpace(python)
	status := Status{
		Name:        "Python modules",
		Command:     python,
		Description: strings.Join(modules, ", "),
	}
	if python == "" {
		status.Detail = "python interpreter not configured"
		return status
	}
	if _, err := exec.LookPath(python); err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", python)
		return status
	}
	if len(modules) == 0 {
		status.Available = true
		return status
	}

	cmd := exec.CommandContext(ctx, python, "-c", "import "+strings.Join(modules, ", "))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		status.Detail = lastLine(stderr.String())
		if status.Detail == "" {
			status.Detail = err.Error()
		}
		return status
	}
	status.Available = true
	return status
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
