package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"mediakit/internal/deps"
	"mediakit/internal/services/carvekit"
	"mediakit/internal/services/ytdlp"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCreatableDirectory passes when path is an accessible directory or
// can be created under its nearest existing ancestor. Output directories are
// created on demand, so a missing one is not a failure.
func CheckCreatableDirectory(name, path string) Result {
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}
	ancestor := filepath.Dir(path)
	for {
		if info, err := os.Stat(ancestor); err == nil {
			if !info.IsDir() {
				return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s is not a directory)", path, ancestor)}
			}
			break
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			break
		}
		ancestor = parent
	}
	if err := unix.Access(ancestor, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, ancestor, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckPython verifies that the configured interpreter is on PATH.
func CheckPython(python string) Result {
	status := deps.CheckBinaries([]deps.Requirement{{
		Name:        "Python",
		Command:     python,
		Description: "runs the CarveKit driver",
	}})[0]
	if !status.Available {
		return Result{Name: status.Name, Detail: status.Detail}
	}
	return Result{Name: status.Name, Passed: true, Detail: status.Command}
}

// CheckPythonModules verifies that the interpreter can import the driver's
// Python dependencies without loading any models.
func CheckPythonModules(ctx context.Context, python string) Result {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	status := deps.CheckPythonModules(ctx, python, carvekit.RequiredModules)
	if !status.Available {
		return Result{Name: status.Name, Detail: status.Detail + " (" + strings.Join(carvekit.InstallHints(), "; ") + ")"}
	}
	return Result{Name: status.Name, Passed: true, Detail: status.Description}
}

// CheckCarveKit verifies that the interpreter can import the background
// removal stack and reports the device CarveKit would use.
func CheckCarveKit(ctx context.Context, svc *carvekit.Service) Result {
	const name = "CarveKit"

	checkCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	runtime, err := svc.Probe(checkCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{Name: name, Detail: "probe timed out (python unresponsive)"}
		}
		detail := err.Error()
		if errors.Is(err, carvekit.ErrUnavailable) {
			detail += " (" + strings.Join(carvekit.InstallHints(), "; ") + ")"
		}
		return Result{Name: name, Detail: detail}
	}
	device := "cpu"
	if runtime.CUDAAvailable {
		device = "cuda"
		if runtime.CUDADevice != "" {
			device += " " + runtime.CUDADevice
		}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("carvekit %s, torch %s, python %s, device %s",
			runtime.CarveKitVersion, runtime.TorchVersion, runtime.Python, device),
	}
}

// CheckYTDLP verifies that a yt-dlp executable can be resolved.
func CheckYTDLP(ctx context.Context, client *ytdlp.Client) Result {
	const name = "yt-dlp"

	exe, err := client.Resolve(ctx)
	if err != nil {
		return Result{Name: name, Detail: err.Error() + " (or run `vidget install`)"}
	}
	return Result{Name: name, Passed: true, Detail: exe}
}

// CheckFFmpeg reports whether yt-dlp can find ffmpeg for merging and audio
// extraction. A missing ffmpeg only limits formats, so the result passes
// with a warning detail.
func CheckFFmpeg(ytdlpExecutable string) Result {
	status := deps.CheckFFmpegForYTDLP(ytdlpExecutable)
	if !status.Available {
		return Result{Name: status.Name, Passed: true, Warning: true, Detail: status.Detail + " (merging and audio extraction unavailable)"}
	}
	return Result{Name: status.Name, Passed: true, Detail: status.Command}
}
