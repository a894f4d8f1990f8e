package preflight

import (
	"context"

	"mediakit/internal/config"
	"mediakit/internal/history"
	"mediakit/internal/logging"
	"mediakit/internal/services/carvekit"
	"mediakit/internal/services/ytdlp"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string
	Passed  bool
	Warning bool
	Detail  string
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}

// RunAll executes the checks relevant to tool (history.ToolBGRemove or
// history.ToolVidget) for the given config.
func RunAll(ctx context.Context, cfg *config.Config, tool string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Data directory (always checked)
	results = append(results, CheckCreatableDirectory("Data directory", cfg.Paths.DataDir))

	switch tool {
	case history.ToolBGRemove:
		if output, err := config.ExpandPath(cfg.BGRemove.Output); err == nil {
			results = append(results, CheckCreatableDirectory("Output directory", output))
		}
		svc := carvekit.NewService(cfg.BGRemove.PythonBinary, logging.NewNop())
		pyResult := CheckPython(svc.Python())
		results = append(results, pyResult)
		if !pyResult.Passed {
			break
		}
		modResult := CheckPythonModules(ctx, svc.Python())
		results = append(results, modResult)
		if modResult.Passed {
			results = append(results, CheckCarveKit(ctx, svc))
		}
	case history.ToolVidget:
		if output, err := config.ExpandPath(cfg.YTDLP.OutputDir); err == nil {
			results = append(results, CheckCreatableDirectory("Output directory", output))
		}
		client := ytdlp.NewClient(ytdlp.Config{
			Binary:      cfg.YTDLP.Binary,
			AutoInstall: false,
		}, logging.NewNop())
		ytResult := CheckYTDLP(ctx, client)
		results = append(results, ytResult)
		if ytResult.Passed {
			results = append(results, CheckFFmpeg(ytResult.Detail))
		}
	}

	return results
}
