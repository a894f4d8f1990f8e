package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// CheckFFmpegForYTDLP reports the ffmpeg yt-dlp will run when merging
// formats, extracting audio or embedding subtitles. yt-dlp looks next to its
// own executable before PATH, and so does this check.
func CheckFFmpegForYTDLP(ytdlpCommand string) Status {
	status := Status{
		Name:        "FFmpeg",
		Description: "merges formats, extracts audio and embeds subtitles for yt-dlp",
		Optional:    true,
	}

	if sidecar, ok := ffmpegBeside(strings.TrimSpace(ytdlpCommand)); ok {
		status.Command = sidecar
		status.Available = true
		return status
	}
	if path, err := exec.LookPath(ffmpegBinary()); err == nil {
		status.Command = path
		status.Available = true
		return status
	}
	status.Command = ffmpegBinary()
	status.Detail = fmt.Sprintf("binary %q not found", status.Command)
	return status
}

// ffmpegBeside returns the executable ffmpeg in the directory that holds the
// resolved yt-dlp, if there is one.
func ffmpegBeside(ytdlp string) (string, bool) {
	if ytdlp == "" {
		return "", false
	}
	resolved, err := exec.LookPath(ytdlp)
	if err != nil {
		return "", false
	}
	candidate := filepath.Join(filepath.Dir(resolved), ffmpegBinary())
	info, err := os.Stat(candidate)
	if err != nil || info.IsDir() {
		return "", false
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return "", false
	}
	return candidate, true
}

func ffmpegBinary() string {
	if runtime.GOOS == "windows" {
		return "ffmpeg.exe"
	}
	return "ffmpeg"
}
