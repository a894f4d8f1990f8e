package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"mediakit/internal/logging"
	"mediakit/internal/services"
)

// DefaultBinary is the executable name looked up on PATH.
const DefaultBinary = "yt-dlp"

// savedPrefix marks the stdout line yt-dlp prints once an item reaches its
// final path, after merging and post-processing.
const savedPrefix = "mediakit-saved:"

// ErrNotInstalled is returned when no yt-dlp executable can be resolved.
var ErrNotInstalled = errors.New("yt-dlp is not installed. Install with: pip install yt-dlp")

// Config captures runtime settings for the yt-dlp client.
type Config struct {
	// Binary is a path or a command name resolved on PATH.
	Binary string
	// AutoInstall lets Resolve download yt-dlp into the go-ytdlp cache.
	AutoInstall bool
	// Timeout bounds a single yt-dlp invocation; zero disables it.
	Timeout time.Duration
}

// Installation describes a resolved yt-dlp executable.
type Installation struct {
	Executable string `json:"executable"`
	Version    string `json:"version,omitempty"`
	Downloaded bool   `json:"downloaded"`
}

// Progress is a download progress snapshot.
type Progress struct {
	Status          string
	Filename        string
	DownloadedBytes int64
	TotalBytes      int64
	Percent         float64
}

// DownloadResult summarizes a finished download invocation.
type DownloadResult struct {
	// Files lists the final path of every saved item. Intermediate format
	// files removed by a merge or audio extraction are not included.
	Files []string
	// Failures holds yt-dlp ERROR lines for items skipped by ignoreerrors.
	Failures []string
}

type installFunc func(ctx context.Context, opts *ytdlp.InstallOptions) (*ytdlp.ResolvedInstall, error)

// Client runs yt-dlp through go-ytdlp.
type Client struct {
	cfg      Config
	logger   *slog.Logger
	lookPath func(string) (string, error)
	install  installFunc
	resolved string
}

// NewClient constructs a yt-dlp client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = DefaultBinary
	}
	return &Client{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "ytdlp"),
		lookPath: exec.LookPath,
		install:  ytdlp.Install,
	}
}

// Resolve locates the yt-dlp executable: the configured path or PATH entry
// first, then a copy cached by a previous install. With AutoInstall enabled a
// missing executable is downloaded.
func (c *Client) Resolve(ctx context.Context) (string, error) {
	if c.resolved != "" {
		return c.resolved, nil
	}
	binary := strings.TrimSpace(c.cfg.Binary)
	if strings.ContainsRune(binary, os.PathSeparator) {
		if info, err := os.Stat(binary); err == nil && !info.IsDir() {
			c.resolved = binary
			return binary, nil
		}
	} else if path, err := c.lookPath(binary); err == nil {
		c.resolved = path
		return path, nil
	}

	resolved, err := c.install(ctx, &ytdlp.InstallOptions{
		DisableDownload:      !c.cfg.AutoInstall,
		AllowVersionMismatch: true,
	})
	if err != nil || resolved == nil || resolved.Executable == "" {
		if err != nil {
			c.logger.Debug("yt-dlp resolution failed", logging.Error(err))
		}
		return "", ErrNotInstalled
	}
	if resolved.Downloaded {
		c.logger.Info("downloaded yt-dlp",
			logging.String("executable", resolved.Executable),
			logging.String("version", resolved.Version),
		)
	}
	c.resolved = resolved.Executable
	return resolved.Executable, nil
}

// Install downloads yt-dlp into the go-ytdlp cache when it is not already
// present there, regardless of AutoInstall.
func (c *Client) Install(ctx context.Context) (Installation, error) {
	resolved, err := c.install(ctx, &ytdlp.InstallOptions{AllowVersionMismatch: true})
	if err != nil {
		return Installation{}, services.Wrap(services.ErrExternalTool, "yt-dlp", "install", "", err)
	}
	if resolved == nil || resolved.Executable == "" {
		return Installation{}, ErrNotInstalled
	}
	c.resolved = resolved.Executable
	return Installation{
		Executable: resolved.Executable,
		Version:    resolved.Version,
		Downloaded: resolved.Downloaded,
	}, nil
}

// ExtractInfo fetches metadata for url without downloading media. Playlists
// are listed flat so entries are counted without resolving each video.
func (c *Client) ExtractInfo(ctx context.Context, opts Options, url string) (*Info, error) {
	exe, err := c.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	parent := ctx
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	cmd := opts.apply(ytdlp.New().SetExecutable(exe), false).
		DumpSingleJSON().
		SkipDownload().
		FlatPlaylist()
	c.logger.Debug("extracting info", logging.String("url", url))

	res, err := cmd.Run(ctx, url)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, c.contextError(parent, "extract info", ctxErr)
	}
	stdout := ""
	stderr := ""
	if res != nil {
		stdout = res.Stdout
		stderr = res.Stderr
	}
	if err != nil && strings.TrimSpace(stdout) == "" {
		return nil, services.Wrap(services.ErrExternalTool, "yt-dlp", "extract info", errorLine(stderr), err)
	}
	info, parseErr := ParseInfo([]byte(stdout))
	if parseErr != nil {
		return nil, services.Wrap(services.ErrExternalTool, "yt-dlp", "extract info", errorLine(stderr), parseErr)
	}
	return info, nil
}

// Download runs yt-dlp for url with opts. Items that fail while ignoreerrors
// is set are reported in DownloadResult.Failures rather than as an error.
func (c *Client) Download(ctx context.Context, opts Options, url string, onProgress func(Progress)) (DownloadResult, error) {
	exe, err := c.Resolve(ctx)
	if err != nil {
		return DownloadResult{}, err
	}
	parent := ctx
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	logger := c.logger
	if id, ok := services.RunIDFromContext(ctx); ok {
		logger = logger.With(logging.String(logging.FieldRunID, id))
	}

	var result DownloadResult
	cmd := opts.apply(ytdlp.New().SetExecutable(exe), true).
		Print("after_move:" + savedPrefix + "%(filepath)s").
		ProgressFunc(250*time.Millisecond, func(update ytdlp.ProgressUpdate) {
			if onProgress == nil {
				return
			}
			onProgress(Progress{
				Status:          string(update.Status),
				Filename:        update.Filename,
				DownloadedBytes: int64(update.DownloadedBytes),
				TotalBytes:      int64(update.TotalBytes),
				Percent:         update.Percent(),
			})
		})

	logger.Debug("starting download", logging.String("url", url), logging.String("format", opts.Format))
	res, err := cmd.Run(ctx, url)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, c.contextError(parent, "download", ctxErr)
	}
	if res != nil {
		result.Files = savedFiles(res.Stdout)
	}
	if err != nil {
		if res == nil || res.ExitCode <= 0 || !opts.IgnoreErrors {
			detail := ""
			if res != nil {
				detail = errorLine(res.Stderr)
			}
			return result, services.Wrap(services.ErrExternalTool, "yt-dlp", "download", detail, err)
		}
		result.Failures = errorLines(res.Stderr)
		for _, failure := range result.Failures {
			logging.WarnWithContext(logger, "yt-dlp item failed", "download_item_failed",
				logging.String("detail", failure))
		}
	}
	return result, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

// contextError reports cancellation from the caller as is and expiry of the
// client's own deadline as ErrTimeout.
func (c *Client) contextError(parent context.Context, operation string, err error) error {
	if parent.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "yt-dlp", operation, fmt.Sprintf("no result after %s", c.cfg.Timeout), err)
	}
	return err
}

// Info is the subset of yt-dlp's info dictionary mediakit reports. Pointer
// fields stay nil when yt-dlp omits the key.
type Info struct {
	ID         string            `json:"id"`
	Type       string            `json:"_type"`
	Title      *string           `json:"title"`
	Duration   *float64          `json:"duration"`
	Uploader   *string           `json:"uploader"`
	ViewCount  *int64            `json:"view_count"`
	UploadDate *string           `json:"upload_date"`
	Thumbnail  *string           `json:"thumbnail"`
	WebpageURL *string           `json:"webpage_url"`
	Entries    []json.RawMessage `json:"entries"`
}

// ParseInfo decodes the JSON printed by --dump-single-json.
func ParseInfo(data []byte) (*Info, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, errors.New("yt-dlp returned no metadata")
	}
	var info Info
	if err := json.Unmarshal([]byte(trimmed), &info); err != nil {
		return nil, fmt.Errorf("decode yt-dlp metadata: %w", err)
	}
	return &info, nil
}

// HasEntries reports whether the info describes a playlist with entries.
func (i *Info) HasEntries() bool {
	return i != nil && len(i.Entries) > 0
}

// savedFiles collects the final paths printed by the after_move template,
// in order and without duplicates.
func savedFiles(stdout string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, line := range strings.Split(stdout, "\n") {
		path, ok := strings.CutPrefix(strings.TrimSpace(line), savedPrefix)
		if !ok || path == "" {
			continue
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}
	return out
}

func errorLines(stderr string) []string {
	var out []string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "ERROR:") {
			out = append(out, line)
		}
	}
	return out
}

// errorLine picks the most useful stderr line: the last ERROR line, else the
// last non-empty line.
func errorLine(stderr string) string {
	if lines := errorLines(stderr); len(lines) > 0 {
		return lines[len(lines)-1]
	}
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
