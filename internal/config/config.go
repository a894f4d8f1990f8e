package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directories owned by mediakit itself.
type Paths struct {
	DataDir string `toml:"data_dir"`
}

// Logging contains configuration for diagnostic log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// BGRemove contains configuration for the background remover.
type BGRemove struct {
	// PythonBinary is the interpreter that has carvekit, torch and Pillow installed.
	PythonBinary string `toml:"python_binary"`
	// Output is the default --output value.
	Output string `toml:"output"`
	// BatchSize is the default --batch-size value.
	BatchSize int `toml:"batch_size"`
	// ProbeWorkers bounds the parallel image header probes run before inference.
	ProbeWorkers int `toml:"probe_workers"`
}

// YTDLP contains configuration for the video downloader.
type YTDLP struct {
	Binary            string   `toml:"binary"`
	AutoInstall       bool     `toml:"auto_install"`
	OutputDir         string   `toml:"output_dir"`
	SubtitleLanguages []string `toml:"subtitle_languages"`
	DownloadArchive   string   `toml:"download_archive"`
	TimeoutSeconds    int      `toml:"timeout_seconds"`
}

// Config encapsulates all configuration values shared by bgremove and vidget.
//
// Configuration sections:
//   - Paths: history database and lock files
//   - Logging: log format and level
//   - BGRemove: python interpreter and defaults for the background remover
//   - YTDLP: yt-dlp executable resolution and downloader defaults
type Config struct {
	Paths    Paths    `toml:"paths"`
	Logging  Logging  `toml:"logging"`
	BGRemove BGRemove `toml:"bgremove"`
	YTDLP    YTDLP    `toml:"ytdlp"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads the configuration used by both tools. An explicit path is used
// as given; otherwise ~/.config/mediakit/config.toml is tried, then
// ./mediakit.toml. A missing file is not an error: defaults apply and exists
// is false. The returned path is the file that was (or would be) read.
func Load(path string) (cfg *Config, resolved string, exists bool, err error) {
	resolved, exists, err = locate(path)
	if err != nil {
		return nil, "", false, err
	}

	loaded := Default()
	if exists {
		if err := decodeFile(resolved, &loaded); err != nil {
			return nil, "", false, err
		}
	}
	if err := loaded.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := loaded.Validate(); err != nil {
		return nil, "", false, fmt.Errorf("%s: %w", resolved, err)
	}
	return &loaded, resolved, exists, nil
}

// decodeFile strictly decodes path into cfg. Unknown keys are reported with
// their line so typos in hand-edited files surface.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config %s: %s", path, strict.String())
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// locate picks the configuration file to read.
func locate(path string) (string, bool, error) {
	var candidates []string
	if path != "" {
		candidates = []string{path}
	} else {
		candidates = []string{defaultConfigPath, "mediakit.toml"}
	}

	resolved := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		expanded, err := expandPath(candidate)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		switch {
		case err == nil && !info.IsDir():
			return expanded, true, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		resolved = append(resolved, expanded)
	}
	return resolved[0], false, nil
}

// EnsureDirectories creates the directories mediakit writes its own state into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.LockDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the SQLite database that records runs of both tools.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// LockDir returns the directory holding per-output-directory lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.DataDir, "locks")
}

// YTDLPTimeout returns the overall yt-dlp deadline, or zero for none.
func (c *Config) YTDLPTimeout() time.Duration {
	if c.YTDLP.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.YTDLP.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	expanded, err := homedir.Expand(pathValue)
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	cleaned := filepath.Clean(expanded)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(strings.TrimSpace(pathValue))
}

func defaultDataDir() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "mediakit")
	}
	return "~/.local/share/mediakit"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
