package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBGRemove()
	if err := c.normalizeYTDLP(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir()
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBGRemove() {
	if value, ok := os.LookupEnv("MEDIAKIT_PYTHON"); ok && strings.TrimSpace(value) != "" {
		c.BGRemove.PythonBinary = strings.TrimSpace(value)
	}
	c.BGRemove.PythonBinary = strings.TrimSpace(c.BGRemove.PythonBinary)
	if c.BGRemove.PythonBinary == "" {
		c.BGRemove.PythonBinary = defaultPythonBinary
	}
	c.BGRemove.Output = strings.TrimSpace(c.BGRemove.Output)
	if c.BGRemove.Output == "" {
		c.BGRemove.Output = defaultBGRemoveOutput
	}
	if c.BGRemove.BatchSize == 0 {
		c.BGRemove.BatchSize = defaultBatchSize
	}
	if c.BGRemove.ProbeWorkers <= 0 {
		c.BGRemove.ProbeWorkers = defaultProbeWorkers
	}
}

func (c *Config) normalizeYTDLP() error {
	if value, ok := os.LookupEnv("MEDIAKIT_YTDLP_PATH"); ok && strings.TrimSpace(value) != "" {
		c.YTDLP.Binary = strings.TrimSpace(value)
	}
	c.YTDLP.Binary = strings.TrimSpace(c.YTDLP.Binary)
	if c.YTDLP.Binary == "" {
		c.YTDLP.Binary = defaultYTDLPBinary
	}
	c.YTDLP.OutputDir = strings.TrimSpace(c.YTDLP.OutputDir)
	if c.YTDLP.OutputDir == "" {
		c.YTDLP.OutputDir = defaultYTDLPOutputDir
	}
	if archive := strings.TrimSpace(c.YTDLP.DownloadArchive); archive != "" {
		expanded, err := expandPath(archive)
		if err != nil {
			return fmt.Errorf("ytdlp.download_archive: %w", err)
		}
		c.YTDLP.DownloadArchive = expanded
	}

	langs := make([]string, 0, len(c.YTDLP.SubtitleLanguages))
	seen := make(map[string]struct{}, len(c.YTDLP.SubtitleLanguages))
	for _, lang := range c.YTDLP.SubtitleLanguages {
		trimmed := strings.TrimSpace(lang)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		langs = append(langs, trimmed)
	}
	if len(langs) == 0 {
		langs = append(langs, DefaultSubtitleLanguages...)
	}
	c.YTDLP.SubtitleLanguages = langs
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
