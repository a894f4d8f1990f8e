package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateBGRemove(); err != nil {
		return err
	}
	if err := c.validateYTDLP(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q (use debug, info, warn or error)", c.Logging.Level)
	}
}

func (c *Config) validateBGRemove() error {
	if c.BGRemove.BatchSize < 1 {
		return errors.New("bgremove.batch_size must be positive")
	}
	if c.BGRemove.ProbeWorkers < 1 {
		return errors.New("bgremove.probe_workers must be positive")
	}
	return nil
}

func (c *Config) validateYTDLP() error {
	if c.YTDLP.TimeoutSeconds < 0 {
		return errors.New("ytdlp.timeout_seconds must be >= 0")
	}
	if len(c.YTDLP.SubtitleLanguages) == 0 {
		return errors.New("ytdlp.subtitle_languages must include at least one language")
	}
	return nil
}
