package cli

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mediakit/internal/config"
	"mediakit/internal/history"
	"mediakit/internal/logging"
)

// CommandContext lazily loads configuration and the logger for one tool.
type CommandContext struct {
	Tool string

	configFlag string
	verbose    bool
	logWriter  io.Writer

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

// NewCommandContext creates the context for tool (history.ToolBGRemove or
// history.ToolVidget).
func NewCommandContext(tool string) *CommandContext {
	return &CommandContext{Tool: tool}
}

// EnsureConfig loads the configuration once and creates mediakit's own
// directories.
func (c *CommandContext) EnsureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ConfigPath returns the --config value.
func (c *CommandContext) ConfigPath() string {
	return strings.TrimSpace(c.configFlag)
}

// Verbose reports whether --verbose was given.
func (c *CommandContext) Verbose() bool {
	return c.verbose
}

// Logger returns the diagnostic logger. It writes to the command's stderr.
func (c *CommandContext) Logger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.EnsureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		level := cfg.Logging.Level
		if c.verbose {
			level = "debug"
		}
		writer := c.logWriter
		if writer == nil {
			writer = os.Stderr
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:  level,
			Format: cfg.Logging.Format,
			Writer: writer,
		})
		if c.loggerErr == nil {
			c.logger = c.logger.With(logging.String("tool", c.Tool))
		}
	})
	return c.logger, c.loggerErr
}

// OpenHistory opens the run history database.
func (c *CommandContext) OpenHistory() (*history.Store, error) {
	cfg, err := c.EnsureConfig()
	if err != nil {
		return nil, err
	}
	return history.Open(cfg)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
