// Package config handles the XDG configuration directory, its file paths and
// the optional config.toml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"tazq/internal/backend/writebehind"
)

const (
	// AppName is the application directory name.
	AppName = "tazq"

	// ConfigFile is the optional settings filename.
	ConfigFile = "config.toml"

	// TasksFile is the default task document filename.
	TasksFile = "tasks.json"

	// UndoFile holds the last deleted task.
	UndoFile = "undo.json"
)

// ErrInvalidConfig indicates config.toml could not be used.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// DataFile overrides the task document path.
	DataFile string

	// LogLevel is one of debug, info, warn, error. Empty means warn.
	LogLevel string

	// Save controls write-behind retries.
	Save writebehind.RetryConfig

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// fileConfig mirrors config.toml.
type fileConfig struct {
	DataFile string `toml:"data_file"`
	LogLevel string `toml:"log_level"`
	Save     struct {
		MaxAttempts       int     `toml:"max_attempts"`
		InitialIntervalMS int     `toml:"initial_interval_ms"`
		MaxIntervalMS     int     `toml:"max_interval_ms"`
		Multiplier        float64 `toml:"multiplier"`
	} `toml:"save"`
}

// New creates a Config with the default or specified config directory and
// applies config.toml from that directory if present.
// If configDir is empty, uses XDG_CONFIG_HOME/tazq or $HOME/.config/tazq.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{
		Dir:  dir,
		Save: writebehind.DefaultRetryConfig(),
	}
	if err := cfg.load(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func (c *Config) load() error {
	var fc fileConfig
	md, err := toml.DecodeFile(c.ConfigPath(), &fc)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, c.ConfigPath(), err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("%w: %s: unknown key %s", ErrInvalidConfig, c.ConfigPath(), undecoded[0])
	}

	if fc.DataFile != "" {
		c.DataFile = expandHome(fc.DataFile)
	}
	if fc.LogLevel != "" {
		level := strings.ToLower(fc.LogLevel)
		switch level {
		case "debug", "info", "warn", "error":
			c.LogLevel = level
		default:
			return fmt.Errorf("%w: %s: unknown log_level %q", ErrInvalidConfig, c.ConfigPath(), fc.LogLevel)
		}
	}

	save := fc.Save
	if save.MaxAttempts < 0 || save.InitialIntervalMS < 0 || save.MaxIntervalMS < 0 || save.Multiplier < 0 {
		return fmt.Errorf("%w: %s: save settings must not be negative", ErrInvalidConfig, c.ConfigPath())
	}
	if save.MaxAttempts > 0 {
		c.Save.MaxAttempts = save.MaxAttempts
	}
	if save.InitialIntervalMS > 0 {
		c.Save.InitialInterval = time.Duration(save.InitialIntervalMS) * time.Millisecond
	}
	if save.MaxIntervalMS > 0 {
		c.Save.MaxInterval = time.Duration(save.MaxIntervalMS) * time.Millisecond
	}
	if save.Multiplier > 0 {
		c.Save.Multiplier = save.Multiplier
	}
	return nil
}

// ConfigPath returns the path to config.toml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// TasksPath returns the path to the task document.
func (c *Config) TasksPath() string {
	if c.DataFile != "" {
		return c.DataFile
	}
	return filepath.Join(c.Dir, TasksFile)
}

// UndoPath returns the path to the undo record.
func (c *Config) UndoPath() string {
	return filepath.Join(c.Dir, UndoFile)
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
