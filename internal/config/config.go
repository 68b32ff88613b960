// Package config loads burrow's settings.
//
// Settings come from built-in defaults, then a YAML or TOML file, then
// BURROW_* environment variables, each overriding the one before. A
// Watcher reloads the file when it changes.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/dshills/burrow/internal/input/key"
	"github.com/dshills/burrow/internal/layout"
	"github.com/dshills/burrow/internal/logging"
	"github.com/dshills/burrow/internal/theme"
)

// Config holds every setting.
type Config struct {
	// SplitView is off, vertical or horizontal.
	SplitView      string `yaml:"split_view" toml:"split_view"`
	SplitThreshold int    `yaml:"split_threshold" toml:"split_threshold"`
	Mouse          bool   `yaml:"mouse" toml:"mouse"`

	// PollInterval is the delay between background polls. Zero disables
	// polling.
	PollInterval   Duration `yaml:"poll_interval" toml:"poll_interval"`
	GetchTimeoutMS int      `yaml:"getch_timeout_ms" toml:"getch_timeout_ms"`
	CancelKey      string   `yaml:"cancel_key" toml:"cancel_key"`

	HooksDir string `yaml:"hooks_dir" toml:"hooks_dir"`
	SpoolDir string `yaml:"spool_dir" toml:"spool_dir"`

	LogFile       string `yaml:"log_file" toml:"log_file"`
	LogLevel      string `yaml:"log_level" toml:"log_level"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb" toml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups" toml:"log_max_backups"`

	Colors map[string]theme.Spec `yaml:"colors" toml:"colors"`
	Labels Labels                `yaml:"labels" toml:"labels"`
}

// Labels configures label completion.
type Labels struct {
	Reserved []string `yaml:"reserved" toml:"reserved"`
	User     []string `yaml:"user" toml:"user"`
}

// Dir returns burrow's configuration directory: $BURROW_DIR, else
// $XDG_CONFIG_HOME/burrow, else ~/.config/burrow.
func Dir() string {
	if d := os.Getenv("BURROW_DIR"); d != "" {
		return d
	}
	if d, err := os.UserConfigDir(); err == nil {
		return filepath.Join(d, "burrow")
	}
	return ".burrow"
}

// DefaultPath is the config file looked for when none is given: the
// first of config.yaml, config.yml and config.toml that exists, else
// config.yaml.
func DefaultPath() string {
	dir := Dir()
	for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(dir, "config.yaml")
}

// Default returns the built-in settings.
func Default() *Config {
	dir := Dir()
	return &Config{
		SplitView:      "off",
		Mouse:          true,
		PollInterval:   Duration(300 * time.Second),
		GetchTimeoutMS: 500,
		CancelKey:      "C-g",
		HooksDir:       filepath.Join(dir, "hooks"),
		LogFile:        filepath.Join(dir, "log", "burrow.log"),
		LogLevel:       "info",
		LogMaxSizeMB:   10,
		LogMaxBackups:  3,
		Labels: Labels{
			Reserved: []string{"attachment", "deleted", "draft", "inbox", "killed", "replied", "sent", "spam", "starred", "unread"},
		},
	}
}

// Validate checks every setting, joining all failures.
func (c *Config) Validate() error {
	var errs []error
	if _, err := layout.ParseSplitMode(c.SplitView); err != nil {
		errs = append(errs, &ValidationError{Setting: "split_view", Message: err.Error()})
	}
	if c.SplitThreshold < 0 {
		errs = append(errs, &ValidationError{Setting: "split_threshold", Message: "must not be negative"})
	}
	if c.PollInterval < 0 {
		errs = append(errs, &ValidationError{Setting: "poll_interval", Message: "must not be negative"})
	}
	if c.GetchTimeoutMS <= 0 {
		errs = append(errs, &ValidationError{Setting: "getch_timeout_ms", Message: "must be positive"})
	}
	if _, err := key.Parse(c.CancelKey); err != nil {
		errs = append(errs, &ValidationError{Setting: "cancel_key", Message: err.Error()})
	}
	if _, err := theme.New(c.Colors); err != nil {
		errs = append(errs, &ValidationError{Setting: "colors", Message: err.Error()})
	}
	return errors.Join(errs...)
}

// LayoutSettings returns the split policy. An invalid split_view means
// no split.
func (c *Config) LayoutSettings() layout.Settings {
	split, _ := layout.ParseSplitMode(c.SplitView)
	return layout.Settings{Split: split, Threshold: c.SplitThreshold}
}

// Cancel returns the parsed cancel key, Ctrl-G when unset or invalid.
func (c *Config) Cancel() key.Event {
	if k, err := key.Parse(c.CancelKey); err == nil {
		return k
	}
	return key.Ctrl('g')
}

// GetchTimeout returns the keystroke wait as a duration.
func (c *Config) GetchTimeout() time.Duration {
	return time.Duration(c.GetchTimeoutMS) * time.Millisecond
}

// Level returns the parsed log level.
func (c *Config) Level() logging.Level {
	return logging.ParseLevel(c.LogLevel)
}

// LogFileConfig returns the rotation settings for the log file.
func (c *Config) LogFileConfig() logging.FileConfig {
	return logging.FileConfig{
		Path:       c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	if c.Colors != nil {
		out.Colors = make(map[string]theme.Spec, len(c.Colors))
		for k, v := range c.Colors {
			v.Attrs = slices.Clone(v.Attrs)
			out.Colors[k] = v
		}
	}
	out.Labels.Reserved = slices.Clone(c.Labels.Reserved)
	out.Labels.User = slices.Clone(c.Labels.User)
	return &out
}
