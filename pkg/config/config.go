// Package config loads the saver configuration: where the working directory,
// the saves and the backup slot live, how backups behave and how the game is
// launched. Every field has a default, so a configuration file is optional.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up in the current directory.
const DefaultFile = "saver.yaml"

// BackupPolicy decides what load does when backing up current progress fails.
type BackupPolicy string

const (
	// PolicyContinue restores the requested save even if the backup failed
	PolicyContinue BackupPolicy = "continue"
	// PolicyAbort stops before the restore when the backup failed
	PolicyAbort BackupPolicy = "abort"
)

// Config is the complete saver configuration
type Config struct {
	Paths    PathsConfig    `yaml:"paths"`
	Backup   BackupConfig   `yaml:"backup"`
	Autosave AutosaveConfig `yaml:"autosave"`
	Game     GameConfig     `yaml:"game"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PathsConfig locates the directories saver works on. Relative paths are
// resolved against the directory saver runs in.
type PathsConfig struct {
	// Live game progress, written by the game itself
	WorkingDir string `yaml:"working_dir"`
	// Container for all named saves and the backup slot
	SavesDir string `yaml:"saves_dir"`
	// Name of the backup slot inside SavesDir
	BackupSlot string `yaml:"backup_slot"`
	// Where transfers stage their copies before renaming them into place
	StageDir string `yaml:"stage_dir"`
}

// BackupConfig controls the backup-on-overwrite safety net
type BackupConfig struct {
	Marker    string       `yaml:"marker"`
	OnFailure BackupPolicy `yaml:"on_failure"`
}

// AutosaveConfig controls the autosave loop
type AutosaveConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
	// Optional cron expression; overrides IntervalMinutes when set
	Schedule string `yaml:"schedule"`
}

// GameConfig describes how to launch the game. An empty command means the
// platform default.
type GameConfig struct {
	Command []string `yaml:"command"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls console output: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			WorkingDir: "save00",
			SavesDir:   "saves",
			BackupSlot: "autosave",
			StageDir:   ".",
		},
		Backup: BackupConfig{
			Marker:    "BACK",
			OnFailure: PolicyContinue,
		},
		Autosave: AutosaveConfig{
			IntervalMinutes: 5,
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}

// Load reads the configuration at path on top of the defaults. An empty path
// means DefaultFile, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	optional := path == ""
	if optional {
		path = DefaultFile
	}

	file, err := os.Open(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Paths.WorkingDir == "" {
		return fmt.Errorf("paths.working_dir is required")
	}
	if c.Paths.SavesDir == "" {
		return fmt.Errorf("paths.saves_dir is required")
	}
	if c.Paths.StageDir == "" {
		return fmt.Errorf("paths.stage_dir is required")
	}
	if !isSegment(c.Paths.BackupSlot) {
		return fmt.Errorf("invalid paths.backup_slot %q: must be a single directory name", c.Paths.BackupSlot)
	}

	if !isSegment(c.Backup.Marker) {
		return fmt.Errorf("invalid backup.marker %q: must be a single directory name", c.Backup.Marker)
	}
	if c.Backup.OnFailure == "" {
		c.Backup.OnFailure = PolicyContinue
	}
	if c.Backup.OnFailure != PolicyContinue && c.Backup.OnFailure != PolicyAbort {
		return fmt.Errorf("invalid backup.on_failure: %s (must be 'continue' or 'abort')", c.Backup.OnFailure)
	}

	if c.Autosave.IntervalMinutes < 1 {
		return fmt.Errorf("autosave.interval_minutes must be at least 1")
	}
	if c.Autosave.Schedule != "" {
		sched, err := cron.ParseStandard(c.Autosave.Schedule)
		if err != nil {
			return fmt.Errorf("invalid autosave.schedule: %w", err)
		}
		if sched.Next(time.Now()).IsZero() {
			return fmt.Errorf("invalid autosave.schedule %q: never fires", c.Autosave.Schedule)
		}
	}

	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}

	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	working, err := filepath.Abs(c.Paths.WorkingDir)
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}
	saves, err := filepath.Abs(c.Paths.SavesDir)
	if err != nil {
		return fmt.Errorf("failed to resolve saves directory: %w", err)
	}
	if overlaps(working, saves) {
		return fmt.Errorf("working directory %s and saves directory %s must not contain each other", working, saves)
	}
	stage, err := filepath.Abs(c.Paths.StageDir)
	if err != nil {
		return fmt.Errorf("failed to resolve stage directory: %w", err)
	}
	if within(working, stage) {
		return fmt.Errorf("stage directory %s must not be inside the working directory", stage)
	}
	if within(saves, stage) {
		return fmt.Errorf("stage directory %s must not be inside the saves directory", stage)
	}

	return nil
}

// Resolve makes every path absolute relative to base.
func (c *Config) Resolve(base string) {
	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}

	c.Paths.WorkingDir = abs(c.Paths.WorkingDir)
	c.Paths.SavesDir = abs(c.Paths.SavesDir)
	c.Paths.StageDir = abs(c.Paths.StageDir)
}

// BackupDir returns the path of the backup slot.
func (c *Config) BackupDir() string {
	return filepath.Join(c.Paths.SavesDir, c.Paths.BackupSlot)
}

// Schedule returns the configured autosave schedule: the cron expression when
// one is set, otherwise a fixed delay of IntervalMinutes.
func (c *Config) Schedule() (cron.Schedule, error) {
	if c.Autosave.Schedule != "" {
		return cron.ParseStandard(c.Autosave.Schedule)
	}
	return Every(c.Autosave.IntervalMinutes)
}

// Every returns a schedule that activates every minutes minutes.
func Every(minutes int) (cron.Schedule, error) {
	if minutes < 1 {
		return nil, fmt.Errorf("autosave interval must be at least 1 minute, got %d", minutes)
	}
	return cron.Every(time.Duration(minutes) * time.Minute), nil
}

func isSegment(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

func overlaps(a, b string) bool {
	return within(a, b) || within(b, a)
}

// within reports whether path is root or lies beneath it
func within(root, path string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}
