package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "saver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "save00", cfg.Paths.WorkingDir)
	assert.Equal(t, "saves", cfg.Paths.SavesDir)
	assert.Equal(t, "autosave", cfg.Paths.BackupSlot)
	assert.Equal(t, ".", cfg.Paths.StageDir)
	assert.Equal(t, "BACK", cfg.Backup.Marker)
	assert.Equal(t, PolicyContinue, cfg.Backup.OnFailure)
	assert.Equal(t, 5, cfg.Autosave.IntervalMinutes)
	assert.Empty(t, cfg.Game.Command)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("overrides defaults field by field", func(t *testing.T) {
		path := writeConfig(t, `
paths:
  working_dir: /games/noita/save00
backup:
  on_failure: abort
autosave:
  interval_minutes: 10
game:
  command: ["steam", "steam://run/881100"]
logging:
  verbosity: verbose
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "/games/noita/save00", cfg.Paths.WorkingDir)
		assert.Equal(t, "saves", cfg.Paths.SavesDir, "unset fields keep their defaults")
		assert.Equal(t, PolicyAbort, cfg.Backup.OnFailure)
		assert.Equal(t, "BACK", cfg.Backup.Marker)
		assert.Equal(t, 10, cfg.Autosave.IntervalMinutes)
		assert.Equal(t, []string{"steam", "steam://run/881100"}, cfg.Game.Command)
		assert.Equal(t, "verbose", cfg.Logging.Verbosity)
	})

	t.Run("explicit path must exist", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("default file is optional", func(t *testing.T) {
		chdir(t, t.TempDir())

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("default file is read when present", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("paths:\n  saves_dir: snapshots\n"), 0o644))
		chdir(t, dir)

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "snapshots", cfg.Paths.SavesDir)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		path := writeConfig(t, "paths:\n  savez_dir: typo\n")

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "paths: [unterminated\n")

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty working dir", func(c *Config) { c.Paths.WorkingDir = "" }, true},
		{"empty saves dir", func(c *Config) { c.Paths.SavesDir = "" }, true},
		{"empty stage dir", func(c *Config) { c.Paths.StageDir = "" }, true},
		{"backup slot with separator", func(c *Config) { c.Paths.BackupSlot = "a/b" }, true},
		{"backup slot dot dot", func(c *Config) { c.Paths.BackupSlot = ".." }, true},
		{"empty marker", func(c *Config) { c.Backup.Marker = "" }, true},
		{"unknown policy", func(c *Config) { c.Backup.OnFailure = "retry" }, true},
		{"empty policy defaults", func(c *Config) { c.Backup.OnFailure = "" }, false},
		{"zero interval", func(c *Config) { c.Autosave.IntervalMinutes = 0 }, true},
		{"valid schedule", func(c *Config) { c.Autosave.Schedule = "*/10 * * * *" }, false},
		{"invalid schedule", func(c *Config) { c.Autosave.Schedule = "every tuesday" }, true},
		{"schedule that never fires", func(c *Config) { c.Autosave.Schedule = "0 0 30 2 *" }, true},
		{"invalid verbosity", func(c *Config) { c.Logging.Verbosity = "loud" }, true},
		{"working inside saves", func(c *Config) { c.Paths.WorkingDir = "saves/live" }, true},
		{"saves inside working", func(c *Config) { c.Paths.SavesDir = "save00/saves" }, true},
		{"same directory", func(c *Config) { c.Paths.SavesDir = "save00" }, true},
		{"stage inside working", func(c *Config) { c.Paths.StageDir = "save00/tmp" }, true},
		{"stage inside a save slot", func(c *Config) { c.Paths.StageDir = "saves/one" }, true},
		{"stage is saves dir", func(c *Config) { c.Paths.StageDir = "saves" }, true},
		{"stage beside saves", func(c *Config) { c.Paths.StageDir = "tmp" }, false},
		{"similar prefix is fine", func(c *Config) { c.Paths.SavesDir = "save00-saves" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateFillsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backup.OnFailure = ""
	cfg.Logging.Verbosity = ""

	require.NoError(t, cfg.Validate())
	assert.Equal(t, PolicyContinue, cfg.Backup.OnFailure)
	assert.Equal(t, "normal", cfg.Logging.Verbosity)
}

func TestConfig_Resolve(t *testing.T) {
	base := t.TempDir()
	abs := filepath.Join(t.TempDir(), "elsewhere")

	cfg := DefaultConfig()
	cfg.Paths.StageDir = abs
	cfg.Resolve(base)

	assert.Equal(t, filepath.Join(base, "save00"), cfg.Paths.WorkingDir)
	assert.Equal(t, filepath.Join(base, "saves"), cfg.Paths.SavesDir)
	assert.Equal(t, abs, cfg.Paths.StageDir)
	assert.Equal(t, filepath.Join(base, "saves", "autosave"), cfg.BackupDir())
}

func TestConfig_Schedule(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("fixed interval", func(t *testing.T) {
		sched, err := DefaultConfig().Schedule()
		require.NoError(t, err)
		assert.Equal(t, start.Add(5*time.Minute), sched.Next(start))
	})

	t.Run("cron expression wins over interval", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Autosave.Schedule = "30 * * * *"

		sched, err := cfg.Schedule()
		require.NoError(t, err)
		assert.Equal(t, start.Add(30*time.Minute), sched.Next(start))
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Autosave.IntervalMinutes = 0

		_, err := cfg.Schedule()
		assert.Error(t, err)
	})
}

func TestEvery(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	sched, err := Every(7)
	require.NoError(t, err)
	assert.Equal(t, start.Add(7*time.Minute), sched.Next(start))

	for _, minutes := range []int{0, -1} {
		_, err := Every(minutes)
		assert.Error(t, err, "minutes=%d", minutes)
	}
}

// chdir changes the working directory for the duration of the test,
// equivalent to testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
