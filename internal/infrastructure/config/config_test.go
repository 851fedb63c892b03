package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	// Supervisor config
	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, "auto", cfg.Supervisor.Mode)
	assert.Equal(t, 3*time.Second, cfg.Supervisor.TerminateGrace.Std())
	assert.Equal(t, 1024, cfg.Supervisor.QueueCapacity)

	// Command presets
	assert.Equal(t, "scons", cfg.Commands.Build)
	assert.Equal(t, "scons run", cfg.Commands.Run)
	assert.Equal(t, "scons run", cfg.Commands.BuildRun)
	assert.Equal(t, "scons -c", cfg.Commands.Clean)

	// Console config
	assert.Equal(t, 100*time.Millisecond, cfg.Console.PollInterval.Std())
	assert.Equal(t, "console", cfg.Console.Format)
	assert.Equal(t, "auto", cfg.Console.Color)

	// Logging config
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	assert.NoError(t, cfg.Validate())
}

func TestLoadOrDefault(t *testing.T) {
	// Should return default when no env vars set
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "scons", cfg.Commands.Build)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"BUILDWATCH_MODE":            "pipe",
		"BUILDWATCH_SHELL":           "/bin/bash,-lc",
		"BUILDWATCH_DIR":             "/src/game",
		"BUILDWATCH_TERMINATE_GRACE": "750ms",
		"BUILDWATCH_QUEUE_CAPACITY":  "64",
		"BUILDWATCH_BUILD_CMD":       "make -j8",
		"BUILDWATCH_RUN_CMD":         "./bin/game",
		"BUILDWATCH_POLL_INTERVAL":   "50ms",
		"BUILDWATCH_FORMAT":          "json",
		"BUILDWATCH_COLOR":           "never",
		"LOG_LEVEL":                  "debug",
		"LOG_DEV":                    "true",
		"BUILDWATCH_METRICS_ADDR":    "127.0.0.1:9464",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "pipe", cfg.Supervisor.Mode)
	assert.Equal(t, []string{"/bin/bash", "-lc"}, cfg.Supervisor.Shell)
	assert.Equal(t, "/src/game", cfg.Supervisor.WorkDir)
	assert.Equal(t, 750*time.Millisecond, cfg.Supervisor.TerminateGrace.Std())
	assert.Equal(t, 64, cfg.Supervisor.QueueCapacity)
	assert.Equal(t, "make -j8", cfg.Commands.Build)
	assert.Equal(t, "./bin/game", cfg.Commands.Run)
	assert.Equal(t, 50*time.Millisecond, cfg.Console.PollInterval.Std())
	assert.Equal(t, "json", cfg.Console.Format)
	assert.Equal(t, "never", cfg.Console.Color)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "127.0.0.1:9464", cfg.Metrics.Addr)

	// Untouched values keep their defaults
	assert.Equal(t, "scons -c", cfg.Commands.Clean)
}

func TestLoadTOMLFile(t *testing.T) {
	path := writeFile(t, "buildwatch.toml", `
version = 1

[supervisor]
mode = "pty"
terminate_grace = "5s"

[commands]
build = "ninja -C out"

[console]
poll_interval = "250ms"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "pty", cfg.Supervisor.Mode)
	assert.Equal(t, 5*time.Second, cfg.Supervisor.TerminateGrace.Std())
	assert.Equal(t, "ninja -C out", cfg.Commands.Build)
	assert.Equal(t, 250*time.Millisecond, cfg.Console.PollInterval.Std())

	// Keys absent from the file keep their defaults
	assert.Equal(t, 1024, cfg.Supervisor.QueueCapacity)
	assert.Equal(t, "scons run", cfg.Commands.Run)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadYAMLFile(t *testing.T) {
	path := writeFile(t, "buildwatch.yaml", `
version: 1
commands:
  build: cargo build
  run: cargo run
  buildrun: cargo run
  clean: cargo clean
logging:
  level: info
  development: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "cargo build", cfg.Commands.Build)
	assert.Equal(t, "cargo clean", cfg.Commands.Clean)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "auto", cfg.Supervisor.Mode)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "buildwatch.toml", `
version = 1
[commands]
build = "from-file"
`)
	t.Setenv("BUILDWATCH_BUILD_CMD", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Commands.Build)
}

func TestMigrateUnversionedFile(t *testing.T) {
	path := writeFile(t, "legacy.toml", `
exe = "bin/game --windowed"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, "bin/game --windowed", cfg.Commands.Run)
	assert.Equal(t, "scons", cfg.Commands.Build)
}

func TestMigrateRejectsNewerVersion(t *testing.T) {
	path := writeFile(t, "future.toml", "version = 99\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"unknown extension", "settings.ini", "x=1", "unsupported settings file"},
		{"broken toml", "broken.toml", "[supervisor\nmode=", "failed to parse"},
		{"invalid mode", "mode.toml", "version = 1\n[supervisor]\nmode = \"socket\"\n", "invalid supervisor mode"},
		{"invalid format", "fmt.toml", "version = 1\n[console]\nformat = \"xml\"\n", "invalid console format"},
		{"bad duration", "dur.toml", "version = 1\n[console]\npoll_interval = \"soon\"\n", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "failed to read settings")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"never color", func(c *Config) { c.Console.Color = "never" }, true},
		{"bad color", func(c *Config) { c.Console.Color = "rainbow" }, false},
		{"zero poll", func(c *Config) { c.Console.PollInterval = 0 }, false},
		{"negative queue", func(c *Config) { c.Supervisor.QueueCapacity = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Commands.Build = "make"
	cfg.Supervisor.Shell = []string{"/bin/bash", "-c"}

	data, err := Encode(cfg)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `poll_interval = '100ms'`) ||
		strings.Contains(string(data), `poll_interval = "100ms"`), string(data))

	path := writeFile(t, "encoded.toml", string(data))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte(" 1m30s ")))
	assert.Equal(t, 90*time.Second, d.Std())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("ninety")))
}
