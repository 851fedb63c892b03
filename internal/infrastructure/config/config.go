package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// CurrentVersion is the settings layout this build reads and writes
const CurrentVersion = 1

// Config holds all application configuration.
type Config struct {
	Version    int              `toml:"version" yaml:"version" ignored:"true"`
	Supervisor SupervisorConfig `toml:"supervisor" yaml:"supervisor"`
	Commands   CommandsConfig   `toml:"commands" yaml:"commands"`
	Console    ConsoleConfig    `toml:"console" yaml:"console"`
	Logging    LogConfig        `toml:"logging" yaml:"logging"`
	Metrics    MetricsConfig    `toml:"metrics" yaml:"metrics"`
}

// SupervisorConfig holds process supervision settings.
type SupervisorConfig struct {
	// Mode is "auto", "pty" or "pipe"
	Mode string `toml:"mode" yaml:"mode" envconfig:"BUILDWATCH_MODE"`
	// Shell is the argv prefix for command lines; platform default when empty
	Shell          []string `toml:"shell" yaml:"shell" envconfig:"BUILDWATCH_SHELL"`
	WorkDir        string   `toml:"workdir" yaml:"workdir" envconfig:"BUILDWATCH_DIR"`
	TerminateGrace Duration `toml:"terminate_grace" yaml:"terminate_grace" envconfig:"BUILDWATCH_TERMINATE_GRACE"`
	QueueCapacity  int      `toml:"queue_capacity" yaml:"queue_capacity" envconfig:"BUILDWATCH_QUEUE_CAPACITY"`
	Cols           int      `toml:"cols" yaml:"cols" envconfig:"BUILDWATCH_COLS"`
	Rows           int      `toml:"rows" yaml:"rows" envconfig:"BUILDWATCH_ROWS"`
}

// CommandsConfig holds the command lines behind the interactive presets.
type CommandsConfig struct {
	Build    string `toml:"build" yaml:"build" envconfig:"BUILDWATCH_BUILD_CMD"`
	Run      string `toml:"run" yaml:"run" envconfig:"BUILDWATCH_RUN_CMD"`
	BuildRun string `toml:"buildrun" yaml:"buildrun" envconfig:"BUILDWATCH_BUILDRUN_CMD"`
	Clean    string `toml:"clean" yaml:"clean" envconfig:"BUILDWATCH_CLEAN_CMD"`
}

// ConsoleConfig holds presentation settings.
type ConsoleConfig struct {
	PollInterval Duration `toml:"poll_interval" yaml:"poll_interval" envconfig:"BUILDWATCH_POLL_INTERVAL"`
	// WatchRefresh is the minimum interval between watch table redraws
	WatchRefresh Duration `toml:"watch_refresh" yaml:"watch_refresh" envconfig:"BUILDWATCH_WATCH_REFRESH"`
	// Format is "console" or "json"
	Format string `toml:"format" yaml:"format" envconfig:"BUILDWATCH_FORMAT"`
	// Color is "auto", "always" or "never"
	Color      string `toml:"color" yaml:"color" envconfig:"BUILDWATCH_COLOR"`
	Transcript string `toml:"transcript" yaml:"transcript" envconfig:"BUILDWATCH_TRANSCRIPT"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `toml:"level" yaml:"level" envconfig:"LOG_LEVEL"`
	Development bool   `toml:"development" yaml:"development" envconfig:"LOG_DEV"`
	File        string `toml:"file" yaml:"file" envconfig:"LOG_FILE"`
}

// MetricsConfig holds the Prometheus endpoint configuration.
type MetricsConfig struct {
	// Addr enables the /metrics endpoint when set, e.g. "127.0.0.1:9464"
	Addr string `toml:"addr" yaml:"addr" envconfig:"BUILDWATCH_METRICS_ADDR"`
}

// Load builds configuration from defaults, the optional settings file at
// path and then environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load("")
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Supervisor: SupervisorConfig{
			Mode:           "auto",
			TerminateGrace: Duration(3 * time.Second),
			QueueCapacity:  1024,
			Cols:           120,
			Rows:           40,
		},
		Commands: CommandsConfig{
			Build:    "scons",
			Run:      "scons run",
			BuildRun: "scons run",
			Clean:    "scons -c",
		},
		Console: ConsoleConfig{
			PollInterval: Duration(100 * time.Millisecond),
			WatchRefresh: Duration(time.Second),
			Format:       "console",
			Color:        "auto",
		},
		Logging: LogConfig{
			Level:       "warn",
			Development: false,
		},
	}
}

// Validate checks values that have a closed set of options.
func (c *Config) Validate() error {
	switch c.Supervisor.Mode {
	case "auto", "pty", "pipe":
	default:
		return fmt.Errorf("invalid supervisor mode %q (want auto, pty or pipe)", c.Supervisor.Mode)
	}
	switch c.Console.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid console format %q (want console or json)", c.Console.Format)
	}
	switch c.Console.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid color setting %q (want auto, always or never)", c.Console.Color)
	}
	if c.Console.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Console.PollInterval)
	}
	if c.Supervisor.QueueCapacity < 0 {
		return fmt.Errorf("queue capacity must not be negative, got %d", c.Supervisor.QueueCapacity)
	}
	return nil
}
