package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that reads and writes as text ("250ms", "3s")
// in settings files and environment variables.
type Duration time.Duration

// Std returns the standard library duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// legacyFields are keys of older settings layouts that migrations consume
type legacyFields struct {
	Version int    `toml:"version" yaml:"version"`
	Exe     string `toml:"exe" yaml:"exe"`
}

type decodeFunc func(data []byte, v any) error

func decoderFor(path string) (decodeFunc, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal, nil
	case ".yaml", ".yml":
		return yaml.Unmarshal, nil
	default:
		return nil, fmt.Errorf("unsupported settings file %q (want .toml, .yaml or .yml)", path)
	}
}

func loadFile(path string, cfg *Config) error {
	decode, err := decoderFor(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	if err := decode(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var legacy legacyFields
	if err := decode(data, &legacy); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.Version = legacy.Version

	return Migrate(cfg, legacy)
}

// migrations[v] upgrades a version v layout to v+1
var migrations = map[int]func(*Config, legacyFields){
	0: migrateV0,
}

// Migrate upgrades cfg in place to CurrentVersion.
func Migrate(cfg *Config, legacy legacyFields) error {
	if cfg.Version > CurrentVersion {
		return fmt.Errorf("settings version %d is newer than supported version %d", cfg.Version, CurrentVersion)
	}
	for cfg.Version < CurrentVersion {
		step, ok := migrations[cfg.Version]
		if !ok {
			return fmt.Errorf("no migration from settings version %d", cfg.Version)
		}
		step(cfg, legacy)
		cfg.Version++
	}
	return nil
}

// migrateV0 handles unversioned files, which only knew the single program
// command as a top-level "exe" key.
func migrateV0(cfg *Config, legacy legacyFields) {
	if legacy.Exe != "" {
		cfg.Commands.Run = legacy.Exe
	}
}

// Encode renders cfg as TOML, the canonical settings format.
func Encode(cfg *Config) ([]byte, error) {
	return toml.Marshal(cfg)
}
