package supervisor

import (
	"time"

	"github.com/GriffinCanCode/buildwatch/internal/domain/process"
	"github.com/GriffinCanCode/buildwatch/internal/infrastructure/config"
)

// Config holds per-supervisor settings
type Config struct {
	Mode  process.Mode
	Shell []string
	// Dir and Env apply to commands that don't set their own
	Dir string
	Env []string
	// Size is reported to children on a pseudo-terminal
	Size process.Size
	// TerminateGrace is how long Stop waits before escalating to a kill
	TerminateGrace time.Duration
	QueueCapacity  int
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Mode:           process.ModeAuto,
		Size:           process.Size{Cols: 120, Rows: 40},
		TerminateGrace: 3 * time.Second,
		QueueCapacity:  1024,
	}
}

// ConfigFromSettings converts the settings file section into a Config
func ConfigFromSettings(s config.SupervisorConfig) (Config, error) {
	mode, err := process.ParseMode(s.Mode)
	if err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	cfg.Mode = mode
	cfg.Shell = append([]string(nil), s.Shell...)
	cfg.Dir = s.WorkDir
	if s.TerminateGrace > 0 {
		cfg.TerminateGrace = s.TerminateGrace.Std()
	}
	if s.QueueCapacity > 0 {
		cfg.QueueCapacity = s.QueueCapacity
	}
	if s.Cols > 0 && s.Rows > 0 {
		cfg.Size = process.Size{Cols: s.Cols, Rows: s.Rows}
	}
	return cfg, nil
}
