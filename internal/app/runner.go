package app

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/buildwatch/internal/domain/process"
	"github.com/GriffinCanCode/buildwatch/internal/domain/router"
	"github.com/GriffinCanCode/buildwatch/internal/domain/supervisor"
	"github.com/GriffinCanCode/buildwatch/internal/infrastructure/config"
	"github.com/GriffinCanCode/buildwatch/internal/infrastructure/logging"
	"github.com/GriffinCanCode/buildwatch/internal/shared/id"
)

// KilledExitCode is reported for a command that was stopped before exiting
const KilledExitCode = 130

// Supervisor is the part of supervisor.Supervisor the runner drives
type Supervisor interface {
	Start(ctx context.Context, cmd process.Command) (id.SessionID, error)
	Stop(ctx context.Context) error
	Poll() []supervisor.Event
	State() supervisor.State
}

// Presets are the command lines behind the build, run, buildrun and clean
// control words.
type Presets struct {
	Build    string
	Run      string
	BuildRun string
	Clean    string
}

// Config holds runner settings
type Config struct {
	PollInterval time.Duration
	// WatchRefresh bounds automatic watch table redraws; zero disables them
	WatchRefresh time.Duration
	// StopTimeout bounds the wait for a stopping session on shutdown
	StopTimeout time.Duration
	Presets     Presets
}

// ConfigFromSettings derives runner settings from the loaded configuration
func ConfigFromSettings(cfg *config.Config) Config {
	return Config{
		PollInterval: cfg.Console.PollInterval.Std(),
		WatchRefresh: cfg.Console.WatchRefresh.Std(),
		StopTimeout:  2*cfg.Supervisor.TerminateGrace.Std() + time.Second,
		Presets: Presets{
			Build:    cfg.Commands.Build,
			Run:      cfg.Commands.Run,
			BuildRun: cfg.Commands.BuildRun,
			Clean:    cfg.Commands.Clean,
		},
	}
}

// Runner consumes supervisor events and renders them
type Runner struct {
	sup    Supervisor
	sinks  *Sinks
	cfg    Config
	log    *zap.Logger
	redraw *rate.Limiter
	drawn  uint64
}

// NewRunner creates a runner
func NewRunner(sup Supervisor, sinks *Sinks, cfg Config, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 10 * time.Second
	}

	r := &Runner{
		sup:   sup,
		sinks: sinks,
		cfg:   cfg,
		log:   log,
	}
	if cfg.WatchRefresh > 0 {
		r.redraw = rate.NewLimiter(rate.Every(cfg.WatchRefresh), 1)
	}
	return r
}

// Dispatch sends one event to its sink
func (r *Runner) Dispatch(ev supervisor.Event) {
	switch ev.Destination {
	case router.WatchSink:
		r.sinks.Watch.Upsert(ev.Tab, ev.Tag, ev.Text)
	default:
		r.sinks.Log.Append(ev.Tab, ev.Text, ev.Channel)
	}
}

// Drain polls once, dispatches everything pending and returns the Done
// events it saw.
func (r *Runner) Drain() []supervisor.Event {
	var done []supervisor.Event
	for _, ev := range r.sup.Poll() {
		r.Dispatch(ev)
		if ev.Done {
			done = append(done, ev)
			r.showWatch(true)
		}
	}
	r.showWatch(false)
	return done
}

// showWatch redraws the table if it changed. Unforced draws are throttled.
func (r *Runner) showWatch(force bool) {
	if r.sinks.View == nil || r.sinks.Table == nil {
		return
	}
	v := r.sinks.Table.Version()
	if v == r.drawn || r.sinks.Table.Len() == 0 {
		return
	}
	if !force && (r.redraw == nil || !r.redraw.Allow()) {
		return
	}
	r.drawn = v
	r.sinks.View.ShowWatch(r.sinks.Table)
}

// Notify writes a supervisor status line to the log sink
func (r *Runner) Notify(text string) {
	r.sinks.Log.Append("", text, router.Logger)
}

// Run executes cmd to completion and returns its exit code. When ctx ends
// first the command is stopped, its remaining output is still rendered, and
// ctx's error is returned with the exit code.
func (r *Runner) Run(ctx context.Context, cmd process.Command) (int, error) {
	sid, err := r.sup.Start(ctx, cmd)
	if err != nil {
		return -1, err
	}

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if st, ok := finished(r.Drain(), sid); ok {
				return ExitCode(st), nil
			}
		case <-ctx.Done():
			r.log.Info("Stopping command", logging.Session(sid), zap.Error(ctx.Err()))
			r.stop()
			st, _ := finished(r.Drain(), sid)
			return ExitCode(st), ctx.Err()
		}
	}
}

// stop ends the current session, bounded by StopTimeout
func (r *Runner) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.StopTimeout)
	defer cancel()
	if err := r.sup.Stop(ctx); err != nil {
		r.log.Warn("Stop did not complete", zap.Error(err))
	}
}

func finished(done []supervisor.Event, sid id.SessionID) (process.Status, bool) {
	for _, ev := range done {
		if ev.Session == sid {
			return ev.Status, true
		}
	}
	return process.Status{State: process.Killed, ExitCode: -1}, false
}

// ExitCode maps a session status to a process exit code
func ExitCode(st process.Status) int {
	if st.State == process.Killed {
		if st.ExitCode > 0 {
			return st.ExitCode
		}
		return KilledExitCode
	}
	return st.ExitCode
}
