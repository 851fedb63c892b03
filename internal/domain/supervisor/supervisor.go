package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/buildwatch/internal/domain/process"
	"github.com/GriffinCanCode/buildwatch/internal/domain/queue"
	"github.com/GriffinCanCode/buildwatch/internal/domain/router"
	"github.com/GriffinCanCode/buildwatch/internal/infrastructure/logging"
	"github.com/GriffinCanCode/buildwatch/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/buildwatch/internal/shared/id"
)

// ErrAlreadyRunning is returned by Start when a session is active
var ErrAlreadyRunning = errors.New("supervisor: a command is already running")

// State is the supervisor lifecycle state
type State int

const (
	Idle State = iota
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Event is a routed line tagged with the session that produced it. The last
// event of every session has Done set and carries its exit status.
type Event struct {
	router.Event
	Session id.SessionID
	Done    bool
	Status  process.Status
}

// item is what crosses the queue: a routed line or a session's end marker
type item struct {
	session id.SessionID
	event   router.Event
	end     bool
	status  process.Status
}

// run is one supervised session and its capture goroutine
type run struct {
	id       id.SessionID
	session  *process.Session
	timer    *monitoring.Timer
	captured chan struct{}

	// mu orders the end marker against status events pushed by Stop
	mu    sync.Mutex
	ended bool
}

// Supervisor runs at most one session at a time
type Supervisor struct {
	cfg     Config
	log     *zap.Logger
	metrics *monitoring.Metrics
	ids     *id.Generator
	queue   *queue.Queue[item]

	mu      sync.Mutex
	state   State
	current *run
}

// Option configures the Supervisor.
type Option func(*Supervisor)

// WithLogger sets the diagnostics logger
func WithLogger(log *zap.Logger) Option {
	return func(s *Supervisor) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics records session and routing metrics
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Supervisor) {
		s.metrics = m
	}
}

// WithIDGenerator overrides the session id source
func WithIDGenerator(g *id.Generator) Option {
	return func(s *Supervisor) {
		if g != nil {
			s.ids = g
		}
	}
}

// New creates an idle supervisor
func New(cfg Config, opts ...Option) *Supervisor {
	if cfg.TerminateGrace <= 0 {
		cfg.TerminateGrace = DefaultConfig().TerminateGrace
	}
	s := &Supervisor{
		cfg:   cfg,
		log:   zap.NewNop(),
		ids:   id.Default(),
		queue: queue.New[item](cfg.QueueCapacity),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics.TrackQueue(s.queue.Len)
	return s
}

// State returns the current lifecycle state
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the id of the most recently started session, or the zero
// id before the first Start.
func (s *Supervisor) Current() id.SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.id
}

// Start launches cmd. It fails with ErrAlreadyRunning unless the supervisor
// is Idle, and with a *process.SpawnError when the command cannot be started,
// in which case the supervisor stays Idle.
func (s *Supervisor) Start(ctx context.Context, cmd process.Command) (id.SessionID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return "", ErrAlreadyRunning
	}

	if cmd.Dir == "" {
		cmd.Dir = s.cfg.Dir
	}
	if len(s.cfg.Env) > 0 {
		cmd.Env = append(append([]string(nil), s.cfg.Env...), cmd.Env...)
	}

	sid := s.ids.NewSessionID()
	log := s.log.With(logging.Session(sid))

	session, err := process.Spawn(cmd, process.Options{
		Mode:   s.cfg.Mode,
		Shell:  s.cfg.Shell,
		Size:   s.cfg.Size,
		Logger: log,
	})
	if err != nil {
		s.metrics.SpawnFailed()
		log.Warn("Spawn failed", zap.Error(err))
		return "", err
	}

	r := &run{
		id:       sid,
		session:  session,
		timer:    monitoring.NewTimer(s.metrics),
		captured: make(chan struct{}),
	}
	s.current = r
	s.state = Running
	s.metrics.SessionStarted()

	s.queue.Push(item{session: sid, event: router.Plain("Executing: "+cmd.String(), router.Logger)})
	go s.capture(r, log)

	log.Info("Session started",
		zap.String("command", cmd.String()),
		logging.PID(session.PID()),
		logging.Mode(session.Mode()),
	)
	return sid, nil
}

// capture owns the session's output stream until it ends, then reaps the
// process and pushes the end marker as the session's final item.
func (s *Supervisor) capture(r *run, log *zap.Logger) {
	defer close(r.captured)

	for line := range r.session.Lines() {
		ev := router.Classify(line)
		s.metrics.LineRouted(ev.Destination.String())
		s.queue.Push(item{session: r.id, event: ev})
	}

	status := r.session.Wait()
	if err := r.session.Close(); err != nil {
		log.Debug("Closing output stream", zap.Error(err))
	}
	r.timer.Stop(outcome(status))

	r.mu.Lock()
	r.ended = true
	s.queue.Push(item{session: r.id, end: true, status: status})
	r.mu.Unlock()

	log.Info("Session ended",
		logging.State(status.State),
		logging.ExitCode(status.ExitCode),
	)
}

// Stop terminates the running session's process group and waits until its
// output has been captured and the process reaped. A session that ignores
// the termination signal is killed after the configured grace period, even
// when the caller stops waiting. Stop is a no-op when Idle. If ctx ends first
// Stop returns its error and the supervisor remains Stopping until the end
// marker is drained or a later Stop observes the capture finishing.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	r := s.current
	switch s.state {
	case Idle:
		s.mu.Unlock()
		return nil
	case Stopping:
		s.mu.Unlock()
		return s.awaitCapture(ctx, r)
	}
	s.state = Stopping
	s.mu.Unlock()

	log := s.log.With(logging.Session(r.id))

	err := r.session.Terminate()
	switch {
	case err == nil:
		r.mu.Lock()
		if !r.ended {
			s.queue.Push(item{session: r.id, event: router.Plain("Killing", router.Logger)})
		}
		r.mu.Unlock()
	case errors.Is(err, process.ErrNotRunning):
		log.Debug("Stop after exit", zap.Error(err))
	default:
		log.Warn("Terminate failed", zap.Error(err))
	}

	go s.escalate(r, log)
	return s.awaitCapture(ctx, r)
}

// escalate kills r's process group if its capture has not finished within
// the grace period. It runs once per stopped session.
func (s *Supervisor) escalate(r *run, log *zap.Logger) {
	grace := time.NewTimer(s.cfg.TerminateGrace)
	defer grace.Stop()

	select {
	case <-r.captured:
	case <-grace.C:
		log.Warn("Process ignored terminate, killing", zap.Duration("grace", s.cfg.TerminateGrace))
		if err := r.session.Kill(); err != nil && !errors.Is(err, process.ErrNotRunning) {
			log.Warn("Kill failed", zap.Error(err))
		}
	}
}

func (s *Supervisor) awaitCapture(ctx context.Context, r *run) error {
	select {
	case <-r.captured:
		s.settle(r.id)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for session %s to stop: %w", r.id, ctx.Err())
	}
}

// Restart stops the current session, if any, and starts cmd. The new
// session's output never interleaves with the old one's.
func (s *Supervisor) Restart(ctx context.Context, cmd process.Command) (id.SessionID, error) {
	if err := s.Stop(ctx); err != nil {
		return "", err
	}
	return s.Start(ctx, cmd)
}

// Poll returns every pending event without blocking, oldest first. Each end
// marker becomes a "Done" event, and the supervisor returns to Idle when it
// belongs to the current session, whether it exited or was stopped.
func (s *Supervisor) Poll() []Event {
	items := s.queue.DrainAll()
	return s.expand(items)
}

// Next blocks until at least one event is pending and returns the same batch
// Poll would.
func (s *Supervisor) Next(ctx context.Context) ([]Event, error) {
	items, err := s.queue.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return s.expand(items), nil
}

// Close stops any running session
func (s *Supervisor) Close(ctx context.Context) error {
	return s.Stop(ctx)
}

func (s *Supervisor) expand(items []item) []Event {
	if len(items) == 0 {
		return nil
	}

	out := make([]Event, 0, len(items))
	for _, it := range items {
		if !it.end {
			out = append(out, Event{Event: it.event, Session: it.session})
			continue
		}
		out = append(out, Event{
			Event:   router.Plain(doneText(it.status), router.Logger),
			Session: it.session,
			Done:    true,
			Status:  it.status,
		})
		s.settle(it.session)
	}
	return out
}

// settle returns the supervisor to Idle once session sid has ended. Ends of
// sessions that were already replaced are ignored.
func (s *Supervisor) settle(sid id.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.id == sid {
		s.state = Idle
	}
}

func doneText(st process.Status) string {
	switch {
	case st.State == process.Killed:
		return "Done (killed)."
	case st.ExitCode != 0:
		return fmt.Sprintf("Done (exit %d).", st.ExitCode)
	default:
		return "Done."
	}
}

func outcome(st process.Status) string {
	switch {
	case st.State == process.Killed:
		return "killed"
	case st.ExitCode != 0:
		return "failed"
	default:
		return "ok"
	}
}
