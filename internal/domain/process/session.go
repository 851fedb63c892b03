package process

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"iter"
	"os/exec"
	"sync"
	"time"

	"github.com/GriffinCanCode/buildwatch/internal/infrastructure/logging"
	"github.com/GriffinCanCode/buildwatch/internal/shared/textenc"
	"go.uber.org/zap"
)

// readBufferSize bounds a single read from the output stream, not line length
const readBufferSize = 64 * 1024

// State is the lifecycle state of a session
type State int

const (
	Running State = iota
	// Stopped means the process exited on its own
	Stopped
	// Killed means the process ended after a terminate or by a signal
	Killed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	case Killed:
		return "killed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final
func (s State) Terminal() bool {
	return s == Stopped || s == Killed
}

// Status is the outcome of a session. ExitCode is -1 when the process was
// ended by a signal.
type Status struct {
	State    State
	ExitCode int
}

// Options configures Spawn
type Options struct {
	Mode Mode
	// Shell is the argv prefix for command lines; DefaultShell when empty
	Shell []string
	// Size is reported to children on a pseudo-terminal
	Size   Size
	Logger *zap.Logger
}

// Session wraps one spawned process and its merged output
type Session struct {
	command   Command
	cmd       *exec.Cmd
	stream    Stream
	log       *zap.Logger
	startedAt time.Time

	mu         sync.Mutex
	state      State
	terminated bool
	status     Status

	waitOnce  sync.Once
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Spawn starts command with its output attached to a stream chosen by
// opts.Mode. Failures are returned as *SpawnError.
func Spawn(command Command, opts Options) (*Session, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	command = command.clone()

	argv, err := command.argv(opts.Shell)
	if err != nil {
		return nil, &SpawnError{Command: command.String(), Err: err}
	}

	launcher, err := NewLauncher(opts.Mode, opts.Size)
	if err != nil {
		return nil, &SpawnError{Command: command.String(), Err: err}
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = command.Dir
	cmd.Env = command.environ()

	out, err := launcher.Launch(cmd)
	if err != nil {
		return nil, &SpawnError{Command: command.String(), Err: err}
	}

	s := &Session{
		command:   command,
		cmd:       cmd,
		stream:    out,
		log:       log.With(logging.PID(cmd.Process.Pid), logging.Mode(out.Mode())),
		startedAt: time.Now(),
		state:     Running,
		done:      make(chan struct{}),
	}
	s.log.Debug("Process spawned", zap.Strings("argv", argv), zap.String("dir", command.Dir))
	return s, nil
}

// Command returns the command the session runs
func (s *Session) Command() Command { return s.command }

// PID returns the OS process id
func (s *Session) PID() int { return s.cmd.Process.Pid }

// Mode returns the output mode actually in use
func (s *Session) Mode() Mode { return s.stream.Mode() }

// StartedAt returns the spawn time
func (s *Session) StartedAt() time.Time { return s.startedAt }

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the process has been reaped
func (s *Session) Done() <-chan struct{} { return s.done }

// Lines yields the merged output line by line until the stream ends. Line
// terminators are stripped and text is normalised to UTF-8. Any read error,
// including the EIO a torn-down pseudo-terminal reports, ends the sequence.
// The sequence is single-use.
func (s *Session) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		r := bufio.NewReaderSize(s.stream, readBufferSize)
		for {
			raw, err := r.ReadBytes('\n')
			if len(raw) > 0 {
				if !yield(textenc.Normalize(bytes.TrimSuffix(bytes.TrimSuffix(raw, []byte("\n")), []byte("\r")))) {
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					s.log.Debug("Output stream closed", zap.Error(err))
				}
				return
			}
		}
	}
}

// Terminate asks the whole process group to exit
func (s *Session) Terminate() error {
	return s.signal(false)
}

// Kill forcibly ends the whole process group
func (s *Session) Kill() error {
	return s.signal(true)
}

func (s *Session) signal(force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return ErrNotRunning
	}
	if err := signalGroup(s.cmd.Process, force); err != nil {
		return err
	}
	s.terminated = true
	return nil
}

// Wait blocks until the process has exited and been reaped. Call it after
// the output stream is exhausted. Safe to call more than once.
func (s *Session) Wait() Status {
	s.waitOnce.Do(func() {
		err := s.cmd.Wait()

		code := 0
		if err != nil {
			code = -1
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				code = exitErr.ExitCode()
			} else {
				s.log.Warn("Wait failed", zap.Error(err))
			}
		}

		s.mu.Lock()
		state := Stopped
		if s.terminated || code == -1 {
			state = Killed
		}
		s.state = state
		s.status = Status{State: state, ExitCode: code}
		s.mu.Unlock()

		s.log.Debug("Process reaped",
			logging.State(state),
			logging.ExitCode(code),
			zap.Duration("elapsed", time.Since(s.startedAt)),
		)
		close(s.done)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Close releases the output stream descriptors
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.stream.Close()
	})
	return s.closeErr
}
