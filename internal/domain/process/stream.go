package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Mode selects how the child's output is attached
type Mode int

const (
	// ModeAuto uses a pseudo-terminal where available, else a pipe
	ModeAuto Mode = iota
	// ModePTY requires a pseudo-terminal
	ModePTY
	// ModePipe uses a plain pipe with stdout and stderr merged
	ModePipe
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModePTY:
		return "pty"
	case ModePipe:
		return "pipe"
	default:
		return "unknown"
	}
}

// ParseMode parses "auto", "pty" or "pipe"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "pty", "tty":
		return ModePTY, nil
	case "pipe":
		return ModePipe, nil
	default:
		return ModeAuto, fmt.Errorf("unknown output mode %q", s)
	}
}

// Stream is the readable end of a child's merged output
type Stream interface {
	io.ReadCloser
	Mode() Mode
}

// Launcher attaches an output stream to cmd and starts it. The launcher
// owns stdin/stdout/stderr, SysProcAttr and the color-related environment.
type Launcher interface {
	Mode() Mode
	Launch(cmd *exec.Cmd) (Stream, error)
}

// Size is the terminal size reported to a child on a pseudo-terminal
type Size struct {
	Cols int
	Rows int
}

type stream struct {
	io.ReadCloser
	mode Mode
}

func (s stream) Mode() Mode { return s.mode }

// NewLauncher returns the launcher for mode. ModeAuto probes for a
// pseudo-terminal at launch time and falls back to a pipe.
func NewLauncher(mode Mode, size Size) (Launcher, error) {
	switch mode {
	case ModePipe:
		return pipeLauncher{}, nil
	case ModePTY:
		pty := newPTYLauncher(size)
		if pty == nil {
			return nil, ErrPTYUnavailable
		}
		return pty, nil
	case ModeAuto:
		if pty := newPTYLauncher(size); pty != nil {
			return autoLauncher{primary: pty, fallback: pipeLauncher{}}, nil
		}
		return pipeLauncher{}, nil
	default:
		return nil, fmt.Errorf("unknown output mode %d", mode)
	}
}

type autoLauncher struct {
	primary  Launcher
	fallback Launcher
}

func (a autoLauncher) Mode() Mode { return ModeAuto }

func (a autoLauncher) Launch(cmd *exec.Cmd) (Stream, error) {
	s, err := a.primary.Launch(cmd)
	if errors.Is(err, ErrPTYUnavailable) {
		return a.fallback.Launch(cmd)
	}
	return s, err
}

// pipeLauncher merges stdout and stderr onto one pipe. Children are told
// not to emit color since escape codes would end up in the captured text.
type pipeLauncher struct{}

func (pipeLauncher) Mode() Mode { return ModePipe }

func (pipeLauncher) Launch(cmd *exec.Cmd) (Stream, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create pipe: %w", err)
	}
	devnull, err := os.Open(os.DevNull)
	if err != nil {
		r.Close()
		w.Close()
		return nil, fmt.Errorf("open %s: %w", os.DevNull, err)
	}

	cmd.Stdin = devnull
	cmd.Stdout = w
	cmd.Stderr = w
	cmd.Env = append(baseEnv(cmd), "NO_COLOR=1", "CLICOLOR=0", "TERM=dumb")
	setProcessGroup(cmd)

	err = cmd.Start()
	// The child holds its own copies; ours must go so EOF arrives on exit.
	w.Close()
	devnull.Close()
	if err != nil {
		r.Close()
		return nil, err
	}
	return stream{ReadCloser: r, mode: ModePipe}, nil
}

func baseEnv(cmd *exec.Cmd) []string {
	if cmd.Env != nil {
		return cmd.Env
	}
	return os.Environ()
}
