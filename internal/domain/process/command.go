package process

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrEmptyCommand is wrapped by SpawnError when there is nothing to run
	ErrEmptyCommand = errors.New("empty command")
	// ErrNotRunning reports a terminate on a session that already ended
	ErrNotRunning = errors.New("process is not running")
	// ErrPTYUnavailable reports that no pseudo-terminal could be allocated
	ErrPTYUnavailable = errors.New("pseudo-terminal unavailable")
)

// SpawnError reports a command that could not be started
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %q: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Command describes what to execute. Argv runs directly; Line runs through
// the shell. Argv wins when both are set.
type Command struct {
	Line string
	Argv []string
	Dir  string
	// Env entries are appended to the inherited environment
	Env []string
}

// ShellCommand is a convenience for a shell command line
func ShellCommand(line string) Command {
	return Command{Line: line}
}

// String returns a human-readable form of the command
func (c Command) String() string {
	if len(c.Argv) > 0 {
		return strings.Join(c.Argv, " ")
	}
	return c.Line
}

// IsEmpty reports whether there is nothing to run
func (c Command) IsEmpty() bool {
	if len(c.Argv) > 0 {
		return c.Argv[0] == ""
	}
	return strings.TrimSpace(c.Line) == ""
}

func (c Command) clone() Command {
	out := c
	out.Argv = append([]string(nil), c.Argv...)
	out.Env = append([]string(nil), c.Env...)
	return out
}

func (c Command) argv(shell []string) ([]string, error) {
	if c.IsEmpty() {
		return nil, ErrEmptyCommand
	}
	if len(c.Argv) > 0 {
		return c.Argv, nil
	}
	if len(shell) == 0 {
		shell = DefaultShell()
	}
	out := make([]string, 0, len(shell)+1)
	out = append(out, shell...)
	return append(out, c.Line), nil
}

func (c Command) environ() []string {
	return append(os.Environ(), c.Env...)
}
