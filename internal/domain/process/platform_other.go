//go:build !unix && !windows

package process

import (
	"errors"
	"os"
	"os/exec"
)

// DefaultShell returns the shell prefix used for command lines
func DefaultShell() []string {
	return []string{"sh", "-c"}
}

func newPTYLauncher(Size) Launcher { return nil }

func setProcessGroup(*exec.Cmd) {}

// signalGroup can only reach the direct child here.
func signalGroup(p *os.Process, _ bool) error {
	err := p.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return ErrNotRunning
	}
	return err
}
