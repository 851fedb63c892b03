//go:build windows

package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/windows"
)

// taskkill exits with 128 when the pid does not exist
const taskkillNotFound = 128

// DefaultShell returns the shell prefix used for command lines
func DefaultShell() []string {
	return []string{"cmd.exe", "/C"}
}

func newPTYLauncher(Size) Launcher { return nil }

func setProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.CreationFlags |= windows.CREATE_NEW_PROCESS_GROUP
}

// signalGroup kills the process tree rooted at p. Windows has no polite
// tree-wide signal for console-less children, so both modes force.
func signalGroup(p *os.Process, _ bool) error {
	out, err := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(p.Pid)).CombinedOutput()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == taskkillNotFound {
		return ErrNotRunning
	}
	return fmt.Errorf("taskkill %d: %w: %s", p.Pid, err, out)
}
