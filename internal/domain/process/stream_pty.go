//go:build unix

package process

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
)

// ptyLauncher runs the child on a pseudo-terminal so tools keep line
// buffering and color output as if attached to an interactive terminal.
type ptyLauncher struct {
	size Size
}

func newPTYLauncher(size Size) Launcher {
	return ptyLauncher{size: size}
}

func (ptyLauncher) Mode() Mode { return ModePTY }

func (l ptyLauncher) Launch(cmd *exec.Cmd) (Stream, error) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPTYUnavailable, err)
	}

	if l.size.Cols > 0 && l.size.Rows > 0 {
		if err := pty.Setsize(ptmx, &pty.Winsize{
			Rows: uint16(l.size.Rows),
			Cols: uint16(l.size.Cols),
		}); err != nil {
			ptmx.Close()
			tty.Close()
			return nil, fmt.Errorf("set pty size: %w", err)
		}
	}

	devnull, err := os.Open(os.DevNull)
	if err != nil {
		ptmx.Close()
		tty.Close()
		return nil, fmt.Errorf("open %s: %w", os.DevNull, err)
	}

	cmd.Stdin = devnull
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.Env = append(baseEnv(cmd), "TERM=xterm-256color")
	// New session, so the child leads its own process group; the tty on
	// child fd 1 becomes its controlling terminal.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
		Ctty:    1,
	}

	err = cmd.Start()
	tty.Close()
	devnull.Close()
	if err != nil {
		ptmx.Close()
		return nil, err
	}
	return stream{ReadCloser: ptmx, mode: ModePTY}, nil
}
