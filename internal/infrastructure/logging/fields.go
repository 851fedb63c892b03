package logging

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/buildwatch/internal/shared/id"
)

// Field keys shared by every component that logs about a session
const (
	KeySession  = "session"
	KeyPID      = "pid"
	KeyMode     = "mode"
	KeyState    = "state"
	KeyExitCode = "exit_code"
)

// Session tags an entry with the session it concerns
func Session(sid id.SessionID) zap.Field {
	return zap.String(KeySession, sid.String())
}

// PID tags an entry with the child's process id
func PID(pid int) zap.Field {
	return zap.Int(KeyPID, pid)
}

// Mode tags an entry with the stream mode (pty or pipe)
func Mode(m fmt.Stringer) zap.Field {
	return zap.Stringer(KeyMode, m)
}

// State tags an entry with a lifecycle state
func State(st fmt.Stringer) zap.Field {
	return zap.Stringer(KeyState, st)
}

// ExitCode tags an entry with the child's exit code
func ExitCode(code int) zap.Field {
	return zap.Int(KeyExitCode, code)
}
