// Command buildwatch runs build and run commands and renders their tagged
// output.
//
// Usage:
//
//	buildwatch [flags] [--] command...   run one command, exit with its code
//	buildwatch [flags]                   interactive mode, control words on stdin
//	buildwatch route [file]              route already captured output
//	buildwatch config                    print the effective settings
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			if exit.err != nil {
				fmt.Fprintln(os.Stderr, "buildwatch:", exit.err)
			}
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "buildwatch:", err)
		os.Exit(1)
	}
}

// exitError carries a process exit code out of a command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit status %d", e.code)
}

func (e *exitError) Unwrap() error { return e.err }
