// Package logging provides structured logging using uber/zap.
//
// This package offers two modes:
//   - Production: JSON output for machine parsing
//   - Development: console output, level colors only on a terminal
//
// Supervisor diagnostics are written to stderr by default so that they stay
// separate from the routed output of the supervised command on stdout.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	defer logger.Close()
//	logger.Info("Session started", logging.Session(sid), logging.PID(pid))
//	logger.Error("Spawn failed", zap.Error(err))
package logging
