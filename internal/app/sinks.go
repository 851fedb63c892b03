package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/GriffinCanCode/buildwatch/internal/console"
	"github.com/GriffinCanCode/buildwatch/internal/infrastructure/config"
)

// WatchView shows a watch table on demand
type WatchView interface {
	ShowWatch(t *console.WatchTable)
}

// Sinks is where routed events go
type Sinks struct {
	Log   console.LogSink
	Watch console.WatchSink
	// Table holds the current watch values; View draws it. Either may be nil.
	Table *console.WatchTable
	View  WatchView

	closers []io.Closer
}

// BuildSinks assembles sinks for the configured format, plus the optional
// transcript file.
func BuildSinks(cfg config.ConsoleConfig, out io.Writer) (*Sinks, error) {
	s := &Sinks{Table: console.NewWatchTable()}

	var logs []console.LogSink
	watches := []console.WatchSink{s.Table}

	switch cfg.Format {
	case "json":
		j := console.NewJSONSink(out)
		logs = append(logs, j)
		watches = append(watches, j)
	case "", "console":
		mode, err := console.ParseColorMode(cfg.Color)
		if err != nil {
			return nil, err
		}
		c := console.NewConsole(out, mode)
		logs = append(logs, c)
		s.View = c
	default:
		return nil, fmt.Errorf("unknown output format %q", cfg.Format)
	}

	if cfg.Transcript != "" {
		tr, err := console.CreateTranscript(cfg.Transcript)
		if err != nil {
			return nil, err
		}
		logs = append(logs, tr)
		watches = append(watches, tr)
		s.closers = append(s.closers, tr)
	}

	s.Log = console.MultiLog(logs...)
	s.Watch = console.MultiWatch(watches...)
	return s, nil
}

// Clear empties both destinations
func (s *Sinks) Clear() {
	s.Log.Clear()
	s.Watch.Clear()
}

// Close flushes and closes file-backed sinks
func (s *Sinks) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	s.closers = nil
	return errors.Join(errs...)
}
