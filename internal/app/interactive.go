package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/buildwatch/internal/domain/process"
	"github.com/GriffinCanCode/buildwatch/internal/domain/supervisor"
	"github.com/GriffinCanCode/buildwatch/internal/infrastructure/logging"
)

// Control words accepted by Interactive
const (
	WordBuild    = "build"
	WordRun      = "run"
	WordBuildRun = "buildrun"
	WordClean    = "clean"
	WordExec     = "exec"
	WordStop     = "stop"
	WordClear    = "clear"
	WordWatch    = "watch"
	WordHelp     = "help"
	WordQuit     = "quit"
)

const helpText = "Commands: build, run, buildrun, clean, exec <command>, stop, clear, watch, help, quit"

// request is a parsed control line
type request struct {
	word string
	// line is the command to start, for words that start one
	line string
	// clear empties the sinks before starting
	clear bool
}

func (r request) starts() bool { return r.line != "" }

// parse turns a control line into a request
func (r *Runner) parse(input string) (request, error) {
	word, rest, _ := strings.Cut(strings.TrimSpace(input), " ")
	word = strings.ToLower(word)
	rest = strings.TrimSpace(rest)

	p := r.cfg.Presets
	switch word {
	case WordBuild:
		return request{word: word, line: p.Build, clear: true}, nonEmpty(word, p.Build)
	case WordRun:
		return request{word: word, line: p.Run, clear: true}, nonEmpty(word, p.Run)
	case WordBuildRun, "build&run":
		return request{word: WordBuildRun, line: p.BuildRun, clear: true}, nonEmpty(word, p.BuildRun)
	case WordClean:
		return request{word: word, line: p.Clean}, nonEmpty(word, p.Clean)
	case WordExec:
		if rest == "" {
			return request{}, fmt.Errorf("usage: exec <command>")
		}
		return request{word: word, line: rest}, nil
	case WordStop, WordClear, WordWatch, WordHelp:
		return request{word: word}, nil
	case WordQuit, "exit", "q":
		return request{word: WordQuit}, nil
	default:
		return request{}, fmt.Errorf("unknown command %q (try help)", word)
	}
}

func nonEmpty(word, line string) error {
	if strings.TrimSpace(line) == "" {
		return fmt.Errorf("no command configured for %s", word)
	}
	return nil
}

// Interactive reads control words from in, one per line, until quit or ctx
// ends. Commands that start something stop the running session first and
// keep rendering its output meanwhile; its Done line always precedes
// anything the new command prints. Quit and cancellation stop the running
// session. At end of input Interactive lets it finish and then returns.
func (r *Runner) Interactive(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go readLines(ctx, in, lines)

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	var (
		stopping <-chan error
		pending  *request
		eof      bool
	)

	beginStop := func() {
		if stopping != nil {
			return
		}
		ch := make(chan error, 1)
		go func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), r.cfg.StopTimeout)
			defer cancel()
			ch <- r.sup.Stop(stopCtx)
		}()
		stopping = ch
	}

	r.Notify(helpText)

	for {
		select {
		case <-ctx.Done():
			r.shutdown(stopping)
			return nil

		case <-ticker.C:
			r.Drain()
			if stopping != nil || r.sup.State() != supervisor.Idle {
				continue
			}
			// An abandoned stop settles once its Done event is drained
			if pending != nil {
				r.execute(ctx, *pending)
				pending = nil
				continue
			}
			if eof {
				return nil
			}

		case err := <-stopping:
			stopping = nil
			if err != nil {
				r.log.Warn("Stop did not complete", zap.Error(err))
				r.Notify("Error: " + err.Error())
				continue
			}
			r.Drain()
			if pending != nil {
				r.execute(ctx, *pending)
				pending = nil
			}

		case input, ok := <-lines:
			if !ok {
				lines, eof = nil, true
				continue
			}
			req, err := r.parse(input)
			if err != nil {
				r.Notify(err.Error())
				continue
			}

			switch {
			case req.word == WordQuit:
				r.shutdown(stopping)
				return nil
			case req.word == WordStop:
				pending = nil
				beginStop()
			case req.word == WordClear:
				r.sinks.Clear()
			case req.word == WordWatch:
				r.showTable()
			case req.word == WordHelp:
				r.Notify(helpText)
			case req.starts():
				pending = &req
				beginStop()
			}
		}
	}
}

// execute starts a request once the previous session is gone
func (r *Runner) execute(ctx context.Context, req request) {
	if req.clear {
		r.sinks.Clear()
	}
	sid, err := r.sup.Start(ctx, process.ShellCommand(req.line))
	if err != nil {
		r.Notify("Error: " + err.Error())
		return
	}
	r.log.Debug("Control command started", zap.String("word", req.word), logging.Session(sid))
}

func (r *Runner) showTable() {
	if r.sinks.View == nil || r.sinks.Table == nil {
		r.Notify("watch table is not shown in this output format")
		return
	}
	r.drawn = r.sinks.Table.Version()
	r.sinks.View.ShowWatch(r.sinks.Table)
}

// shutdown stops the running session and renders what it left behind
func (r *Runner) shutdown(stopping <-chan error) {
	if stopping != nil {
		<-stopping
	}
	r.stop()
	r.Drain()
}

func readLines(ctx context.Context, in io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		select {
		case out <- line:
		case <-ctx.Done():
			return
		}
	}
}
