// Package router classifies captured output lines against the tagged-line
// protocol.
//
// Grammar, checked in order:
//
//	@[tab:]tag>value   watch update (key/value telemetry)
//	:tab>text          log line grouped under tab
//	anything else      plain log line
//
// Output from a supervised tool is untrusted, so malformed lines never fail:
// a sigil without its '>' separator degrades to a plain log line that keeps
// the sigil as literal text.
package router

import "strings"

// Destination selects which sink an event is routed to
type Destination int

const (
	LogSink Destination = iota
	WatchSink
)

// String returns the destination name
func (d Destination) String() string {
	switch d {
	case LogSink:
		return "log"
	case WatchSink:
		return "watch"
	default:
		return "unknown"
	}
}

// Channel tells where a line originated
type Channel int

const (
	// Stdout marks output of the supervised process
	Stdout Channel = iota
	// Logger marks status messages generated by the supervisor itself
	Logger
)

// String returns the channel name
func (c Channel) String() string {
	switch c {
	case Stdout:
		return "stdout"
	case Logger:
		return "logger"
	default:
		return "unknown"
	}
}

// Event is one classified line. Empty Tab or Tag means absent.
type Event struct {
	Destination Destination
	Tab         string
	Tag         string
	Text        string
	Channel     Channel
}

const (
	watchSigil = '@'
	tabSigil   = ':'
	separator  = ">"
	tabDelim   = ":"
)

// Classify routes a line from the process output channel
func Classify(line string) Event {
	return ClassifyFrom(line, Stdout)
}

// ClassifyFrom routes a line and records its originating channel
func ClassifyFrom(line string, ch Channel) Event {
	line = strings.TrimRight(line, "\r\n")

	if ev, ok := parseWatch(line); ok {
		ev.Channel = ch
		return ev
	}
	if ev, ok := parseTabbed(line); ok {
		ev.Channel = ch
		return ev
	}
	return Plain(line, ch)
}

// Plain builds an untagged log event
func Plain(text string, ch Channel) Event {
	return Event{
		Destination: LogSink,
		Text:        strings.TrimSpace(text),
		Channel:     ch,
	}
}

func parseWatch(line string) (Event, bool) {
	if len(line) == 0 || line[0] != watchSigil {
		return Event{}, false
	}
	key, value, ok := strings.Cut(line[1:], separator)
	if !ok {
		return Event{}, false
	}

	tab, tag, hasTab := strings.Cut(key, tabDelim)
	if !hasTab {
		tab, tag = "", key
	}
	if tag == "" {
		return Event{}, false
	}

	return Event{
		Destination: WatchSink,
		Tab:         tab,
		Tag:         tag,
		Text:        strings.TrimSpace(value),
	}, true
}

func parseTabbed(line string) (Event, bool) {
	if len(line) == 0 || line[0] != tabSigil {
		return Event{}, false
	}
	tab, text, ok := strings.Cut(line[1:], separator)
	if !ok {
		return Event{}, false
	}

	return Event{
		Destination: LogSink,
		Tab:         tab,
		Text:        strings.TrimSpace(text),
	}, true
}
