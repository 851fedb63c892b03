package console

import "github.com/GriffinCanCode/buildwatch/internal/domain/router"

// LogSink receives log lines. tab is empty for untabbed lines.
type LogSink interface {
	Append(tab, text string, ch router.Channel)
	Clear()
}

// WatchSink receives watch updates, replacing any previous value stored
// under the same (tab, tag).
type WatchSink interface {
	Upsert(tab, tag, value string)
	Clear()
}

// MultiLog fans log lines out to every sink in order
func MultiLog(sinks ...LogSink) LogSink {
	return multiLog(compact(sinks))
}

// MultiWatch fans watch updates out to every sink in order
func MultiWatch(sinks ...WatchSink) WatchSink {
	return multiWatch(compact(sinks))
}

type multiLog []LogSink

func (m multiLog) Append(tab, text string, ch router.Channel) {
	for _, s := range m {
		s.Append(tab, text, ch)
	}
}

func (m multiLog) Clear() {
	for _, s := range m {
		s.Clear()
	}
}

type multiWatch []WatchSink

func (m multiWatch) Upsert(tab, tag, value string) {
	for _, s := range m {
		s.Upsert(tab, tag, value)
	}
}

func (m multiWatch) Clear() {
	for _, s := range m {
		s.Clear()
	}
}

func compact[S comparable](sinks []S) []S {
	var zero S
	out := make([]S, 0, len(sinks))
	for _, s := range sinks {
		if s != zero {
			out = append(out, s)
		}
	}
	return out
}

// Label formats a line the way every text sink shows it: "tab:text" for
// tabbed lines, plain text otherwise.
func Label(tab, text string) string {
	if tab == "" {
		return text
	}
	return tab + ":" + text
}
