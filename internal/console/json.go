package console

import (
	"io"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/x/ansi"

	"github.com/GriffinCanCode/buildwatch/internal/domain/router"
)

// Record kinds written by JSONSink
const (
	KindLog   = "log"
	KindWatch = "watch"
	KindClear = "clear"
)

// Record is one line of JSONSink output
type Record struct {
	Time    time.Time `json:"time"`
	Kind    string    `json:"kind"`
	Tab     string    `json:"tab,omitempty"`
	Tag     string    `json:"tag,omitempty"`
	Text    string    `json:"text,omitempty"`
	Channel string    `json:"channel,omitempty"`
}

// JSONSink writes newline-delimited JSON records for both destinations.
// Escape sequences are stripped from text.
type JSONSink struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
	err error
}

// NewJSONSink creates a sink writing to w
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{w: w, now: time.Now}
}

// Append implements LogSink
func (j *JSONSink) Append(tab, text string, ch router.Channel) {
	j.emit(Record{Kind: KindLog, Tab: tab, Text: ansi.Strip(text), Channel: ch.String()})
}

// Upsert implements WatchSink
func (j *JSONSink) Upsert(tab, tag, value string) {
	j.emit(Record{Kind: KindWatch, Tab: tab, Tag: tag, Text: ansi.Strip(value)})
}

// Clear implements LogSink and WatchSink
func (j *JSONSink) Clear() {
	j.emit(Record{Kind: KindClear})
}

// Err returns the first encoding or write error
func (j *JSONSink) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

func (j *JSONSink) emit(rec Record) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return
	}

	rec.Time = j.now().UTC()
	data, err := sonic.Marshal(rec)
	if err != nil {
		j.err = err
		return
	}
	_, j.err = j.w.Write(append(data, '\n'))
}
