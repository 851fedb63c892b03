package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/buildwatch/internal/domain/router"
)

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		in   string
		want ColorMode
		ok   bool
	}{
		{"", ColorAuto, true},
		{"auto", ColorAuto, true},
		{"ALWAYS", ColorAlways, true},
		{"never", ColorNever, true},
		{"sometimes", ColorAuto, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColorMode(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "compile:Building foo.o", Label("compile", "Building foo.o"))
	assert.Equal(t, "hello", Label("", "hello"))
}

func TestConsolePlainOutput(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, ColorNever)

	c.Append("", "hello world", router.Stdout)
	c.Append("compile", "Building foo.o", router.Stdout)
	c.Append("", "Executing: scons", router.Logger)
	c.Append("", "\x1b[31mred\x1b[0m text", router.Stdout)

	assert.Equal(t, "hello world\ncompile:Building foo.o\nExecuting: scons\nred text\n", buf.String())
	assert.NoError(t, c.Err())
}

func TestConsoleColorHighlightsLogger(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, ColorAlways)

	c.Append("", "Killing", router.Logger)
	c.Append("", "\x1b[32mgreen\x1b[0m", router.Stdout)

	out := buf.String()
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "Killing")
	// Child escapes pass through untouched when color is on
	assert.Contains(t, out, "\x1b[32mgreen\x1b[0m\n")
}

func TestConsoleClearOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, ColorAlways)

	c.Clear()
	assert.Empty(t, buf.String())
}

func TestConsoleShowWatch(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, ColorNever)

	table := NewWatchTable()
	c.ShowWatch(table)
	assert.Contains(t, buf.String(), "(no watch values)")

	buf.Reset()
	table.Upsert("build", "status", "OK")
	c.ShowWatch(table)
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Watch\n"))
	assert.Contains(t, out, "status")
	assert.Contains(t, out, "OK")
}

type recordingLog struct {
	lines   []string
	cleared int
}

func (r *recordingLog) Append(tab, text string, _ router.Channel) {
	r.lines = append(r.lines, Label(tab, text))
}

func (r *recordingLog) Clear() { r.cleared++ }

func TestMultiLog(t *testing.T) {
	a, b := &recordingLog{}, &recordingLog{}
	sink := MultiLog(a, nil, b)

	sink.Append("tab", "one", router.Stdout)
	sink.Clear()

	assert.Equal(t, []string{"tab:one"}, a.lines)
	assert.Equal(t, []string{"tab:one"}, b.lines)
	assert.Equal(t, 1, a.cleared)
	assert.Equal(t, 1, b.cleared)
}

func TestMultiWatch(t *testing.T) {
	a, b := NewWatchTable(), NewWatchTable()
	sink := MultiWatch(a, b)

	sink.Upsert("", "progress", "42")
	v, ok := b.Get("", "progress")
	assert.True(t, ok)
	assert.Equal(t, "42", v)

	sink.Clear()
	assert.Zero(t, a.Len())
	assert.Zero(t, b.Len())
}
