package router

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Event
	}{
		{
			name: "tabbed watch",
			line: "@build:status>OK",
			want: Event{Destination: WatchSink, Tab: "build", Tag: "status", Text: "OK"},
		},
		{
			name: "untabbed watch",
			line: "@progress>42",
			want: Event{Destination: WatchSink, Tag: "progress", Text: "42"},
		},
		{
			name: "watch value is trimmed",
			line: "@fps>  59.9 \n",
			want: Event{Destination: WatchSink, Tag: "fps", Text: "59.9"},
		},
		{
			name: "watch splits key on first colon only",
			line: "@render:pass:shadow>1.2ms",
			want: Event{Destination: WatchSink, Tab: "render", Tag: "pass:shadow", Text: "1.2ms"},
		},
		{
			name: "watch splits on first separator only",
			line: "@cmp>a>b",
			want: Event{Destination: WatchSink, Tag: "cmp", Text: "a>b"},
		},
		{
			name: "watch with empty value",
			line: "@build:status>",
			want: Event{Destination: WatchSink, Tab: "build", Tag: "status", Text: ""},
		},
		{
			name: "watch with empty tab",
			line: "@:status>OK",
			want: Event{Destination: WatchSink, Tag: "status", Text: "OK"},
		},
		{
			name: "tabbed log",
			line: ":compile>Building foo.o",
			want: Event{Destination: LogSink, Tab: "compile", Text: "Building foo.o"},
		},
		{
			name: "tabbed log with empty tab",
			line: ":>orphan",
			want: Event{Destination: LogSink, Text: "orphan"},
		},
		{
			name: "plain log",
			line: "hello world",
			want: Event{Destination: LogSink, Text: "hello world"},
		},
		{
			name: "plain log is trimmed",
			line: "  indented output\r\n",
			want: Event{Destination: LogSink, Text: "indented output"},
		},
		{
			name: "sigil after whitespace is not a sigil",
			line: " @progress>42",
			want: Event{Destination: LogSink, Text: "@progress>42"},
		},
		{
			name: "watch without separator degrades",
			line: "@progress",
			want: Event{Destination: LogSink, Text: "@progress"},
		},
		{
			name: "watch without tag degrades",
			line: "@>42",
			want: Event{Destination: LogSink, Text: "@>42"},
		},
		{
			name: "watch with tab but no tag degrades",
			line: "@build:>42",
			want: Event{Destination: LogSink, Text: "@build:>42"},
		},
		{
			name: "tabbed log without separator degrades",
			line: ":compile",
			want: Event{Destination: LogSink, Text: ":compile"},
		},
		{
			name: "lone sigils",
			line: "@",
			want: Event{Destination: LogSink, Text: "@"},
		},
		{
			name: "empty line",
			line: "",
			want: Event{Destination: LogSink, Text: ""},
		},
		{
			name: "compiler diagnostic with colons",
			line: "main.c:12:5: warning: unused variable",
			want: Event{Destination: LogSink, Text: "main.c:12:5: warning: unused variable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.line))
		})
	}
}

func TestClassifyFromKeepsChannel(t *testing.T) {
	ev := ClassifyFrom("@progress>42", Logger)
	assert.Equal(t, Logger, ev.Channel)
	assert.Equal(t, WatchSink, ev.Destination)

	ev = ClassifyFrom("Executing: make", Logger)
	assert.Equal(t, Logger, ev.Channel)
	assert.Equal(t, LogSink, ev.Destination)
}

func TestClassifyNeverPanics(t *testing.T) {
	inputs := []string{
		"@", ":", ">", "@:", ":>", "@>", "@:>", "::>", "@@>x", "::tab>x",
		"\x00", "@\xff\xfe>", strings.Repeat("@", 10000),
		strings.Repeat(":>", 5000), "\r\n", "\n",
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() { Classify(in) }, "input %q", in)
	}
}

func TestPlain(t *testing.T) {
	ev := Plain("  Done.\n", Logger)
	assert.Equal(t, Event{Destination: LogSink, Text: "Done.", Channel: Logger}, ev)
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "log", LogSink.String())
	assert.Equal(t, "watch", WatchSink.String())
	assert.Equal(t, "stdout", Stdout.String())
	assert.Equal(t, "logger", Logger.String())
}
