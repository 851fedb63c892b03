//go:build unix

package app

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/buildwatch/internal/domain/process"
	"github.com/GriffinCanCode/buildwatch/internal/domain/supervisor"
)

func newRunner(t *testing.T, out *syncBuffer, presets Presets) (*Runner, *supervisor.Supervisor) {
	t.Helper()
	cfg := supervisor.DefaultConfig()
	cfg.Mode = process.ModePipe
	cfg.TerminateGrace = time.Second
	sup := supervisor.New(cfg)

	r := NewRunner(sup, consoleSinks(t, out), Config{
		PollInterval: 10 * time.Millisecond,
		StopTimeout:  5 * time.Second,
		Presets:      presets,
	}, nil)
	return r, sup
}

func TestRunReturnsExitCode(t *testing.T) {
	var out syncBuffer
	r, sup := newRunner(t, &out, Presets{})

	code, err := r.Run(context.Background(), process.ShellCommand(`echo hi; echo "@progress>50"; exit 4`))
	require.NoError(t, err)
	assert.Equal(t, 4, code)
	assert.Equal(t, supervisor.Idle, sup.State())

	got := out.String()
	assert.Contains(t, got, "Executing: ")
	assert.Contains(t, got, "hi\n")
	assert.Contains(t, got, "Done (exit 4).")
	assert.Contains(t, got, "Watch")

	v, ok := r.sinks.Table.Get("", "progress")
	assert.True(t, ok)
	assert.Equal(t, "50", v)
}

func TestRunStopsOnCancel(t *testing.T) {
	var out syncBuffer
	r, sup := newRunner(t, &out, Presets{})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	code, err := r.Run(ctx, process.ShellCommand("echo waiting; sleep 30"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, KilledExitCode, code)
	assert.Equal(t, supervisor.Idle, sup.State())
	assert.Contains(t, out.String(), "Killing")
	assert.Contains(t, out.String(), "Done (killed).")
}

func TestRunSpawnError(t *testing.T) {
	var out syncBuffer
	r, _ := newRunner(t, &out, Presets{})

	code, err := r.Run(context.Background(), process.Command{Argv: []string{"/nonexistent/buildwatch"}})
	var spawnErr *process.SpawnError
	assert.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, -1, code)
}

func waitFor(t *testing.T, out *syncBuffer, text string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), text)
	}, 5*time.Second, 10*time.Millisecond, "waiting for %q in:\n%s", text, out.String())
}

func TestInteractiveRestartOrdering(t *testing.T) {
	var out syncBuffer
	r, _ := newRunner(t, &out, Presets{Build: "echo built"})

	in, feed := io.Pipe()
	done := make(chan error, 1)
	go func() { done <- r.Interactive(context.Background(), in) }()

	_, err := io.WriteString(feed, "exec echo first; sleep 30\n")
	require.NoError(t, err)
	waitFor(t, &out, "first")

	_, err = io.WriteString(feed, "build\n")
	require.NoError(t, err)
	waitFor(t, &out, "built")

	_, err = io.WriteString(feed, "bogus\nquit\n")
	require.NoError(t, err)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("interactive mode did not quit")
	}
	feed.Close()

	got := out.String()
	killed := strings.Index(got, "Done (killed).")
	built := strings.Index(got, "Executing: echo built")
	require.NotEqual(t, -1, killed)
	require.NotEqual(t, -1, built)
	assert.Less(t, killed, built)
	assert.Contains(t, got, `unknown command "bogus"`)
}

func TestInteractiveFinishesAtEndOfInput(t *testing.T) {
	var out syncBuffer
	r, sup := newRunner(t, &out, Presets{})

	err := r.Interactive(context.Background(), strings.NewReader("exec echo one; sleep 0.2; echo two\n"))
	require.NoError(t, err)

	assert.Contains(t, out.String(), "two\n")
	assert.Contains(t, out.String(), "Done.")
	assert.Equal(t, supervisor.Idle, sup.State())
}

func TestInteractiveStopsOnCancel(t *testing.T) {
	var out syncBuffer
	r, sup := newRunner(t, &out, Presets{})

	in, feed := io.Pipe()
	defer feed.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Interactive(ctx, in) }()

	_, err := io.WriteString(feed, "exec echo long; sleep 30\n")
	require.NoError(t, err)
	waitFor(t, &out, "long")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("interactive mode did not stop")
	}
	assert.Equal(t, supervisor.Idle, sup.State())
	assert.Contains(t, out.String(), "Done (killed).")
}
