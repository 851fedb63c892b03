// Package supervisor runs one command at a time and hands its routed output
// to a consumer.
//
// A Supervisor moves between Idle, Running and Stopping. Start spawns a
// process session and a capture goroutine that classifies every output line
// and pushes it onto an unbounded queue. The consumer drains that queue with
// Poll from a timer, or blocks in Next. Each session ends with a single
// "Done" event that carries the exit status.
//
// Stop signals the whole process group and returns only after the capture
// goroutine has finished and the process has been reaped, so a Start that
// follows it never shares the queue with output from the previous session.
// A group that ignores the signal is killed after the grace period whether
// or not the caller is still waiting.
//
//	sup := supervisor.New(supervisor.DefaultConfig(), supervisor.WithLogger(log))
//	if _, err := sup.Start(ctx, process.ShellCommand("scons")); err != nil {
//		return err
//	}
//	for _, ev := range sup.Poll() {
//		render(ev)
//	}
package supervisor
