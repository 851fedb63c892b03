// Package process spawns one external command with merged output capture
// and process-group cancellation.
//
// Output attachment is a capability chosen once per spawn:
//   - pty: POSIX pseudo-terminal via creack/pty. The child sees an
//     interactive terminal, so compilers keep line buffering and color.
//   - pipe: a single pipe carrying both stdout and stderr. Used on Windows
//     and whenever no pseudo-terminal can be allocated. Color is disabled
//     through the environment.
//
// Every child leads its own process group, and Terminate signals the whole
// group so helpers forked by build tools do not outlive the session.
//
// Example Usage:
//
//	s, err := process.Spawn(process.ShellCommand("make -j8"), process.Options{})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//	for line := range s.Lines() {
//		fmt.Println(line)
//	}
//	status := s.Wait()
package process
