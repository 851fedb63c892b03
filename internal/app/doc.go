// Package app connects a supervisor to its output sinks.
//
// Runner is the consumer side: it polls the supervisor on a timer, hands
// log lines and watch updates to the configured sinks, and redraws the watch
// table at a bounded rate. It drives either a single command (Run) or an
// interactive session controlled by words read from a reader (Interactive).
//
// Example Usage:
//
//	sinks, err := app.BuildSinks(cfg.Console, os.Stdout)
//	if err != nil {
//	    return err
//	}
//	defer sinks.Close()
//	runner := app.NewRunner(sup, sinks, app.ConfigFromSettings(cfg), logger)
//	code, err := runner.Run(ctx, process.ShellCommand("scons"))
package app
