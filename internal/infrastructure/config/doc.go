// Package config provides 12-factor configuration management for buildwatch.
//
// Configuration starts from built-in defaults, is overlaid by an optional
// settings file (TOML or YAML, chosen by extension) and finally by
// environment variables. CLI flags override all of these.
//
// Configuration Sections:
//   - Supervisor: output mode, shell, working directory, terminate grace
//   - Commands: command lines behind the build/run/buildrun/clean presets
//   - Console: poll interval, output format, color, transcript file
//   - Logging: Log level and output format
//   - Metrics: Prometheus endpoint address
//
// Settings files carry a version. Older layouts are upgraded by Migrate,
// one version step at a time.
//
// Example Usage:
//
//	cfg, err := config.Load("buildwatch.toml")
//	if err != nil {
//		return err
//	}
//	fmt.Println(cfg.Commands.Build)
//
// Environment Variables:
//   - BUILDWATCH_MODE, BUILDWATCH_SHELL, BUILDWATCH_DIR, BUILDWATCH_TERMINATE_GRACE
//   - BUILDWATCH_BUILD_CMD, BUILDWATCH_RUN_CMD, BUILDWATCH_BUILDRUN_CMD, BUILDWATCH_CLEAN_CMD
//   - BUILDWATCH_POLL_INTERVAL, BUILDWATCH_FORMAT, BUILDWATCH_COLOR, BUILDWATCH_TRANSCRIPT
//   - LOG_LEVEL, LOG_DEV, LOG_FILE
//   - BUILDWATCH_METRICS_ADDR
package config
