package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/buildwatch/internal/app"
	"github.com/GriffinCanCode/buildwatch/internal/console"
	"github.com/GriffinCanCode/buildwatch/internal/domain/process"
	"github.com/GriffinCanCode/buildwatch/internal/domain/supervisor"
	"github.com/GriffinCanCode/buildwatch/internal/infrastructure/config"
	"github.com/GriffinCanCode/buildwatch/internal/infrastructure/logging"
	"github.com/GriffinCanCode/buildwatch/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/buildwatch/internal/infrastructure/server"
)

// spawnFailedCode matches the shell's "command not found" status
const spawnFailedCode = 127

type options struct {
	dir         string
	configPath  string
	format      string
	color       string
	transcript  string
	metricsAddr string
	mode        string
	logLevel    string
	timeout     time.Duration
	interactive bool
}

var opts options

var rootCmd = &cobra.Command{
	Use:   "buildwatch [flags] [--] [command...]",
	Short: "Run build commands and render their tagged output",
	Long: `buildwatch supervises one command at a time and routes every output line.

Lines of the form "@[tab:]tag>value" update the watch table, lines of the form
":tab>text" are logged under tab, and everything else is logged as is.

With a command, buildwatch runs it and exits with its exit code. Without one it
reads control words from stdin: build, run, buildrun, clean, exec <command>,
stop, clear, watch, help and quit.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "settings file (.toml, .yaml or .yml)")
	flags.StringVar(&opts.format, "format", "", "output format: console or json")
	flags.StringVar(&opts.color, "color", "", "color output: auto, always or never")
	flags.StringVar(&opts.transcript, "transcript", "", "also record output to a file (.gz and .zst are compressed)")
	flags.StringVar(&opts.logLevel, "log-level", "", "diagnostics level: debug, info, warn or error")

	local := rootCmd.Flags()
	local.StringVarP(&opts.dir, "dir", "C", "", "run commands in this directory")
	local.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	local.StringVar(&opts.mode, "mode", "", "output capture: auto, pty or pipe")
	local.DurationVar(&opts.timeout, "timeout", 0, "stop the command after this long")
	local.BoolVarP(&opts.interactive, "interactive", "i", false, "read control words from stdin")
	local.SetInterspersed(false)

	rootCmd.AddCommand(routeCmd, configCmd)
}

// loadConfig reads settings and applies flags that were set explicitly
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("format") {
		cfg.Console.Format = opts.format
	}
	if changed("color") {
		cfg.Console.Color = opts.color
	}
	if changed("transcript") {
		cfg.Console.Transcript = opts.transcript
	}
	if changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	if changed("dir") {
		cfg.Supervisor.WorkDir = opts.dir
	}
	if changed("mode") {
		cfg.Supervisor.Mode = opts.mode
	}
	if changed("metrics-addr") {
		cfg.Metrics.Addr = opts.metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) (*logging.Logger, error) {
	lc := logging.DefaultConfig()
	if cfg.Development || logging.IsDevelopment() {
		lc = logging.DevelopmentConfig()
	}
	if cfg.Level != "" {
		lc.Level = cfg.Level
	}
	if cfg.File != "" {
		lc.OutputPaths = []string{cfg.File}
	} else {
		lc.Color = console.IsTerminal(os.Stderr)
	}
	return logging.New(lc)
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := monitoring.NewMetrics()
	if cfg.Metrics.Addr != "" {
		srv := server.New(cfg.Metrics.Addr, metrics, logger.Component("metrics"))
		if err := srv.Listen(); err != nil {
			return err
		}
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Warn("Metrics server stopped", zap.Error(err))
			}
		}()
	}

	supCfg, err := supervisor.ConfigFromSettings(cfg.Supervisor)
	if err != nil {
		return err
	}
	sup := supervisor.New(supCfg,
		supervisor.WithLogger(logger.Component("supervisor")),
		supervisor.WithMetrics(metrics),
	)

	sinks, err := app.BuildSinks(cfg.Console, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Warn("Failed to close transcript", zap.Error(err))
		}
	}()

	runner := app.NewRunner(sup, sinks, app.ConfigFromSettings(cfg), logger.Component("runner"))

	if len(args) == 0 || opts.interactive {
		return runner.Interactive(ctx, cmd.InOrStdin())
	}

	runCtx := ctx
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	code, err := runner.Run(runCtx, commandFrom(args))
	var spawnErr *process.SpawnError
	switch {
	case errors.As(err, &spawnErr):
		return &exitError{code: spawnFailedCode, err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &exitError{code: code, err: fmt.Errorf("timed out after %s", opts.timeout)}
	case errors.Is(err, context.Canceled):
		return &exitError{code: code}
	case err != nil:
		return err
	case code != 0:
		return &exitError{code: code}
	}
	return nil
}

// commandFrom treats a single argument as a shell command line and several
// as an argv.
func commandFrom(args []string) process.Command {
	if len(args) == 1 {
		return process.ShellCommand(args[0])
	}
	return process.Command{Argv: append([]string(nil), args...)}
}
