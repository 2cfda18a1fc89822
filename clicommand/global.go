package clicommand

import (
	"context"
	"fmt"
	"os"

	"github.com/gantry-ci/gantry/cliconfig"
	"github.com/gantry-ci/gantry/internal/experiments"
	"github.com/gantry-ci/gantry/logger"
	"github.com/oleiade/reflections"
	"github.com/urfave/cli"
)

var DebugFlag = cli.BoolFlag{
	Name:   "debug",
	Usage:  "Enable debug mode. Synonym for --log-level debug, and takes precedence over it",
	EnvVar: "GANTRY_DEBUG",
}

var LogLevelFlag = cli.StringFlag{
	Name:   "log-level",
	Value:  "notice",
	Usage:  "Set the log level, valid levels are: debug, notice, info, error, warn, fatal",
	EnvVar: "GANTRY_LOG_LEVEL",
}

var LogFormatFlag = cli.StringFlag{
	Name:   "log-format",
	Value:  "text",
	Usage:  "The format to use for the logger output, either text or json",
	EnvVar: "GANTRY_LOG_FORMAT",
}

var NoColorFlag = cli.BoolFlag{
	Name:   "no-color",
	Usage:  "Disable colors in log output",
	EnvVar: "GANTRY_NO_COLOR",
}

var ExperimentsFlag = cli.StringSliceFlag{
	Name:   "experiment",
	Value:  &cli.StringSlice{},
	Usage:  "Turn on experimental gantry features",
	EnvVar: "GANTRY_EXPERIMENT",
}

var ProfileFlag = cli.StringFlag{
	Name:   "profile",
	Usage:  "Collect a profile while the command runs: cpu, mem, mutex, block, thread, or trace",
	EnvVar: "GANTRY_PROFILE",
}

var ConfigFlag = cli.StringFlag{
	Name:   "config",
	Usage:  "Path to a configuration file with default values for the command's flags",
	EnvVar: "GANTRY_CONFIG",
}

var DebugHTTPFlag = cli.BoolFlag{
	Name:   "debug-http",
	Usage:  "Dump all HTTP request and response bodies to the log",
	EnvVar: "GANTRY_DEBUG_HTTP",
}

var TraceHTTPFlag = cli.BoolFlag{
	Name:   "trace-http",
	Usage:  "Log connection and transfer timings for each HTTP request",
	EnvVar: "GANTRY_TRACE_HTTP",
}

var NoHTTP2Flag = cli.BoolFlag{
	Name:   "no-http2",
	Usage:  "Disable HTTP2 when communicating with the documentation host",
	EnvVar: "GANTRY_NO_HTTP2",
}

var BranchFlag = cli.StringFlag{
	Name:   "branch",
	Usage:  "The branch the run was triggered from. Deployment targets are included only when their branch guard matches",
	EnvVar: "GANTRY_BRANCH",
}

var VarFlag = cli.StringSliceFlag{
	Name:   "var",
	Value:  &cli.StringSlice{},
	Usage:  "A KEY=value secret for template resolution. Can be given multiple times; takes precedence over --secrets-file and --env",
	EnvVar: "GANTRY_VAR",
}

var SecretsFileFlag = cli.StringFlag{
	Name:   "secrets-file",
	Usage:  "Path to a dotenv-format file of secrets for template resolution",
	EnvVar: "GANTRY_SECRETS_FILE",
}

var ProcessEnvFlag = cli.BoolFlag{
	Name:   "env",
	Usage:  "Also resolve secrets from the process environment, as the lowest-precedence source",
	EnvVar: "GANTRY_USE_PROCESS_ENV",
}

// CreateLogger creates a logger based on the Debug, LogLevel, LogFormat and
// NoColor fields of the given config struct, any of which may be absent.
func CreateLogger(cfg any) logger.Logger {
	var l logger.Logger
	logFormat := "text"

	if logFormatCfg, err := reflections.GetField(cfg, "LogFormat"); err == nil {
		if s, ok := logFormatCfg.(string); ok && s != "" {
			logFormat = s
		}
	}

	switch logFormat {
	case "text":
		printer := logger.NewTextPrinter(os.Stderr)
		if noColor, err := reflections.GetField(cfg, "NoColor"); err == nil && noColor == true {
			printer.Colors = false
		}
		l = logger.NewConsoleLogger(printer, os.Exit)
	case "json":
		l = logger.NewConsoleLogger(logger.NewJSONPrinter(os.Stderr), os.Exit)
	default:
		fmt.Fprintf(os.Stderr, "Unknown log format %q, must be one of: text, json\n", logFormat)
		os.Exit(1)
	}

	// --debug wins over --log-level
	if debug, err := reflections.GetField(cfg, "Debug"); err == nil && debug == true {
		l.SetLevel(logger.DEBUG)
		return l
	}

	if levelCfg, err := reflections.GetField(cfg, "LogLevel"); err == nil {
		if s, ok := levelCfg.(string); ok && s != "" {
			level, err := logger.LevelFromString(s)
			if err != nil {
				l.Fatal("%s", err)
			}
			l.SetLevel(level)
		}
	}

	return l
}

// setupLoggerAndConfig derives the common command environment from the CLI
// context: it loads the config struct for the command, creates a logger per
// the global flags, enables requested experiments in the returned context,
// and starts a profiling session when one was asked for. The returned done
// func ends that session, so defer it.
func setupLoggerAndConfig[T any](ctx context.Context, c *cli.Context) (
	newCtx context.Context,
	cfg T,
	l logger.Logger,
	f *cliconfig.File,
	done func(),
) {
	loader := cliconfig.Loader{CLI: c, Config: &cfg}
	warnings, err := loader.Load()
	if err != nil {
		fmt.Fprintf(c.App.ErrWriter, "%s\n", err)
		os.Exit(1)
	}

	l = CreateLogger(&cfg)

	// Config loading happens before a logger exists, so its warnings are
	// delivered late.
	for _, warning := range warnings {
		l.Warn("%s", warning)
	}

	ctx = handleExperiments(ctx, l, &cfg)
	done = handleProfileFlag(l, &cfg)

	return ctx, cfg, l, loader.File, done
}

// handleExperiments enables each experiment named in the config's
// Experiments field, if it has one, in a new context.
func handleExperiments(ctx context.Context, l logger.Logger, cfg any) context.Context {
	names, err := reflections.GetField(cfg, "Experiments")
	if err != nil {
		return ctx
	}
	nameSlice, ok := names.([]string)
	if !ok {
		return ctx
	}

	for _, name := range nameSlice {
		newCtx, state := experiments.EnableWithWarnings(ctx, l, name)
		if state == experiments.StateKnown {
			l.Debug("Enabled experiment %q", name)
		}
		ctx = newCtx
	}
	return ctx
}

// handleProfileFlag starts a profiling session if the config's Profile field
// asks for one, returning the func that ends it.
func handleProfileFlag(l logger.Logger, cfg any) func() {
	if mode, err := reflections.GetField(cfg, "Profile"); err == nil {
		if modeStr, ok := mode.(string); ok && modeStr != "" {
			return Profile(l, modeStr)
		}
	}
	return func() {}
}
