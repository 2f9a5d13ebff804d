package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"tazq/internal/commands"
	"tazq/internal/config"
	"tazq/internal/exitcode"
	"tazq/internal/logging"
	"tazq/internal/service"
)

// ServiceFactory creates a Service from config.
// The returned close function flushes pending writes and is called once the
// command has finished.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (service.Service, func(context.Context) error, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> list
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// Flags require a command
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		reportFlagError(errOut, err)
		return exitcode.UserError
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") && positionalArgs[0] != "-" {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.ConfigError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	slog.SetDefault(logging.New(errOut, cfg.LogLevel, cfg.Debug))

	if !cmd.NeedsStore() || d.factory == nil {
		return cmd.Run(ctx, cfg, nil, positionalArgs, out, errOut)
	}

	svc, closeFn, err := d.factory(ctx, cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.StorageError
	}

	code := cmd.Run(ctx, cfg, svc, positionalArgs, out, errOut)
	if closeFn == nil {
		return code
	}
	// Close with a fresh context so an interrupt still lets pending writes land.
	if err := closeFn(context.WithoutCancel(ctx)); err != nil {
		fmt.Fprintf(errOut, "error: failed to save tasks: %s\n", err)
		if code == exitcode.Success {
			code = exitcode.StorageError
		}
	}
	return code
}

func reportFlagError(errOut io.Writer, err error) {
	errStr := err.Error()

	// Missing flag value
	if strings.Contains(errStr, "flag needs an argument") {
		flagName := strings.TrimSpace(strings.TrimPrefix(errStr, "flag needs an argument:"))
		fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", flagName)
		return
	}

	// Unknown flag
	if flagName, ok := strings.CutPrefix(errStr, "flag provided but not defined: "); ok {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
		return
	}

	fmt.Fprintf(errOut, "error: %s\n", errStr)
}
