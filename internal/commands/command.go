// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"tazq/internal/config"
	"tazq/internal/exitcode"
	"tazq/internal/service"
	"tazq/internal/task"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsStore returns true if the command reads or changes tasks.
	// Commands like help and version return false.
	NeedsStore() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths).
	// svc is nil if NeedsStore() returns false.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int
}

// reportError prints a store error and maps it to an exit code.
func reportError(errOut io.Writer, err error) int {
	fmt.Fprintf(errOut, "error: %v\n", err)
	if errors.Is(err, task.ErrValidation) || errors.Is(err, task.ErrNotFound) {
		return exitcode.UserError
	}
	return exitcode.StorageError
}
