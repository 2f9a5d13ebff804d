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
	"tazq/internal/undo"
)

func init() {
	Register(&UndoCmd{})
}

// UndoCmd restores the task removed by the last rm.
type UndoCmd struct{}

func (c *UndoCmd) Name() string      { return "undo" }
func (c *UndoCmd) Aliases() []string { return nil }
func (c *UndoCmd) Synopsis() string  { return "Restore the last deleted task" }
func (c *UndoCmd) Usage() string     { return "tazq undo" }
func (c *UndoCmd) NeedsStore() bool  { return true }

func (c *UndoCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UndoCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	removed, err := undo.Peek(cfg.UndoPath())
	if err != nil {
		if errors.Is(err, undo.ErrNothingToUndo) {
			fmt.Fprintln(errOut, "error: nothing to undo")
			return exitcode.UserError
		}
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.StorageError
	}

	restoreErr := svc.RestoreAt(ctx, removed.Task, removed.Position)
	if restoreErr != nil && !errors.Is(restoreErr, task.ErrValidation) {
		return reportError(errOut, restoreErr)
	}

	// A record the store rejects will never apply, so it is dropped too.
	if err := undo.Clear(cfg.UndoPath()); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.StorageError
	}
	if restoreErr != nil {
		fmt.Fprintf(errOut, "error: cannot undo: %v\n", restoreErr)
		return exitcode.UserError
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "restored %d\n", removed.Task.ID)
	}
	return exitcode.Success
}
