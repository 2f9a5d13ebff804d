package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"tazq/internal/config"
	"tazq/internal/exitcode"
	"tazq/internal/service"
	"tazq/internal/undo"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task (undo with: tazq undo)" }
func (c *RmCmd) Usage() string     { return "tazq rm <id>" }
func (c *RmCmd) NeedsStore() bool  { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if len(args) > 1 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return exitcode.UserError
	}

	removed, err := svc.Delete(ctx, id)
	if err != nil {
		return reportError(errOut, err)
	}

	// The task is gone either way; a lost undo record only costs the undo.
	if err := undo.Record(cfg.UndoPath(), removed); err != nil {
		slog.Default().Warn("failed to record undo",
			slog.String("path", cfg.UndoPath()),
			slog.String("error", err.Error()))
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
