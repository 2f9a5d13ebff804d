package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"

	"tazq/internal/config"
	"tazq/internal/exitcode"
	"tazq/internal/output"
	"tazq/internal/service"
)

func init() {
	Register(&ExportCmd{})
}

// ExportCmd writes the task list to stdout in a machine-readable format.
type ExportCmd struct {
	format string
}

// SetFormat sets the export format (for testing).
func (c *ExportCmd) SetFormat(format string) {
	c.format = format
}

func (c *ExportCmd) Name() string      { return "export" }
func (c *ExportCmd) Aliases() []string { return nil }
func (c *ExportCmd) Synopsis() string  { return "Print tasks as json, yaml or toml" }
func (c *ExportCmd) Usage() string     { return "tazq export [--format json|yaml|toml]" }
func (c *ExportCmd) NeedsStore() bool  { return true }

func (c *ExportCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.format, "format", output.FormatJSON, "")
	fs.StringVar(&c.format, "f", output.FormatJSON, "")
}

func (c *ExportCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	format := strings.ToLower(c.format)
	if format == "" {
		format = output.FormatJSON
	}
	if !slices.Contains(output.Formats, format) {
		fmt.Fprintf(errOut, "error: unknown format: %s\n", c.format)
		return exitcode.UserError
	}

	if err := output.Export(out, format, svc.All()); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.StorageError
	}
	return exitcode.Success
}
