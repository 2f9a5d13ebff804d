// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"tazq/internal/task"
)

// FormatTask formats a task line.
// Format: "{ID:>4}  {TITLE}\n" (4-wide right-aligned id, two spaces, title)
func FormatTask(w io.Writer, t task.Task) {
	fmt.Fprintf(w, "%4d  %s\n", t.ID, normalizeTitle(t.Title))
}

// FormatTasks formats every task in list order.
func FormatTasks(w io.Writer, tasks []task.Task) {
	for _, t := range tasks {
		FormatTask(w, t)
	}
}

// normalizeTitle normalizes a task title for display.
// Newlines are replaced with spaces so each task stays on one line.
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	return strings.ReplaceAll(title, "\n", " ")
}
