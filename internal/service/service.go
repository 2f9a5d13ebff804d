// Package service defines the task operations commands depend on.
package service

import (
	"context"

	"tazq/internal/task"
)

// Service is the task list as seen by commands.
// *store.Store is the implementation; commands never touch persistence.
type Service interface {
	// All returns the current list in display order.
	All() []task.Task

	// Add creates a task with the next free id at the end of the list.
	Add(ctx context.Context, title string) (task.Task, error)

	// Update replaces the title of task id, keeping its position.
	Update(ctx context.Context, id int, title string) (task.Task, error)

	// Delete removes task id and reports its former position.
	Delete(ctx context.Context, id int) (task.Removed, error)

	// RestoreAt reinserts a removed task. Position is clamped to the list.
	RestoreAt(ctx context.Context, t task.Task, position int) error
}
