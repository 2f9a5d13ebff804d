// Package task defines the task entity and the errors shared by the store
// and its persistence backends.
package task

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrValidation indicates rejected input: a blank title, or an id that
	// would collide with a task already in the store.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates an operation referenced an id the store does not hold.
	ErrNotFound = errors.New("task not found")

	// ErrPersistence indicates the backing document could not be read or written.
	ErrPersistence = errors.New("persistence failed")
)

// Task is a single entry of the task list.
type Task struct {
	ID    int    `json:"id" yaml:"id" toml:"id"`
	Title string `json:"title" yaml:"title" toml:"title"`
}

// Removed is a task taken out of the list together with the index it
// occupied before removal. Passing both back to restore puts the list back
// in its previous order.
type Removed struct {
	Task     Task `json:"task"`
	Position int  `json:"position"`
}

// NormalizeTitle trims surrounding whitespace and rejects titles that are
// empty afterwards. Titles must be valid UTF-8 so they survive a JSON round
// trip unchanged.
func NormalizeTitle(title string) (string, error) {
	if !utf8.ValidString(title) {
		return "", fmt.Errorf("%w: title is not valid UTF-8", ErrValidation)
	}
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	return trimmed, nil
}

// Validate checks that t could be held by a store.
func (t Task) Validate() error {
	if t.ID < 1 {
		return fmt.Errorf("%w: invalid id: %d", ErrValidation, t.ID)
	}
	if _, err := NormalizeTitle(t.Title); err != nil {
		return err
	}
	return nil
}

// String renders the task for log lines.
func (t Task) String() string {
	return fmt.Sprintf("#%d %q", t.ID, t.Title)
}
