// Package undo remembers the last deleted task between invocations.
package undo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"tazq/internal/task"
)

// ErrNothingToUndo is returned by Peek when no deletion is recorded.
var ErrNothingToUndo = errors.New("nothing to undo")

// Record stores r at path, replacing any earlier record.
func Record(path string, r task.Removed) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Peek returns the recorded deletion without clearing it.
func Peek(path string) (task.Removed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return task.Removed{}, ErrNothingToUndo
		}
		return task.Removed{}, err
	}
	var r task.Removed
	if err := json.Unmarshal(data, &r); err != nil {
		return task.Removed{}, fmt.Errorf("corrupt undo record %s: %w", path, err)
	}
	return r, nil
}

// Clear forgets the recorded deletion. Clearing nothing is not an error.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
