// Package jsonfile persists the task list as a JSON array in a local file.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tazq/internal/task"
)

const (
	dirMode  = 0700
	fileMode = 0600
)

// File reads and writes one task document.
type File struct {
	path   string
	logger *slog.Logger
}

// Option configures a File.
type Option func(*File)

// WithLogger sets the logger that receives load and save failures.
func WithLogger(l *slog.Logger) Option {
	return func(f *File) { f.logger = l }
}

// New creates a File backed by path. The file need not exist.
func New(path string, opts ...Option) *File {
	f := &File{
		path:   path,
		logger: slog.Default().WithGroup("jsonfile"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Load implements store.Persistence. Any failure yields an empty list.
func (f *File) Load(ctx context.Context) []task.Task {
	tasks, err := f.Read(ctx)
	if err != nil {
		f.logger.Error("failed to load tasks, starting empty",
			slog.String("path", f.path),
			slog.String("error", err.Error()))
		return []task.Task{}
	}
	return tasks
}

// Save implements store.Persistence. Failures are logged.
func (f *File) Save(ctx context.Context, tasks []task.Task) {
	if err := f.Write(ctx, tasks); err != nil {
		f.logger.Error("failed to save tasks",
			slog.String("path", f.path),
			slog.String("error", err.Error()))
	}
}

// Read parses the document. A missing file is an empty list.
// Entries that could not be held by a store are dropped.
func (f *File) Read(ctx context.Context) ([]task.Task, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			f.logger.Debug("no task document yet", slog.String("path", f.path))
			return []task.Task{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %w", task.ErrPersistence, f.path, err)
	}

	tasks, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", task.ErrPersistence, f.path, err)
	}
	return f.sanitize(tasks), nil
}

// Write replaces the document with tasks.
// The new content is written to a temporary file and renamed into place.
func (f *File) Write(ctx context.Context, tasks []task.Task) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", task.ErrPersistence, err)
	}

	data, err := Encode(tasks)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", task.ErrPersistence, err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("%w: create %s: %w", task.ErrPersistence, dir, err)
	}

	if err := writeAtomic(f.path, data); err != nil {
		return fmt.Errorf("%w: write %s: %w", task.ErrPersistence, f.path, err)
	}

	f.logger.Debug("saved tasks", slog.String("path", f.path), slog.Int("tasks", len(tasks)))
	return nil
}

// sanitize drops entries with a bad id, a blank title or a repeated id.
func (f *File) sanitize(tasks []task.Task) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	seen := make(map[int]bool, len(tasks))
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			f.logger.Warn("skipping invalid task", slog.Int("id", t.ID), slog.String("error", err.Error()))
			continue
		}
		if seen[t.ID] {
			f.logger.Warn("skipping task with duplicate id", slog.Int("id", t.ID))
			continue
		}
		seen[t.ID] = true
		t.Title = strings.TrimSpace(t.Title)
		out = append(out, t)
	}
	return out
}

// Encode renders tasks as the persisted JSON array. A nil list encodes as [].
func Encode(tasks []task.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode parses a persisted JSON array. An empty or whitespace-only
// document, or a literal null, is an empty list.
func Decode(data []byte) ([]task.Task, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []task.Task{}, nil
	}
	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
