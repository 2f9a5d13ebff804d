// Package store holds the canonical, ordered task list.
//
// A Store is the single source of truth between saves. Every successful
// mutation replaces the list with a new slice, asks the Persistence to save
// the full snapshot, then notifies subscribers. Persistence failures are the
// backend's to report; they never undo an in-memory change.
//
// A Store has one logical owner and performs no locking.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"tazq/internal/task"
)

// Persistence loads and saves the full task list.
// Implementations report failures themselves instead of returning them.
// Loaded entries that break the store's invariants are dropped by New.
type Persistence interface {
	// Load returns the last saved list, or an empty list if none can be read.
	Load(ctx context.Context) []task.Task

	// Save replaces the stored document with tasks.
	Save(ctx context.Context, tasks []task.Task)
}

// Observer receives a snapshot of the list after every change.
type Observer func(tasks []task.Task)

type subscription struct {
	id int
	fn Observer
}

// Store owns the task list.
type Store struct {
	persistence Persistence
	logger      *slog.Logger

	tasks   []task.Task
	subs    []subscription
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for mutation debug output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a store seeded from p.Load.
func New(ctx context.Context, p Persistence, opts ...Option) *Store {
	s := &Store{
		persistence: p,
		logger:      slog.Default().WithGroup("store"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.tasks = s.admit(p.Load(ctx))
	s.logger.Debug("store loaded", slog.Int("tasks", len(s.tasks)))
	return s
}

// admit keeps the loaded tasks a store may hold: valid, with trimmed titles
// and no repeated ids. The first occurrence of an id wins.
func (s *Store) admit(loaded []task.Task) []task.Task {
	out := make([]task.Task, 0, len(loaded))
	seen := make(map[int]bool, len(loaded))
	for _, t := range loaded {
		if err := t.Validate(); err != nil {
			s.logger.Warn("dropping invalid loaded task", slog.Int("id", t.ID), slog.String("error", err.Error()))
			continue
		}
		if seen[t.ID] {
			s.logger.Warn("dropping loaded task with duplicate id", slog.Int("id", t.ID))
			continue
		}
		seen[t.ID] = true
		t.Title, _ = task.NormalizeTitle(t.Title)
		out = append(out, t)
	}
	return out
}

// All returns a copy of the current list. It is never nil.
func (s *Store) All() []task.Task {
	return s.snapshot()
}

// Add appends a task with the trimmed title and the next free id.
func (s *Store) Add(ctx context.Context, title string) (task.Task, error) {
	title, err := task.NormalizeTitle(title)
	if err != nil {
		return task.Task{}, err
	}

	t := task.Task{ID: s.nextID(), Title: title}
	next := make([]task.Task, 0, len(s.tasks)+1)
	next = append(next, s.tasks...)
	next = append(next, t)

	s.commit(ctx, next)
	s.logger.Debug("added task", slog.Int("id", t.ID))
	return t, nil
}

// Update replaces the title of the task with the given id.
// The task keeps its id and position.
func (s *Store) Update(ctx context.Context, id int, title string) (task.Task, error) {
	title, err := task.NormalizeTitle(title)
	if err != nil {
		return task.Task{}, err
	}

	i := s.indexOf(id)
	if i < 0 {
		return task.Task{}, notFound(id)
	}

	next := slices.Clone(s.tasks)
	next[i].Title = title

	s.commit(ctx, next)
	s.logger.Debug("updated task", slog.Int("id", id))
	return next[i], nil
}

// Delete removes the task with the given id and reports the index it held.
func (s *Store) Delete(ctx context.Context, id int) (task.Removed, error) {
	i := s.indexOf(id)
	if i < 0 {
		return task.Removed{}, notFound(id)
	}

	removed := task.Removed{Task: s.tasks[i], Position: i}
	next := slices.Delete(slices.Clone(s.tasks), i, i+1)

	s.commit(ctx, next)
	s.logger.Debug("deleted task", slog.Int("id", id), slog.Int("position", i))
	return removed, nil
}

// RestoreAt inserts t at position, clamped to [0, len].
// It fails if t is not a valid task or its id is already in use.
func (s *Store) RestoreAt(ctx context.Context, t task.Task, position int) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if s.indexOf(t.ID) >= 0 {
		return fmt.Errorf("%w: id already in use: %d", task.ErrValidation, t.ID)
	}

	position = max(0, min(position, len(s.tasks)))
	t.Title, _ = task.NormalizeTitle(t.Title)
	next := slices.Insert(slices.Clone(s.tasks), position, t)

	s.commit(ctx, next)
	s.logger.Debug("restored task", slog.Int("id", t.ID), slog.Int("position", position))
	return nil
}

// Subscribe registers fn and calls it once with the current list.
// The returned function removes the subscription; calling it again is a no-op.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	fn(s.snapshot())

	return func() {
		s.subs = slices.DeleteFunc(s.subs, func(sub subscription) bool {
			return sub.id == id
		})
	}
}

// commit installs next as the current list, saves it and notifies.
func (s *Store) commit(ctx context.Context, next []task.Task) {
	s.tasks = next
	s.persistence.Save(ctx, s.snapshot())

	// Copy so an observer unsubscribing during delivery does not shift the slice.
	subs := slices.Clone(s.subs)
	for _, sub := range subs {
		sub.fn(s.snapshot())
	}
}

func (s *Store) snapshot() []task.Task {
	out := make([]task.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Store) indexOf(id int) int {
	return slices.IndexFunc(s.tasks, func(t task.Task) bool { return t.ID == id })
}

// nextID is one past the highest id in the list, or 1 when it is empty.
func (s *Store) nextID() int {
	highest := 0
	for _, t := range s.tasks {
		highest = max(highest, t.ID)
	}
	return highest + 1
}

func notFound(id int) error {
	return fmt.Errorf("%w: %d", task.ErrNotFound, id)
}
