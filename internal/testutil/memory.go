// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"slices"
	"sync"

	"tazq/internal/task"
)

// MemoryBackend is an in-memory store.Persistence for testing.
// It records every saved snapshot.
type MemoryBackend struct {
	mu    sync.Mutex
	tasks []task.Task
	saves [][]task.Task
}

// NewMemoryBackend creates a backend whose Load returns tasks.
func NewMemoryBackend(tasks ...task.Task) *MemoryBackend {
	return &MemoryBackend{tasks: slices.Clone(tasks)}
}

// Load implements store.Persistence.
func (m *MemoryBackend) Load(ctx context.Context) []task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.tasks)
}

// Save implements store.Persistence.
func (m *MemoryBackend) Save(ctx context.Context, tasks []task.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = slices.Clone(tasks)
	m.saves = append(m.saves, slices.Clone(tasks))
}

// Tasks returns the last saved list.
func (m *MemoryBackend) Tasks() []task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.tasks)
}

// SaveCount returns how many times Save was called.
func (m *MemoryBackend) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saves)
}
