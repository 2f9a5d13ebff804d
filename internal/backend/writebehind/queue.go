// Package writebehind turns a synchronous task document writer into an
// asynchronous store.Persistence.
//
// Saves are handed to a single worker goroutine, so writes never overlap.
// Only the newest snapshot matters: one that arrives while another is still
// pending replaces it. Failed writes are retried with exponential backoff
// until they succeed, run out of attempts, or a newer snapshot supersedes them.
package writebehind

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"tazq/internal/task"
)

// Writer is the synchronous backend the queue drains into.
type Writer interface {
	Load(ctx context.Context) []task.Task
	Write(ctx context.Context, tasks []task.Task) error
}

// RetryConfig bounds how hard a failed write is retried.
type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultRetryConfig returns the retry policy used when none is configured.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Multiplier:      2.0,
	}
}

var errSuperseded = errors.New("superseded by a newer snapshot")

// Queue is a write-behind store.Persistence.
type Queue struct {
	backend Writer
	retry   RetryConfig
	logger  *slog.Logger

	mu         sync.Mutex
	pending    []task.Task
	hasPending bool
	accepted   uint64 // snapshots handed to Save
	settled    uint64 // highest accepted snapshot written or abandoned
	lastErr    error
	closed     bool
	changed    chan struct{} // closed and replaced whenever settled advances

	wake      chan struct{}
	stop      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger for write failures and retries.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) { q.logger = l }
}

// New starts a queue draining into backend.
func New(backend Writer, retry RetryConfig, opts ...Option) *Queue {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 1
	}
	if retry.Multiplier < 1 {
		retry.Multiplier = 1
	}

	q := &Queue{
		backend: backend,
		retry:   retry,
		logger:  slog.Default().WithGroup("writebehind"),
		changed: make(chan struct{}),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}

	go q.run()
	return q
}

// Load implements store.Persistence. It reads the backend synchronously.
func (q *Queue) Load(ctx context.Context) []task.Task {
	return q.backend.Load(ctx)
}

// Save implements store.Persistence. It never blocks on I/O.
func (q *Queue) Save(ctx context.Context, tasks []task.Task) {
	snapshot := slices.Clone(tasks)
	if snapshot == nil {
		snapshot = []task.Task{}
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("save after close dropped", slog.Int("tasks", len(snapshot)))
		return
	}
	q.pending = snapshot
	q.hasPending = true
	q.accepted++
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Flush waits until every snapshot saved before the call has been written
// or abandoned. It returns the error of the most recent write, if it failed.
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.Lock()
	target := q.accepted
	for q.settled < target {
		ch := q.changed
		q.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		q.mu.Lock()
	}
	err := q.lastErr
	q.mu.Unlock()
	return err
}

// Close drains outstanding saves, stops the worker and returns the error of
// the last write if it failed. Close may be called more than once.
func (q *Queue) Close(ctx context.Context) error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
		close(q.stop)
	})

	select {
	case <-q.exited:
	case <-ctx.Done():
		return ctx.Err()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastErr
}

func (q *Queue) run() {
	defer close(q.exited)
	for {
		select {
		case <-q.wake:
			q.drain()
		case <-q.stop:
			q.drain()
			return
		}
	}
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if !q.hasPending {
			q.mu.Unlock()
			return
		}
		snapshot, seq := q.pending, q.accepted
		q.pending, q.hasPending = nil, false
		q.mu.Unlock()

		err := q.write(snapshot)

		q.mu.Lock()
		if !errors.Is(err, errSuperseded) {
			q.lastErr = err
		}
		q.settled = seq
		close(q.changed)
		q.changed = make(chan struct{})
		q.mu.Unlock()
	}
}

func (q *Queue) write(snapshot []task.Task) error {
	interval := q.retry.InitialInterval

	for attempt := 1; ; attempt++ {
		err := q.backend.Write(context.Background(), snapshot)
		if err == nil {
			return nil
		}

		if attempt >= q.retry.MaxAttempts {
			q.logger.Error("giving up on saving tasks",
				slog.String("error", err.Error()),
				slog.Int("attempts", attempt))
			return err
		}
		if q.superseded() {
			q.logger.Debug("dropping failed snapshot for a newer one", slog.Int("attempt", attempt))
			return errSuperseded
		}

		q.logger.Debug("retrying save",
			slog.Int("attempt", attempt),
			slog.Duration("next_interval", interval),
			slog.String("error", err.Error()))

		time.Sleep(interval)
		if q.superseded() {
			return errSuperseded
		}

		interval = time.Duration(float64(interval) * q.retry.Multiplier)
		if q.retry.MaxInterval > 0 && interval > q.retry.MaxInterval {
			interval = q.retry.MaxInterval
		}
	}
}

func (q *Queue) superseded() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.hasPending
}
