// Package task runs background work under supervision.
//
// Every task gets a uuid and a context cancelled at shutdown. A task
// that returns an error or panics is recorded as failed and reported to
// the failure callback, so background problems reach the user instead
// of disappearing with the goroutine.
package task

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/burrow/internal/logging"
)

// Sentinel errors.
var (
	// ErrShutdown is returned when starting a task after Shutdown.
	ErrShutdown = errors.New("supervisor is shutting down")

	// ErrTooManyTasks is returned when the task limit is reached.
	ErrTooManyTasks = errors.New("task limit reached")

	// ErrShutdownTimeout is returned when tasks outlive the shutdown
	// timeout.
	ErrShutdownTimeout = errors.New("tasks did not stop in time")
)

// State is a task's lifecycle state.
type State int32

const (
	StateRunning State = iota
	StateDone
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Func is the body of a task. It should return when ctx is done.
type Func func(ctx context.Context) error

// PanicError is the failure recorded for a task that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Task is one supervised goroutine.
type Task struct {
	ID      string
	Name    string
	Started time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	state    State
	err      error
	finished time.Time
}

// State returns the task's current state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the failure, nil unless the task failed.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Finished returns when the task ended, zero while it runs.
func (t *Task) Finished() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finished
}

// Done is closed when the task ends.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel asks the task to stop.
func (t *Task) Cancel() { t.cancel() }

func (t *Task) settle(state State, err error) {
	t.mu.Lock()
	t.state, t.err, t.finished = state, err, time.Now()
	t.mu.Unlock()
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithMaxTasks limits how many tasks run at once. Zero means no limit.
func WithMaxTasks(n int) Option {
	return func(s *Supervisor) {
		if n > 0 {
			s.group.SetLimit(n)
		}
	}
}

// WithFailureCallback sets a function called for every failed task.
func WithFailureCallback(fn func(t *Task)) Option {
	return func(s *Supervisor) { s.onFailure = fn }
}

// WithLogger sets the supervisor's logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Supervisor) { s.log = l }
}

// Supervisor starts, tracks and stops tasks. It is safe for concurrent
// use.
type Supervisor struct {
	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group
	closed atomic.Bool
	log    *logging.Logger

	onFailure func(t *Task)

	mu       sync.RWMutex
	tasks    map[string]*Task
	failures []*Task
}

// NewSupervisor creates a supervisor.
func NewSupervisor(opts ...Option) *Supervisor {
	s := &Supervisor{
		tasks: make(map[string]*Task),
		log:   logging.Discard,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("task")
	return s
}

// Go starts fn as a task named name.
func (s *Supervisor) Go(name string, fn Func) (*Task, error) {
	if s.closed.Load() {
		return nil, ErrShutdown
	}
	ctx, cancel := context.WithCancel(s.ctx)
	t := &Task{
		ID:      uuid.NewString(),
		Name:    name,
		Started: time.Now(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()

	if !s.group.TryGo(func() error { return s.run(ctx, t, fn) }) {
		cancel()
		s.mu.Lock()
		delete(s.tasks, t.ID)
		s.mu.Unlock()
		return nil, ErrTooManyTasks
	}
	s.log.Debug("started task %s (%s)", t.Name, t.ID)
	return t, nil
}

func (s *Supervisor) run(ctx context.Context, t *Task, fn Func) (err error) {
	defer t.cancel()
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
		s.complete(ctx, t, err)
	}()
	return fn(ctx)
}

func (s *Supervisor) complete(ctx context.Context, t *Task, err error) {
	defer close(t.done)
	s.mu.Lock()
	delete(s.tasks, t.ID)
	s.mu.Unlock()

	switch {
	case err == nil:
		t.settle(StateDone, nil)
		s.log.Debug("task %s finished", t.Name)
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		t.settle(StateCancelled, nil)
		s.log.Debug("task %s cancelled", t.Name)
	default:
		t.settle(StateFailed, err)
		s.log.WithField("task", t.ID).Error("task %s failed: %v", t.Name, err)
		s.mu.Lock()
		s.failures = append(s.failures, t)
		s.mu.Unlock()
		if s.onFailure != nil {
			s.onFailure(t)
		}
	}
}

// Get returns a running task by id, nil when there is none.
func (s *Supervisor) Get(id string) *Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks[id]
}

// List returns the running tasks, oldest first.
func (s *Supervisor) List() []*Task {
	s.mu.RLock()
	out := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Started.Before(out[j].Started) })
	return out
}

// Count returns the number of running tasks.
func (s *Supervisor) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Failures returns every task that failed, in order.
func (s *Supervisor) Failures() []*Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Task(nil), s.failures...)
}

// Shutdown cancels every task and waits up to timeout for them to
// return.
func (s *Supervisor) Shutdown(timeout time.Duration) error {
	if s.closed.Swap(true) {
		return nil
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		_ = s.group.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		names := make([]string, 0)
		for _, t := range s.List() {
			names = append(names, t.Name)
		}
		return fmt.Errorf("%w: %v", ErrShutdownTimeout, names)
	}
}

// IsShuttingDown reports whether Shutdown has been called.
func (s *Supervisor) IsShuttingDown() bool {
	return s.closed.Load()
}
