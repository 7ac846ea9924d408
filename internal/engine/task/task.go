// Package task runs a grid computation in the background with progress
// reporting and cooperative cancellation.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/logger"
)

// Task errors.
var (
	ErrNotReady       = errors.New("task result not ready")
	ErrAlreadyStarted = errors.New("task already started")
	ErrCanceled       = errors.New("task canceled")
)

// TaskFailedError wraps the error a task's work function ended with.
type TaskFailedError struct {
	Name string
	Err  error
}

func (e *TaskFailedError) Error() string {
	return fmt.Sprintf("task %s failed: %v", e.Name, e.Err)
}

func (e *TaskFailedError) Unwrap() error { return e.Err }

// State is the lifecycle state of a task.
type State int32

const (
	StatePending State = iota
	StateRunning
	StateComplete
	StateCanceled
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateRunning:
		return "Running"
	case StateComplete:
		return "Complete"
	case StateCanceled:
		return "Canceled"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateCanceled || s == StateFailed
}

// Token is a cancellation signal shared between a task and its work function.
type Token struct {
	once sync.Once
	done chan struct{}
}

// NewToken returns an unsignaled token.
func NewToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancel signals the token. Safe to call repeatedly and concurrently.
func (t *Token) Cancel() {
	t.once.Do(func() { close(t.done) })
}

// Canceled reports whether Cancel has been called.
func (t *Token) Canceled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done is closed once the token is canceled.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Progress accumulates processed units. Safe for concurrent use.
type Progress struct {
	units atomic.Int64
}

// Add records n more processed units.
func (p *Progress) Add(n int64) {
	p.units.Add(n)
}

// Load returns the processed units so far.
func (p *Progress) Load() int64 {
	return p.units.Load()
}

// Func is the body of a task. It should check tok between units of work and
// return ErrCanceled once it stops early.
type Func[T any] func(tok *Token, progress *Progress) (T, error)

// Task runs a Func once on a background goroutine.
type Task[T any] struct {
	name  string
	total int64
	fn    Func[T]

	token    *Token
	progress Progress
	done     chan struct{}

	mu     sync.Mutex
	state  State
	result T
	err    error
}

// New creates a pending task. total is the number of progress units a full
// run reports and is informational only.
func New[T any](name string, total int64, fn Func[T]) *Task[T] {
	return &Task[T]{
		name:  name,
		total: total,
		fn:    fn,
		token: NewToken(),
		done:  make(chan struct{}),
	}
}

// Name returns the task's name.
func (t *Task[T]) Name() string { return t.name }

// Total returns the number of progress units a complete run reports.
func (t *Task[T]) Total() int64 { return t.total }

// State returns the current state.
func (t *Task[T]) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Progress returns the processed unit count. It never blocks on the workers.
func (t *Task[T]) Progress() int64 {
	return t.progress.Load()
}

// Done is closed when the task reaches a terminal state.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Start launches the work function.
func (t *Task[T]) Start() error {
	t.mu.Lock()
	if t.state != StatePending {
		state := t.state
		t.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", ErrAlreadyStarted, t.name, state)
	}
	t.state = StateRunning
	t.mu.Unlock()

	logger.L().Debug("task started", zap.String("task", t.name), zap.Int64("units", t.total))
	go t.run()
	return nil
}

// RequestCancel asks the work function to stop at its next check.
func (t *Task[T]) RequestCancel() {
	t.token.Cancel()
}

// Wait blocks until the task is terminal or ctx ends.
func (t *Task[T]) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Result returns the computed value once the task is Complete.
// Canceled tasks return ErrCanceled and failed tasks a *TaskFailedError.
func (t *Task[T]) Result() (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	switch t.state {
	case StateComplete:
		return t.result, nil
	case StateCanceled:
		return zero, fmt.Errorf("%w: %s", ErrCanceled, t.name)
	case StateFailed:
		return zero, t.err
	default:
		return zero, fmt.Errorf("%w: %s is %s", ErrNotReady, t.name, t.state)
	}
}

// Run starts the task and waits for its result.
func (t *Task[T]) Run(ctx context.Context) (T, error) {
	if err := t.Start(); err != nil {
		var zero T
		return zero, err
	}

	stop := context.AfterFunc(ctx, t.RequestCancel)
	defer stop()

	<-t.done
	return t.Result()
}

func (t *Task[T]) run() {
	start := time.Now()
	result, err := t.call()

	t.mu.Lock()
	switch {
	case err == nil:
		t.state = StateComplete
		t.result = result
	case errors.Is(err, ErrCanceled):
		t.state = StateCanceled
	default:
		t.state = StateFailed
		t.err = &TaskFailedError{Name: t.name, Err: err}
	}
	state := t.state
	t.mu.Unlock()
	close(t.done)

	fields := []zap.Field{
		zap.String("task", t.name),
		zap.Stringer("state", state),
		zap.Int64("progress", t.progress.Load()),
		zap.Duration("elapsed", time.Since(start)),
	}
	if state == StateFailed {
		logger.L().Warn("task failed", append(fields, zap.Error(err))...)
		return
	}
	logger.L().Debug("task finished", fields...)
}

func (t *Task[T]) call() (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.fn(t.token, &t.progress)
}
