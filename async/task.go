// Package async provides the typed Task façade over package task's raw
// cell, plus the aggregate awaiters (WhenAll, WhenAny), blocking WaitResult,
// and the Expiration cancellation token.
//
// Grounded on github.com/joeycumines/go-utilpkg/eventloop's promise
// combinators (All/Race/Any/AllSettled) for the aggregate shapes, and on
// _examples/original_source's core_task_impl.cpp / task.cpp for the exact
// counter-decrement-then-reset-then-resolve ordering spec.md §4.3 requires.
package async

import (
	"errors"

	"github.com/nau-engine/runtime/executor"
	"github.com/nau-engine/runtime/task"
)

// ErrTimeout is returned by WaitResult when the deadline elapses before the
// task resolves.
var ErrTimeout = errors.New("async: wait timed out")

// Task is a typed, read-only handle around a task.Cell.
type Task[T any] struct {
	cell *task.Cell
}

// FromCell wraps an existing cell. Used by collaborators bridging from
// package task or package service.
func FromCell[T any](c *task.Cell) Task[T] { return Task[T]{cell: c} }

// Cell exposes the underlying raw cell, for aggregate awaiters and
// collaborators that need to attach continuations directly.
func (t Task[T]) Cell() *task.Cell { return t.cell }

// IsReady reports whether the task has settled.
func (t Task[T]) IsReady() bool { return t.cell != nil && t.cell.IsReady() }

// Err returns the rejection error, or nil on success; only valid once
// IsReady is true.
func (t Task[T]) Err() error {
	if t.cell == nil {
		return nil
	}
	return t.cell.GetError()
}

// Result returns the resolved value and error; only valid once IsReady is
// true. The zero value of T is returned alongside a non-nil error.
func (t Task[T]) Result() (T, error) {
	var zero T
	if t.cell == nil {
		return zero, nil
	}
	if err := t.cell.GetError(); err != nil {
		return zero, err
	}
	v, _ := t.cell.GetData().(T)
	return v, nil
}

// Then attaches cont to run after t settles, on the given executor (nil
// means: run inline, on the goroutine that resolves t, or on the calling
// goroutine if t is already ready). Returns a Task[R] resolved from
// cont's return value. This is the coroutine-resumption point from
// spec.md §4.1/§9: in idiomatic Go we express "await" as an explicit
// callback attachment rather than a language coroutine.
func Then[T, R any](t Task[T], ex executor.Executor, cont func(T, error) (R, error)) Task[R] {
	out := task.New()
	run := func() {
		v, err := t.Result()
		r, rerr := cont(v, err)
		out.ResolveOutcome(r, rerr)
	}
	t.cell.SetCapturedExecutor(ex)
	t.cell.SetContinuation(task.Continuation{Run: run, Executor: ex})
	return Task[R]{cell: out}
}

// MakeResolved returns an already-ready, successful Task[T].
func MakeResolved[T any](v T) Task[T] {
	c := task.New()
	c.ResolveWithData(v)
	return Task[T]{cell: c}
}

// MakeRejected returns an already-ready, failed Task[T].
func MakeRejected[T any](err error) Task[T] {
	c := task.New()
	c.TryResolve(task.TryRejectWithError(err))
	return Task[T]{cell: c}
}

// TaskSource is a single-shot producer handle for a Task[T].
type TaskSource[T any] struct {
	cell *task.Cell
}

// NewTaskSource creates a pending TaskSource.
func NewTaskSource[T any]() TaskSource[T] {
	return TaskSource[T]{cell: task.New()}
}

// GetTask returns the (read-only) Task view of this source.
func (s TaskSource[T]) GetTask() Task[T] { return Task[T]{cell: s.cell} }

// Resolve settles the task successfully with v. A second call is a no-op
// returning false, per spec.md §4.1.
func (s TaskSource[T]) Resolve(v T) bool {
	return s.cell.ResolveWithData(v)
}

// RejectWithError settles the task with an error. A second call is a no-op
// returning false.
func (s TaskSource[T]) RejectWithError(err error) bool {
	return s.cell.TryResolve(task.TryRejectWithError(err))
}
