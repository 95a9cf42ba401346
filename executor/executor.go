// Package executor provides the polymorphic invocation sinks described by
// the core task model: a blocking work-queue executor for dedicated threads
// (one per concurrent game system), a fixed-size thread-pool executor used
// as the process default, and an inline executor for same-goroutine
// resumption.
//
// Grounded on github.com/joeycumines/go-utilpkg's eventloop (Submit /
// SubmitInternal, the ingress-queue / poll split) and microbatch (bounded
// worker dispatch over a shared channel).
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/nau-engine/runtime/task"
)

// Invocation and Executor are re-exported from package task, which owns
// their canonical definitions so the task cell has no dependency on any
// concrete executor implementation.
type (
	Invocation = task.Invocation
	Executor   = task.Executor
)

type currentKey struct{}

// WithCurrent returns a context reporting ex as the current executor for the
// duration of calls threaded through it. Go has no portable, safe
// thread-local storage, so "current executor" is carried explicitly on the
// context rather than inferred from the calling goroutine (see DESIGN.md).
func WithCurrent(ctx context.Context, ex Executor) context.Context {
	return context.WithValue(ctx, currentKey{}, ex)
}

// Current returns the executor recorded by the nearest enclosing
// WithCurrent, or nil.
func Current(ctx context.Context) Executor {
	ex, _ := ctx.Value(currentKey{}).(Executor)
	return ex
}

var defaultExecutor atomicExecutor

// atomicExecutor is a tiny RWMutex-guarded box, avoiding a generic
// atomic.Pointer[Executor] footgun around interface nil-ness.
type atomicExecutor struct {
	mu  sync.RWMutex
	val Executor
}

func (a *atomicExecutor) Load() Executor {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.val
}

func (a *atomicExecutor) Store(ex Executor) {
	a.mu.Lock()
	a.val = ex
	a.mu.Unlock()
}

// SetDefault installs the process-wide default executor (normally a Pool),
// used for background continuations that captured no executor of their own.
func SetDefault(ex Executor) { defaultExecutor.Store(ex) }

// Default returns the process-wide default executor, or nil if unset.
func Default() Executor { return defaultExecutor.Load() }

// HasDefault reports whether a default executor has been installed.
func HasDefault() bool { return defaultExecutor.Load() != nil }

// Inline runs invocations synchronously, on the calling goroutine. It exists
// so code can force non-captured resumption without a nil-executor special
// case.
var Inline Executor = inlineExecutor{}

type inlineExecutor struct{}

func (inlineExecutor) Execute(inv Invocation) { inv() }

// WorkQueue is a FIFO executor drained by Poll, intended to be owned and
// polled by exactly one goroutine for its lifetime (spec.md §4.2's
// single-threaded-per-queue invariant). Multiple goroutines may Execute
// (enqueue) concurrently. The FIFO itself is a buffered channel, following
// the teacher's ingress-queue / poll split (eventloop.Loop) but expressed
// with plain channels rather than a hand-rolled ring buffer.
type WorkQueue struct {
	ch        chan Invocation
	wake      chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

// NewWorkQueue creates an empty work-queue executor.
func NewWorkQueue() *WorkQueue {
	return &WorkQueue{
		ch:     make(chan Invocation, 4096),
		wake:   make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

// Execute enqueues inv, to be run by the next Poll call on the owning
// goroutine. Safe to call from any goroutine (multi-producer).
func (q *WorkQueue) Execute(inv Invocation) {
	select {
	case q.ch <- inv:
	case <-q.closed:
	}
}

// Notify wakes a blocked Poll without delivering any work — used to break
// out of a blocking poll at shutdown.
func (q *WorkQueue) Notify() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Close marks the queue closed; enqueue attempts and blocked Polls
// afterward return immediately instead of blocking forever.
func (q *WorkQueue) Close() {
	q.closeOnce.Do(func() { close(q.closed) })
}

// Poll drains the queue according to timeout:
//
//   - timeout == 0: drains whatever is currently enqueued and returns
//     immediately, even if nothing was enqueued.
//   - timeout > 0: waits up to timeout for at least one invocation to
//     arrive, then drains the queue.
//   - timeout == nil: blocks indefinitely until Notify or an Execute call.
//
// Poll must only be called from the single goroutine that owns this queue.
func (q *WorkQueue) Poll(timeout *time.Duration) {
	switch {
	case timeout != nil && *timeout == 0:
		q.drainNonBlocking()

	case timeout == nil:
		select {
		case inv := <-q.ch:
			inv()
			q.drainNonBlocking()
		case <-q.wake:
		case <-q.closed:
		}

	default:
		t := time.NewTimer(*timeout)
		defer t.Stop()
		select {
		case inv := <-q.ch:
			inv()
			q.drainNonBlocking()
		case <-q.wake:
		case <-q.closed:
		case <-t.C:
		}
	}
}

func (q *WorkQueue) drainNonBlocking() {
	for {
		select {
		case inv := <-q.ch:
			inv()
		default:
			return
		}
	}
}

// Pending reports the number of invocations currently queued, for shutdown
// draining checks (spec.md §8 invariant 9).
func (q *WorkQueue) Pending() int {
	return len(q.ch)
}

// Pool is a fixed-size thread-pool executor: invocations may run on any
// worker goroutine. Used as the process-wide default executor.
type Pool struct {
	jobs chan Invocation
	done chan struct{}
	wg   sync.WaitGroup
}

// NewPool starts a Pool with the given number of worker goroutines.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	p := &Pool{
		jobs: make(chan Invocation, workers*64),
		done: make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case inv := <-p.jobs:
			inv()
		case <-p.done:
			return
		}
	}
}

// Execute submits inv to run on whichever worker picks it up first.
func (p *Pool) Execute(inv Invocation) {
	select {
	case p.jobs <- inv:
	case <-p.done:
	}
}

// Shutdown stops accepting new work and waits for running workers to drain,
// but does not wait for queued-but-not-yet-started jobs (callers that need
// that guarantee should track completion themselves, e.g. via async.Task).
func (p *Pool) Shutdown() {
	close(p.done)
	p.wg.Wait()
}
