// Package task implements the raw task cell: the single-shot future
// primitive that every other async component in this module is built on.
//
// A Cell carries a refcount, a packed atomic state word, an optional error,
// an optional payload, and at most one continuation. It is deliberately
// low-level — callers needing ergonomics (typed results, aggregate awaiters,
// timeouts) should use package async, which wraps Cell.
package task

import (
	"sync"
	"sync/atomic"
)

// state bits, packed into a single word so every transition is a single CAS.
const (
	flagReady uint32 = 1 << iota
	flagHasContinuation
	flagContinuationScheduled
	flagResolveLocked
	flagReadyCallbackLocked
)

// Invocation is a small callable scheduled onto an Executor.
type Invocation func()

// Executor runs invocations some time later. An executor does not record
// itself as current while an invocation runs: executor.Current reports only
// what executor.WithCurrent placed on a context. Defined here (rather than in package
// executor) so Cell has no dependency on any particular executor
// implementation — package executor implements this interface.
type Executor interface {
	// Execute takes ownership of inv and runs it some time later.
	Execute(inv Invocation)
}

// Continuation is attached to a Cell and fires at most once, after the cell
// becomes ready.
type Continuation struct {
	Run      Invocation
	Executor Executor // optional; nil means the cell's captured executor, else inline
}

// Resolver sets the outcome of a tryResolve call. It may record an error via
// Reject; if it never calls Reject the cell resolves successfully.
type Resolver func(reject func(err error))

// Cell is the heap-allocated task cell described by the core task model.
// Cells are created via New and are reference counted; once created the
// strong reference returned by New must eventually be released via Release.
type Cell struct {
	refs int32 // atomic

	state atomic.Uint32

	mu   sync.Mutex // guards err, data, continuation, readyCallback, next
	err  error
	data any

	continuation   Continuation
	hasContinuation bool
	readyCallback  func()

	continueOnCapturedExecutor atomic.Bool

	// next forms an intrusive singly-linked list, used by aggregate
	// awaiters (package async) to walk a batch of cells without a separate
	// allocation per list node.
	next *Cell

	// captured is the Executor captured as "current" at the moment an
	// awaiter attached a continuation; threaded in explicitly because Go
	// has no safe, portable thread-local storage (see DESIGN.md).
	captured Executor

	name string
}

// New allocates a not-ready Cell with refcount 1.
func New() *Cell {
	c := &Cell{refs: 1}
	c.continueOnCapturedExecutor.Store(true)
	return c
}

// AddRef increments the strong refcount. Must be balanced with Release.
func (c *Cell) AddRef() {
	atomic.AddInt32(&c.refs, 1)
}

// Release decrements the strong refcount, freeing cell-owned references once
// it reaches zero. A Cell must not be observed after its last Release.
func (c *Cell) Release() {
	if atomic.AddInt32(&c.refs, -1) == 0 {
		c.mu.Lock()
		c.data = nil
		c.err = nil
		c.continuation = Continuation{}
		c.readyCallback = nil
		c.next = nil
		c.mu.Unlock()
	}
}

// SetName attaches a debug name to the cell (diagnostics only).
func (c *Cell) SetName(name string) { c.name = name }

// Name returns the debug name, if any.
func (c *Cell) Name() string { return c.name }

// IsReady reports whether the cell has resolved.
func (c *Cell) IsReady() bool {
	return c.state.Load()&flagReady != 0
}

// GetError returns the rejection error, valid only once IsReady is true.
func (c *Cell) GetError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// GetData returns the resolved payload, valid only once IsReady is true and
// GetError is nil.
func (c *Cell) GetData() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data
}

// Next returns the intrusive list pointer used by aggregate awaiters.
func (c *Cell) Next() *Cell { return c.next }

// SetNext sets the intrusive list pointer used by aggregate awaiters.
func (c *Cell) SetNext(n *Cell) { c.next = n }

// spinLock reserves bit via CAS, spinning until acquired. Critical sections
// guarded by this are tiny (a handful of field writes), matching the
// spec's "short spin-lock reserved inside the same word" model.
func (c *Cell) spinLock(bit uint32) {
	for {
		old := c.state.Load()
		if old&bit != 0 {
			continue
		}
		if c.state.CompareAndSwap(old, old|bit) {
			return
		}
	}
}

func (c *Cell) spinUnlock(bit uint32) {
	for {
		old := c.state.Load()
		if c.state.CompareAndSwap(old, old&^bit) {
			return
		}
	}
}

// TryResolve attempts to settle the cell exactly once. If the cell is
// already ready this is a no-op returning false. Otherwise resolver runs (it
// may reject via the callback it is given), the Ready bit is set, the
// ready-callback fires synchronously, and the continuation (if any) is
// scheduled — in that order, matching spec.md §4.1.
func (c *Cell) TryResolve(resolver Resolver) bool {
	c.spinLock(flagResolveLocked)
	if c.state.Load()&flagReady != 0 {
		c.spinUnlock(flagResolveLocked)
		reportViolation("resolve after ready")
		return false
	}

	if resolver != nil {
		resolver(func(err error) {
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
		})
	}

	for {
		old := c.state.Load()
		if c.state.CompareAndSwap(old, (old|flagReady)&^flagResolveLocked) {
			break
		}
	}

	c.invokeReadyCallback()
	c.tryScheduleContinuation()
	return true
}

// TryRejectWithError is a convenience Resolver that always rejects.
func TryRejectWithError(err error) Resolver {
	return func(reject func(error)) { reject(err) }
}

// ResolveWithData resolves the cell successfully with the given payload.
func (c *Cell) ResolveWithData(data any) bool {
	return c.TryResolve(func(func(error)) {
		c.mu.Lock()
		c.data = data
		c.mu.Unlock()
	})
}

// ResolveOutcome resolves the cell with data on a nil err, or rejects with
// err otherwise. Convenience for continuations that compute both at once.
func (c *Cell) ResolveOutcome(data any, err error) bool {
	return c.TryResolve(func(reject func(error)) {
		if err != nil {
			reject(err)
			return
		}
		c.mu.Lock()
		c.data = data
		c.mu.Unlock()
	})
}

// SetContinuation records cont, scheduling it immediately if the cell is
// already ready. Reattaching a continuation after one was already set is a
// contract violation and is rejected (no-op), matching spec.md §4.1.
func (c *Cell) SetContinuation(cont Continuation) {
	c.mu.Lock()
	if c.hasContinuation {
		c.mu.Unlock()
		reportViolation("continuation rebind")
		return
	}
	c.continuation = cont
	c.hasContinuation = true
	c.mu.Unlock()

	for {
		old := c.state.Load()
		if c.state.CompareAndSwap(old, old|flagHasContinuation) {
			break
		}
	}

	if c.IsReady() {
		c.tryScheduleContinuation()
	}
}

// SetContinueOnCapturedExecutor controls whether the continuation resumes on
// the executor captured when the continuation was attached, or runs inline
// on the resolving thread. Must be called before the continuation has been
// scheduled; calling it afterward has no effect (the decision was already
// made).
func (c *Cell) SetContinueOnCapturedExecutor(v bool) {
	c.continueOnCapturedExecutor.Store(v)
}

// SetCapturedExecutor records the executor to prefer for continuation
// resumption (the executor current at await time).
func (c *Cell) SetCapturedExecutor(ex Executor) {
	c.mu.Lock()
	c.captured = ex
	c.mu.Unlock()
}

// SetReadyCallback installs a one-shot callback fired the moment the cell
// becomes ready. If the cell is already ready, fn runs immediately (outside
// any lock).
func (c *Cell) SetReadyCallback(fn func()) {
	c.spinLock(flagReadyCallbackLocked)
	if c.state.Load()&flagReady != 0 {
		c.spinUnlock(flagReadyCallbackLocked)
		if fn != nil {
			fn()
		}
		return
	}
	c.mu.Lock()
	c.readyCallback = fn
	c.mu.Unlock()
	c.spinUnlock(flagReadyCallbackLocked)
}

func (c *Cell) invokeReadyCallback() {
	c.spinLock(flagReadyCallbackLocked)
	c.mu.Lock()
	fn := c.readyCallback
	c.readyCallback = nil
	c.mu.Unlock()
	c.spinUnlock(flagReadyCallbackLocked)
	if fn != nil {
		fn()
	}
}

// tryScheduleContinuation implements the scheduling algorithm from
// spec.md §4.1: on the first observation of (Ready ∧ HasContinuation),
// atomically claim ContinuationScheduled, then run the continuation either
// on its captured executor or inline. No field of c may be touched after the
// submit, since the resumed continuation may hold the last reference.
func (c *Cell) tryScheduleContinuation() {
	for {
		old := c.state.Load()
		if old&flagReady == 0 || old&flagHasContinuation == 0 {
			return
		}
		if old&flagContinuationScheduled != 0 {
			return
		}
		if c.state.CompareAndSwap(old, old|flagContinuationScheduled) {
			break
		}
	}

	c.mu.Lock()
	cont := c.continuation
	captured := c.captured
	c.mu.Unlock()

	if cont.Run == nil {
		return
	}

	target := cont.Executor
	if target == nil {
		target = captured
	}

	if c.continueOnCapturedExecutor.Load() && target != nil {
		target.Execute(cont.Run)
		return
	}

	cont.Run()
}
