package async

import (
	"sync"

	"github.com/nau-engine/runtime/task"
)

// Cells extracts the raw cells from a homogeneous slice of tasks, for use
// with WhenAll/WhenAny (which operate on cells directly since an aggregate
// awaiter only cares about completion, not each input's result type).
func Cells[T any](ts []Task[T]) []*task.Cell {
	out := make([]*task.Cell, len(ts))
	for i, t := range ts {
		out[i] = t.Cell()
	}
	return out
}

type aggregateState struct {
	mu        sync.Mutex
	remaining int
	done      bool
	out       *task.Cell
	sub       ExpirationSubscription
}

func (s *aggregateState) finish(result bool) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	s.mu.Unlock()

	s.sub.Unsubscribe()
	s.out.ResolveWithData(result)
}

// WhenAll returns a Task[bool] that resolves true once every cell in cells
// has become ready before exp trips, or false if exp trips first.
//
// Empty input resolves true immediately regardless of exp (vacuously true,
// spec.md §8). Each input cell's ready-callback decrements a shared counter;
// reaching zero resolves the aggregate. If exp trips first, the aggregate
// resolves false and later completions of the (still-running) inputs are
// ignored — they are still allowed to complete normally, matching spec.md
// §5's cancellation model. The aggregate's own bookkeeping is released
// (Unsubscribe) before the output task source resolves, matching the
// "reset the list before resolving" ordering guarantee from spec.md §4.3;
// unlike the C++ source, no delayed free of aggregate state onto the default
// executor is required — the Go garbage collector reclaims it once the
// output cell's continuation releases its closure.
func WhenAll(exp Expiration, cells ...*task.Cell) Task[bool] {
	if len(cells) == 0 {
		return MakeResolved(true)
	}

	allReady := true
	for _, c := range cells {
		if !c.IsReady() {
			allReady = false
			break
		}
	}
	if allReady {
		return MakeResolved(true)
	}
	if exp.IsTripped() {
		return MakeResolved(false)
	}

	st := &aggregateState{remaining: len(cells), out: task.New()}
	st.sub = exp.Subscribe(func() { st.finish(false) })

	for _, c := range cells {
		c.SetReadyCallback(func() {
			st.mu.Lock()
			if st.done {
				st.mu.Unlock()
				return
			}
			st.remaining--
			reachedZero := st.remaining == 0
			st.mu.Unlock()
			if reachedZero {
				st.finish(true)
			}
		})
	}

	return Task[bool]{cell: st.out}
}

// WhenAny returns a Task[bool] that resolves true as soon as any cell in
// cells becomes ready before exp trips, or false if exp trips first.
//
// Empty input resolves true immediately (spec.md §9 adopts this from the
// source as a documented choice, rather than rejecting empty input).
func WhenAny(exp Expiration, cells ...*task.Cell) Task[bool] {
	if len(cells) == 0 {
		return MakeResolved(true)
	}

	for _, c := range cells {
		if c.IsReady() {
			return MakeResolved(true)
		}
	}
	if exp.IsTripped() {
		return MakeResolved(false)
	}

	st := &aggregateState{remaining: 1, out: task.New()}
	st.sub = exp.Subscribe(func() { st.finish(false) })

	for _, c := range cells {
		c.SetReadyCallback(func() { st.finish(true) })
	}

	return Task[bool]{cell: st.out}
}

// WaitResult blocks the calling goroutine until t settles or exp trips,
// whichever comes first, returning ErrTimeout in the latter case. It
// installs a ready-callback rather than spinning, matching spec.md §4.3's
// "signals a thread event" description.
func WaitResult[T any](t Task[T], exp Expiration) (T, error) {
	done := make(chan struct{})
	t.cell.SetReadyCallback(func() { close(done) })

	select {
	case <-done:
		return t.Result()
	case <-exp.Context().Done():
		select {
		case <-done:
			return t.Result()
		default:
		}
		var zero T
		return zero, ErrTimeout
	}
}
