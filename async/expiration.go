package async

import (
	"context"
	"sync/atomic"
	"time"
)

// ExpirationState is the lifecycle state of an Expiration token.
type ExpirationState int

const (
	// Eternal never trips.
	Eternal ExpirationState = iota
	// Timed trips at a fixed deadline.
	Timed
	// Tripped has already fired.
	Tripped
)

// Expiration is a cancellation/timeout token with one-shot subscribers,
// modeled directly on context.Context deadlines rather than a bespoke
// cancellation type — see DESIGN.md's C3 entry on this choice: every
// collaborator interface this module consumes (spec.md §6) already speaks
// context.Context, so layering a parallel cancellation primitive on top
// would fight the grain of idiomatic Go rather than follow it.
type Expiration struct {
	ctx   context.Context
	state ExpirationState
}

// NewEternalExpiration returns an Expiration that never trips.
func NewEternalExpiration() Expiration {
	return Expiration{ctx: context.Background(), state: Eternal}
}

// NewTimedExpiration returns an Expiration that trips after d elapses. The
// context's own cancel func is intentionally discarded: the context
// self-cancels at the deadline, and this token exposes no early-cancel API
// (trips are driven by time only, matching spec.md §4.3's state set).
func NewTimedExpiration(d time.Duration) Expiration {
	ctx, _ := context.WithTimeout(context.Background(), d)
	return Expiration{ctx: ctx, state: Timed}
}

// NewExpirationFromContext adapts an existing context.Context (e.g. one
// threaded down from a collaborator) into an Expiration.
func NewExpirationFromContext(ctx context.Context) Expiration {
	state := Eternal
	if _, ok := ctx.Deadline(); ok {
		state = Timed
	}
	select {
	case <-ctx.Done():
		state = Tripped
	default:
	}
	return Expiration{ctx: ctx, state: state}
}

// NewTrippedExpiration returns an Expiration that has already fired.
func NewTrippedExpiration() Expiration {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return Expiration{ctx: ctx, state: Tripped}
}

// State reports the token's lifecycle state. For a Timed expiration whose
// deadline has already passed, this returns Tripped.
func (e Expiration) State() ExpirationState {
	if e.ctx == nil {
		return Eternal
	}
	select {
	case <-e.ctx.Done():
		return Tripped
	default:
		return e.state
	}
}

// IsTripped is a convenience for State() == Tripped.
func (e Expiration) IsTripped() bool { return e.State() == Tripped }

// Context exposes the underlying context.Context, for collaborators that
// want to thread the same deadline through further calls.
func (e Expiration) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

// ExpirationSubscription is a RAII-style handle: dropping it (calling
// Unsubscribe) unregisters the callback if it hasn't already fired.
type ExpirationSubscription struct {
	cancel func()
}

// Unsubscribe unregisters the callback; a no-op if it already fired.
func (s ExpirationSubscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Subscribe registers fn to run exactly once, when e trips. If e is already
// Tripped, fn runs synchronously before Subscribe returns.
func (e Expiration) Subscribe(fn func()) ExpirationSubscription {
	if fn == nil {
		return ExpirationSubscription{}
	}
	if e.ctx == nil {
		return ExpirationSubscription{}
	}

	select {
	case <-e.ctx.Done():
		fn()
		return ExpirationSubscription{}
	default:
	}

	// claimed is won by whichever comes first, the trip or Unsubscribe, so
	// fn may itself call Unsubscribe without blocking.
	var claimed atomic.Bool
	stop := make(chan struct{})
	go func() {
		select {
		case <-e.ctx.Done():
			if claimed.CompareAndSwap(false, true) {
				fn()
			}
		case <-stop:
		}
	}()

	return ExpirationSubscription{cancel: func() {
		if claimed.CompareAndSwap(false, true) {
			close(stop)
		}
	}}
}
