package executor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkQueue_PollZeroOnEmptyReturnsImmediately(t *testing.T) {
	q := NewWorkQueue()
	zero := time.Duration(0)
	done := make(chan struct{})
	go func() {
		q.Poll(&zero)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Poll(0) blocked on an empty queue")
	}
}

func TestWorkQueue_PollZeroDrainsEnqueued(t *testing.T) {
	q := NewWorkQueue()
	var ran int32
	q.Execute(func() { atomic.AddInt32(&ran, 1) })
	q.Execute(func() { atomic.AddInt32(&ran, 1) })
	zero := time.Duration(0)
	q.Poll(&zero)
	assert.EqualValues(t, 2, ran)
}

func TestWorkQueue_PollBlocksUntilNotify(t *testing.T) {
	q := NewWorkQueue()
	done := make(chan struct{})
	go func() {
		q.Poll(nil)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Poll(nil) returned before Notify")
	case <-time.After(50 * time.Millisecond):
	}

	q.Notify()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Poll(nil) did not return after Notify")
	}
}

func TestWorkQueue_PollBlocksUntilEnqueue(t *testing.T) {
	q := NewWorkQueue()
	var ran int32
	done := make(chan struct{})
	go func() {
		q.Poll(nil)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	q.Execute(func() { atomic.AddInt32(&ran, 1) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Poll(nil) did not wake on enqueue")
	}
	assert.EqualValues(t, 1, ran)
}

func TestWorkQueue_PollTimeoutExpires(t *testing.T) {
	q := NewWorkQueue()
	start := time.Now()
	d := 30 * time.Millisecond
	q.Poll(&d)
	assert.GreaterOrEqual(t, time.Since(start), d)
}

func TestPool_RunsAcrossWorkers(t *testing.T) {
	p := NewPool(4)
	defer p.Shutdown()

	var n int32
	done := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		p.Execute(func() {
			atomic.AddInt32(&n, 1)
			done <- struct{}{}
		})
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	assert.EqualValues(t, 10, n)
}

func TestDefaultExecutor_SetGet(t *testing.T) {
	assert.False(t, HasDefault())
	p := NewPool(1)
	defer p.Shutdown()
	SetDefault(p)
	defer SetDefault(nil)
	assert.True(t, HasDefault())
	assert.Equal(t, Executor(p), Default())
}

func TestCurrentExecutor_ContextRoundTrip(t *testing.T) {
	ctx := WithCurrent(context.Background(), Inline)
	assert.Equal(t, Inline, Current(ctx))
}
