package concurrency

import (
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nau-engine/runtime/async"
	"github.com/nau-engine/runtime/service"
)

type fakeSystem struct {
	updates     atomic.Int32
	syncs       atomic.Int32
	stopAfter   int32
	fixedStep   time.Duration
	fixed       bool
	preInitRan  atomic.Bool
	initRan     atomic.Bool
	shutdownRan atomic.Bool
}

func (f *fakeSystem) Update(dt time.Duration) (bool, error) {
	n := f.updates.Add(1)
	return n < f.stopAfter, nil
}

func (f *fakeSystem) SyncSceneState() { f.syncs.Add(1) }

func (f *fakeSystem) FixedUpdateTimeStep() (time.Duration, bool) { return f.fixedStep, f.fixed }

func (f *fakeSystem) PreInitService() async.Task[service.Unit] {
	f.preInitRan.Store(true)
	return async.MakeResolved(service.Unit{})
}

func (f *fakeSystem) InitService() async.Task[service.Unit] {
	f.initRan.Store(true)
	return async.MakeResolved(service.Unit{})
}

func (f *fakeSystem) GetServiceDependencies() []reflect.Type { return nil }

func (f *fakeSystem) ShutdownService() async.Task[service.Unit] {
	f.shutdownRan.Store(true)
	return async.MakeResolved(service.Unit{})
}

func newFakeClass(sys *fakeSystem) *service.ClassDescriptor {
	return &service.ClassDescriptor{
		Name: "fakeSystem",
		New:  func() (any, error) { return sys, nil },
	}
}

func TestContainer_FullLifecycle(t *testing.T) {
	sys := &fakeSystem{stopAfter: 1000000, fixed: false}
	c := NewContainer(newFakeClass(sys))

	_, err := async.WaitResult(c.PreInitService(), async.NewTimedExpiration(time.Second))
	require.NoError(t, err)
	assert.True(t, sys.preInitRan.Load())

	_, err = async.WaitResult(c.InitService(), async.NewTimedExpiration(time.Second))
	require.NoError(t, err)
	assert.True(t, sys.initRan.Load())

	// let the free-running loop spin a bit.
	time.Sleep(20 * time.Millisecond)
	assert.Greater(t, sys.updates.Load(), int32(0))
	assert.Greater(t, sys.syncs.Load(), int32(0))

	_, err = async.WaitResult(c.ShutdownService(), async.NewTimedExpiration(time.Second))
	require.NoError(t, err)
	assert.True(t, sys.shutdownRan.Load())

	// join-before-disposal: by the time ShutdownService's task has
	// resolved, the dedicated goroutine must have fully exited.
	select {
	case <-c.threadDone:
	default:
		t.Fatal("dedicated goroutine still running after ShutdownService resolved")
	}
}

func TestContainer_UpdateReturningFalseEndsLoop(t *testing.T) {
	sys := &fakeSystem{stopAfter: 3, fixed: false}
	c := NewContainer(newFakeClass(sys))

	async.WaitResult(c.PreInitService(), async.NewTimedExpiration(time.Second))
	async.WaitResult(c.InitService(), async.NewTimedExpiration(time.Second))

	select {
	case <-c.execDone:
	case <-time.After(time.Second):
		t.Fatal("update loop never exited after Update returned false")
	}
	assert.Equal(t, int32(3), sys.updates.Load())
}

func TestContainer_FixedStepSleepWakesOnShutdown(t *testing.T) {
	sys := &fakeSystem{stopAfter: 1000000, fixed: true, fixedStep: time.Hour}
	c := NewContainer(newFakeClass(sys))

	async.WaitResult(c.PreInitService(), async.NewTimedExpiration(time.Second))
	async.WaitResult(c.InitService(), async.NewTimedExpiration(time.Second))

	time.Sleep(10 * time.Millisecond) // ensure the loop has entered its long fixed-step sleep

	done := make(chan struct{})
	go func() {
		async.WaitResult(c.ShutdownService(), async.NewTimedExpiration(5*time.Second))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not wake the hour-long fixed-step sleep promptly")
	}
}
