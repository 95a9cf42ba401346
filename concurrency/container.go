// Package concurrency implements the concurrent execution container: a
// dedicated goroutine and WorkQueue that drives one game system's update
// loop in isolation from the main thread, while still participating in the
// ordinary ServiceProvider preInit/init/shutdown lifecycle.
//
// Grounded on _examples/original_source/engine/core/app_framework/src/
// main_loop/concurrent_execution_container.cpp.
package concurrency

import (
	"reflect"
	"runtime"
	"sync"
	"time"

	"github.com/nau-engine/runtime/async"
	"github.com/nau-engine/runtime/executor"
	"github.com/nau-engine/runtime/service"
)

// GameSceneUpdate is implemented by a per-frame game system driven by a
// Container. Update reports whether the loop should continue; the source's
// coroutine-returned bool becomes a plain Go bool here since nothing about
// the decision is itself asynchronous.
type GameSceneUpdate interface {
	Update(dt time.Duration) (bool, error)
	SyncSceneState()
	// FixedUpdateTimeStep reports a fixed simulation step, if this system
	// wants to be driven at a fixed rate rather than free-running.
	FixedUpdateTimeStep() (time.Duration, bool)
}

// Container owns one dedicated goroutine (pinned to an OS thread) and
// WorkQueue for a single concurrent game system, matching
// ConcurrentExecutionContainer. It implements service.IServiceInitialization
// and service.IServiceShutdown itself, standing in for the wrapped game
// system in the ServiceProvider's lifecycle passes — the provider's
// initialization-proxy mechanism (Provider.SetInitializationProxy) is how the
// source achieves the equivalent redirection.
type Container struct {
	class *service.ClassDescriptor
	wq    *executor.WorkQueue

	mu       sync.Mutex
	instance any
	scene    GameSceneUpdate

	aliveMu           sync.Mutex // guards aliveFlag only; see setAlive/isAlive
	aliveFlag         bool
	shutdownCompleted chanFlag

	preInit  async.TaskSource[service.Unit]
	initSig  async.TaskSource[service.Unit]
	initDone async.TaskSource[service.Unit]

	execDone   chan struct{}
	threadDone chan struct{}
}

// chanFlag is a once-set boolean observable both by polling and by channel
// close, used for the "has shutdown fully drained" condition.
type chanFlag struct {
	mu   sync.Mutex
	set  bool
	done chan struct{}
}

func newChanFlag() chanFlag { return chanFlag{done: make(chan struct{})} }

func (f *chanFlag) Set() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.set {
		f.set = true
		close(f.done)
	}
}

func (f *chanFlag) IsSet() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// NewContainer creates a container for systemClass, which must construct an
// instance implementing GameSceneUpdate.
func NewContainer(systemClass *service.ClassDescriptor) *Container {
	return &Container{
		class:             systemClass,
		wq:                executor.NewWorkQueue(),
		shutdownCompleted: newChanFlag(),
		preInit:           async.NewTaskSource[service.Unit](),
		initSig:           async.NewTaskSource[service.Unit](),
		initDone:          async.NewTaskSource[service.Unit](),
		execDone:          make(chan struct{}),
		threadDone:        make(chan struct{}),
	}
}

// Executor returns the WorkQueue driving this container's dedicated thread —
// the executor continuations should capture to resume on it.
func (c *Container) Executor() executor.Executor { return c.wq }

// GetServiceDependencies always returns nil: the wrapped game system is
// constructed only once this container's own preInit phase runs, too late
// to contribute declared dependencies to the provider's ordering pass.
// This package exports no marker type for other services to depend on.
func (c *Container) GetServiceDependencies() []reflect.Type { return nil }

// PreInitService starts the dedicated goroutine, which constructs the game
// system instance and runs its own PreInitService (if any) before resolving.
func (c *Container) PreInitService() async.Task[service.Unit] {
	go c.run()
	return c.preInit.GetTask()
}

// InitService signals the dedicated goroutine to run the wrapped instance's
// InitService, if implemented, and waits for it to complete.
func (c *Container) InitService() async.Task[service.Unit] {
	c.initSig.Resolve(service.Unit{})
	return c.initDone.GetTask()
}

// ShutdownService marks the container no longer alive, asks the dedicated
// goroutine to run the wrapped instance's ShutdownService (if implemented),
// and waits for the goroutine to fully exit before resolving — the
// join-before-disposal guarantee from spec.md §6.
func (c *Container) ShutdownService() async.Task[service.Unit] {
	c.setAlive(false)

	c.wq.Execute(func() {
		c.mu.Lock()
		instance := c.instance
		c.mu.Unlock()

		if sd, ok := instance.(service.IServiceShutdown); ok {
			async.WaitResult(sd.ShutdownService(), async.NewEternalExpiration())
		}
		c.shutdownCompleted.Set()
		c.wq.Notify()
	})
	c.wq.Notify()

	out := async.NewTaskSource[service.Unit]()
	go func() {
		<-c.threadDone
		out.Resolve(service.Unit{})
	}()
	return out.GetTask()
}

func (c *Container) setAlive(v bool) {
	c.aliveMu.Lock()
	c.aliveFlag = v
	c.aliveMu.Unlock()
}

func (c *Container) isAlive() bool {
	c.aliveMu.Lock()
	defer c.aliveMu.Unlock()
	return c.aliveFlag
}

// run is the body of the dedicated goroutine: one per concurrent game
// system, pinned to its own OS thread for the lifetime of the container —
// the closest idiomatic Go equivalent of the source's std::thread.
func (c *Container) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(c.threadDone)

	instance, err := c.class.New()
	if err != nil {
		c.preInit.RejectWithError(err)
		return
	}
	scene, ok := instance.(GameSceneUpdate)
	if !ok {
		panic("concurrency: class " + c.class.Name + " does not implement GameSceneUpdate")
	}

	c.mu.Lock()
	c.instance = instance
	c.scene = scene
	c.mu.Unlock()

	c.setAlive(true)

	if init, ok := instance.(service.IServiceInitialization); ok {
		if _, err := async.WaitResult(init.PreInitService(), async.NewEternalExpiration()); err != nil {
			c.preInit.RejectWithError(err)
			return
		}
	}
	c.preInit.Resolve(service.Unit{})

	async.WaitResult(c.initSig.GetTask(), async.NewEternalExpiration())
	if init, ok := instance.(service.IServiceInitialization); ok {
		async.WaitResult(init.InitService(), async.NewEternalExpiration())
	}
	c.initDone.Resolve(service.Unit{})

	c.updateLoop()
	close(c.execDone)

	// The update loop has ended (the game system asked to stop, or
	// ShutdownService has already been called); keep pumping the queue,
	// blocking between invocations, until shutdown's own closure has run
	// and set shutdownCompleted — unlike the source's busy-spin with a
	// zero timeout, Poll(nil) parks this goroutine instead of spinning.
	for !c.shutdownCompleted.IsSet() {
		c.wq.Poll(nil)
	}
}

// updateLoop is the free-running or fixed-step scene update loop. The
// queue is drained once per iteration regardless of step policy (the
// idiomatic-Go replacement for the source's repeated "co_await
// m_workQueue" yields), and the fixed-step sleep reuses WorkQueue.Poll's
// timeout semantics directly — Poll(d) already does exactly what the
// source's "proxy task to catch an error" workaround wanted: sleep up to
// d, but wake immediately on new work or an explicit Notify.
func (c *Container) updateLoop() {
	last := time.Now()
	for {
		// Unlike the source (which only ever ends the loop when Update
		// itself returns false, relying on the game system to notice
		// shutdown on its own), we also break as soon as ShutdownService
		// has cleared aliveness — this is the one place this package
		// deliberately departs from the source to avoid a container
		// hanging forever on a game system that never self-terminates.
		if !c.isAlive() {
			c.wq.Notify()
			return
		}

		now := time.Now()
		dt := now.Sub(last)
		last = now

		cont, err := c.scene.Update(dt)
		if err != nil || !cont {
			c.wq.Notify()
			return
		}

		if c.isAlive() {
			c.scene.SyncSceneState()
		}

		zero := time.Duration(0)
		c.wq.Poll(&zero)

		if step, fixed := c.scene.FixedUpdateTimeStep(); fixed {
			elapsed := time.Since(last)
			if elapsed < step {
				remaining := step - elapsed
				c.wq.Poll(&remaining)
			} else {
				c.wq.Poll(&zero)
			}
		}
	}
}
