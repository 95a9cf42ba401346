package service

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nau-engine/runtime/async"
)

// --- fixtures ---

type greeter interface {
	Greet() string
}

type greeterImpl struct{ name string }

func (g *greeterImpl) Greet() string { return "hello, " + g.name }

type orderLog struct {
	mu  sync.Mutex
	log []string
}

func (o *orderLog) add(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.log = append(o.log, s)
}

func (o *orderLog) snapshot() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.log...)
}

// orderedService implements IServiceInitialization and IServiceShutdown,
// recording its name into a shared log at each phase, and optionally
// declaring a dependency on another interface type.
type orderedService struct {
	name string
	log  *orderLog
	deps []reflect.Type
}

func (s *orderedService) PreInitService() async.Task[Unit] {
	s.log.add("preinit:" + s.name)
	return async.MakeResolved(Unit{})
}

func (s *orderedService) InitService() async.Task[Unit] {
	s.log.add("init:" + s.name)
	return async.MakeResolved(Unit{})
}

func (s *orderedService) GetServiceDependencies() []reflect.Type { return s.deps }

func (s *orderedService) ShutdownService() async.Task[Unit] {
	s.log.add("shutdown:" + s.name)
	return async.MakeResolved(Unit{})
}

type markerA interface{ MarkerA() }
type markerB interface{ MarkerB() }
type markerC interface{ MarkerC() }

// Each marker is implemented by its own wrapper around orderedService, so a
// wrapped service's type satisfies exactly one marker interface — dependency
// matching checks which interfaces a service's type implements.
type withMarkerA struct{ *orderedService }
type withMarkerB struct{ *orderedService }
type withMarkerC struct{ *orderedService }

func (withMarkerA) MarkerA() {}
func (withMarkerB) MarkerB() {}
func (withMarkerC) MarkerC() {}

func indexOf(log []string, s string) int {
	for i, v := range log {
		if v == s {
			return i
		}
	}
	return -1
}

// --- tests ---

func TestProvider_DirectInstanceFind(t *testing.T) {
	p := New()
	p.AddInstance(&greeterImpl{name: "nau"}, InterfaceID[greeter]())

	g, ok := Find[greeter](p, Create)
	require.True(t, ok)
	assert.Equal(t, "hello, nau", g.Greet())
	assert.True(t, Has[greeter](p))
}

func TestProvider_LazyAccessor_DoNotCreate(t *testing.T) {
	p := New()
	built := false
	p.AddLazy(func() (any, error) {
		built = true
		return &greeterImpl{name: "lazy"}, nil
	}, InterfaceID[greeter]())

	_, ok := Find[greeter](p, DoNotCreate)
	assert.False(t, ok)
	assert.False(t, built)

	g, ok := Find[greeter](p, Create)
	require.True(t, ok)
	assert.True(t, built)
	assert.Equal(t, "hello, lazy", g.Greet())

	// second lookup returns the cached instance, factory not invoked again.
	built = false
	g2, ok := Find[greeter](p, Create)
	require.True(t, ok)
	assert.False(t, built)
	assert.Equal(t, g.Greet(), g2.Greet())
}

func TestProvider_FindClasses_AnyAndAll(t *testing.T) {
	p := New()
	p.AddClass(&ClassDescriptor{Name: "AB", Interfaces: []reflect.Type{InterfaceID[markerA](), InterfaceID[markerB]()}})
	p.AddClass(&ClassDescriptor{Name: "A", Interfaces: []reflect.Type{InterfaceID[markerA]()}})
	p.AddClass(&ClassDescriptor{Name: "C", Interfaces: []reflect.Type{InterfaceID[markerC]()}})

	any_ := p.FindClasses([]reflect.Type{InterfaceID[markerA](), InterfaceID[markerB]()}, MatchAny)
	assert.Len(t, any_, 2)

	all := p.FindClasses([]reflect.Type{InterfaceID[markerA](), InterfaceID[markerB]()}, MatchAll)
	require.Len(t, all, 1)
	assert.Equal(t, "AB", all[0].Name)
}

// TestProvider_DependencyOrder mirrors spec.md §8 E3: S1 has no
// dependencies, S2 depends on S1, S3 depends on S2. Init must run
// S1 before S2 before S3; shutdown must run in the exact reverse order.
func TestProvider_DependencyOrder(t *testing.T) {
	log := &orderLog{}
	p := New()

	s1 := withMarkerA{&orderedService{name: "s1", log: log}}
	s2 := withMarkerB{&orderedService{name: "s2", log: log, deps: []reflect.Type{InterfaceID[markerA]()}}}
	s3 := withMarkerC{&orderedService{name: "s3", log: log, deps: []reflect.Type{InterfaceID[markerB]()}}}

	// s1 implements markerA (s2's dependency), s2 implements markerB (s3's
	// dependency) — wiring the chain s1 -> s2 -> s3.
	p.AddInstance(s1, InterfaceID[IServiceInitialization](), InterfaceID[IServiceShutdown](), InterfaceID[markerA]())
	p.AddInstance(s2, InterfaceID[IServiceInitialization](), InterfaceID[IServiceShutdown](), InterfaceID[markerB]())
	p.AddInstance(s3, InterfaceID[IServiceInitialization](), InterfaceID[IServiceShutdown](), InterfaceID[markerC]())

	_, err := async.WaitResult(p.PreInitServices(), async.NewTimedExpiration(time.Second))
	require.NoError(t, err)
	_, err = async.WaitResult(p.InitServices(), async.NewTimedExpiration(time.Second))
	require.NoError(t, err)

	initLog := log.snapshot()
	require.Contains(t, initLog, "init:s1")
	require.Contains(t, initLog, "init:s2")
	require.Contains(t, initLog, "init:s3")
	assert.Less(t, indexOf(initLog, "init:s1"), indexOf(initLog, "init:s2"))
	assert.Less(t, indexOf(initLog, "init:s2"), indexOf(initLog, "init:s3"))

	_, err = async.WaitResult(p.ShutdownServices(), async.NewTimedExpiration(time.Second))
	require.NoError(t, err)

	shutLog := log.snapshot()
	assert.Less(t, indexOf(shutLog, "shutdown:s3"), indexOf(shutLog, "shutdown:s2"))
	assert.Less(t, indexOf(shutLog, "shutdown:s2"), indexOf(shutLog, "shutdown:s1"))
}

func TestProvider_CyclicDependencyPanics(t *testing.T) {
	log := &orderLog{}
	p := New()

	a := withMarkerA{&orderedService{name: "a", log: log, deps: []reflect.Type{InterfaceID[markerB]()}}}
	b := withMarkerB{&orderedService{name: "b", log: log, deps: []reflect.Type{InterfaceID[markerA]()}}}

	p.AddInstance(a, InterfaceID[IServiceInitialization](), InterfaceID[markerA]())
	p.AddInstance(b, InterfaceID[IServiceInitialization](), InterfaceID[markerB]())

	assert.Panics(t, func() {
		p.PreInitServices()
	})
}

func TestProvider_InitializationProxy(t *testing.T) {
	log := &orderLog{}
	p := New()

	real := &orderedService{name: "real", log: log}
	proxy := &orderedService{name: "proxy", log: log}

	p.AddInstance(real, InterfaceID[IServiceInitialization]())
	p.SetInitializationProxy(real, proxy)

	_, err := async.WaitResult(p.PreInitServices(), async.NewTimedExpiration(time.Second))
	require.NoError(t, err)

	initLog := log.snapshot()
	assert.Contains(t, initLog, "preinit:proxy")
	assert.NotContains(t, initLog, "preinit:real")
}

// --- disposal fixtures ---

type disposeTracker struct {
	log           *orderLog
	name          string
	asyncDisposed bool
	syncDisposed  bool
}

func (d *disposeTracker) DisposeAsync() async.Task[Unit] {
	d.log.add("disposeAsync:" + d.name)
	d.asyncDisposed = true
	return async.MakeResolved(Unit{})
}

func (d *disposeTracker) Dispose() {
	d.log.add("dispose:" + d.name)
	d.syncDisposed = true
}

func TestProvider_DisposalPass_AsyncBeforeSync(t *testing.T) {
	log := &orderLog{}
	p := New()

	d := &disposeTracker{log: log, name: "res"}
	p.AddInstance(d, InterfaceID[IAsyncDisposable](), InterfaceID[IDisposable]())

	_, err := async.WaitResult(p.ShutdownServices(), async.NewTimedExpiration(time.Second))
	require.NoError(t, err)

	assert.True(t, d.asyncDisposed)
	assert.True(t, d.syncDisposed)
	l := log.snapshot()
	require.Len(t, l, 2)
	assert.Equal(t, "disposeAsync:res", l[0])
	assert.Equal(t, "dispose:res", l[1])
}

func TestProvider_SealedRejectsLateRegistration(t *testing.T) {
	p := New()
	_, err := async.WaitResult(p.ShutdownServices(), async.NewTimedExpiration(time.Second))
	require.NoError(t, err)

	assert.Panics(t, func() {
		p.AddInstance(&greeterImpl{name: "late"}, InterfaceID[greeter]())
	})
}
