// Package service implements the ServiceProvider: a typed container of
// long-lived singletons with lazy construction, interface-based lookup,
// dependency-ordered init/shutdown, and initialization-proxy indirection.
//
// Grounded on _examples/original_source/engine/core/kernel/src/service/
// service_provider_impl.{h,cpp} for the exact dependency-ordering and
// disposal algorithms; reflect.Type stands in for the source's RTTI
// type-info, per spec.md §9's re-architecture note ("any implementation
// that provides type-id + downcast ... satisfies this").
package service

import (
	"reflect"
	"sync"

	"github.com/nau-engine/runtime/async"
)

// Unit is the Go stand-in for the source's Task<> (a task carrying no
// payload, only completion/error).
type Unit = struct{}

// GetMode selects whether a lookup may trigger lazy construction.
type GetMode int

const (
	// Create constructs the instance via its factory if not yet built.
	Create GetMode = iota
	// DoNotCreate returns the existing instance only, never constructing.
	DoNotCreate
)

// MatchMode controls FindClasses' interface-set matching.
type MatchMode int

const (
	// MatchAny selects classes implementing at least one of the requested
	// interfaces.
	MatchAny MatchMode = iota
	// MatchAll selects classes implementing every requested interface.
	MatchAll
)

// IServiceInitialization is implemented by services that participate in the
// dependency-ordered preInit/init phases.
type IServiceInitialization interface {
	PreInitService() async.Task[Unit]
	InitService() async.Task[Unit]
	GetServiceDependencies() []reflect.Type
}

// IServiceShutdown is implemented by services that participate in shutdown.
// A service may implement this without IServiceInitialization (spec.md
// §4.4: it is then placed in the independent shutdown group).
type IServiceShutdown interface {
	ShutdownService() async.Task[Unit]
}

// IAsyncDisposable is run (awaited concurrently) after shutdown completes.
type IAsyncDisposable interface {
	DisposeAsync() async.Task[Unit]
}

// IDisposable is run synchronously after all IAsyncDisposable instances.
type IDisposable interface {
	Dispose()
}

// InterfaceID returns the stable, process-wide identifier for interface T —
// the type of a nil *T, dereferenced. Used as the map key throughout this
// package instead of a source-style RTTI type-info object.
func InterfaceID[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Provider is the ServiceProvider registry. The zero value is not usable;
// construct with New.
type Provider struct {
	mu sync.RWMutex

	accessors []*accessor
	byType    map[reflect.Type][]*accessor

	classes []*ClassDescriptor

	// proxies maps a source IServiceInitialization to the object that
	// actually receives preInit/init/shutdown calls on its behalf.
	// Dependency computation still uses the source's declared dependencies
	// (spec.md §4.4 / §9).
	proxies map[any]any

	// materialized tracks every instance that has actually been
	// constructed (direct, or lazy-after-first-Create), in construction
	// order. Nothing in this package reads it: the global init/shutdown
	// phases select services through byType.
	materialized []any

	sealed bool
}

// New creates an empty Provider.
func New() *Provider {
	return &Provider{
		byType:  make(map[reflect.Type][]*accessor),
		proxies: make(map[any]any),
	}
}

// --- global process-wide handle (spec.md §9: explicit handle, not an
// ambient mutable global touched from destructors) ---

var global struct {
	mu sync.RWMutex
	p  *Provider
}

// SetGlobal installs the process-wide ServiceProvider.
func SetGlobal(p *Provider) {
	global.mu.Lock()
	global.p = p
	global.mu.Unlock()
}

// Global returns the process-wide ServiceProvider, or nil if unset.
func Global() *Provider {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.p
}
