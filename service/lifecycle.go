package service

import (
	"fmt"
	"reflect"

	"github.com/nau-engine/runtime/async"
)

// CyclicDependencyError is raised (as a panic, matching the source's
// NAU_FATAL on cyclic dependency — an unrecoverable programming error, not
// a runtime condition callers should expect to handle) when two services
// declare dependencies on each other, directly or transitively.
type CyclicDependencyError struct {
	Service string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("service: cyclic dependency detected at %s", e.Service)
}

type initEntry struct {
	service IServiceInitialization
	deps    map[reflect.Type]struct{}
}

// orderInitEntries reorders services to account for dependencies between
// them: returns the independent services (no declared dependency, safe to
// run concurrently) and the ordered dependent services (must run
// sequentially in the returned order). Grounded on
// makeInitOrderedServiceList / OrderedServiceListBuilder in
// service_provider_impl.cpp, reimplemented as an explicit Kahn topological
// sort rather than a single comparator-based list sort — the comparator in
// the source only defines a partial order, which a real topological sort
// honors exactly where a single sort pass might not.
func orderInitEntries(all []IServiceInitialization) (independent, dependent []*initEntry) {
	entries := make(map[IServiceInitialization]*initEntry, len(all))
	visiting := make(map[IServiceInitialization]bool, len(all))

	var getEntry func(s IServiceInitialization) *initEntry
	getEntry = func(s IServiceInitialization) *initEntry {
		if e, ok := entries[s]; ok {
			if visiting[s] {
				panic(&CyclicDependencyError{Service: fmt.Sprintf("%T", s)})
			}
			return e
		}

		e := &initEntry{service: s, deps: make(map[reflect.Type]struct{})}
		entries[s] = e
		visiting[s] = true

		direct := s.GetServiceDependencies()
		for _, t := range direct {
			e.deps[t] = struct{}{}
		}
		if len(direct) > 0 {
			for _, other := range all {
				if other == s {
					continue
				}
				if implementsAny(other, direct) {
					oe := getEntry(other)
					for t := range oe.deps {
						e.deps[t] = struct{}{}
					}
				}
			}
		}

		visiting[s] = false
		return e
	}

	ordered := make([]*initEntry, len(all))
	for i, s := range all {
		ordered[i] = getEntry(s)
	}

	// predecessors[e] = entries that must run before e, i.e. entries whose
	// concrete service type satisfies one of e's (transitive) dependency
	// types.
	predecessors := make(map[*initEntry][]*initEntry, len(ordered))
	successors := make(map[*initEntry][]*initEntry, len(ordered))
	remaining := make(map[*initEntry]int, len(ordered))

	depTypes := func(e *initEntry) []reflect.Type {
		types := make([]reflect.Type, 0, len(e.deps))
		for t := range e.deps {
			types = append(types, t)
		}
		return types
	}

	for _, e := range ordered {
		var preds []*initEntry
		for _, o := range ordered {
			if o == e {
				continue
			}
			if implementsAny(o.service, depTypes(e)) {
				preds = append(preds, o)
			}
		}
		predecessors[e] = preds
		remaining[e] = len(preds)
		for _, o := range preds {
			successors[o] = append(successors[o], e)
		}
	}

	var sorted []*initEntry
	visited := make(map[*initEntry]bool, len(ordered))
	for len(sorted) < len(ordered) {
		progressed := false
		for _, e := range ordered {
			if visited[e] || remaining[e] != 0 {
				continue
			}
			sorted = append(sorted, e)
			visited[e] = true
			progressed = true
			for _, succ := range successors[e] {
				remaining[succ]--
			}
		}
		if !progressed {
			panic(&CyclicDependencyError{Service: "(cycle among remaining services)"})
		}
	}

	for _, e := range ordered {
		if len(e.deps) == 0 {
			independent = append(independent, e)
		}
	}
	for _, e := range sorted {
		if len(e.deps) > 0 {
			dependent = append(dependent, e)
		}
	}
	return independent, dependent
}

func implementsAny(instance any, types []reflect.Type) bool {
	if instance == nil || len(types) == 0 {
		return false
	}
	rt := reflect.TypeOf(instance)
	for _, t := range types {
		if rt.Implements(t) {
			return true
		}
	}
	return false
}

func (p *Provider) initializationTarget(s IServiceInitialization) IServiceInitialization {
	if v, ok := p.resolveProxy(s).(IServiceInitialization); ok {
		return v
	}
	return s
}

func (p *Provider) shutdownTarget(s IServiceShutdown) IServiceShutdown {
	if key, ok := any(s).(IServiceInitialization); ok {
		if v, ok := p.resolveProxy(key).(IServiceShutdown); ok {
			return v
		}
	}
	return s
}

func (p *Provider) initServicesInternal(call func(IServiceInitialization) async.Task[Unit]) async.Task[Unit] {
	services := GetAll[IServiceInitialization](p, Create)
	independent, dependent := orderInitEntries(services)

	out := async.NewTaskSource[Unit]()
	go func() {
		exp := async.NewEternalExpiration()

		var indepTasks []async.Task[Unit]
		for _, e := range independent {
			indepTasks = append(indepTasks, call(p.initializationTarget(e.service)))
		}
		async.WaitResult(async.WhenAll(exp, async.Cells(indepTasks)...), exp)

		for _, e := range dependent {
			async.WaitResult(call(p.initializationTarget(e.service)), exp)
		}

		out.Resolve(Unit{})
	}()
	return out.GetTask()
}

// PreInitServices runs every registered IServiceInitialization's
// PreInitService, independent services concurrently and dependent services
// in dependency order, then resolves once every one has completed.
func (p *Provider) PreInitServices() async.Task[Unit] {
	return p.initServicesInternal(func(s IServiceInitialization) async.Task[Unit] { return s.PreInitService() })
}

// InitServices runs every registered IServiceInitialization's InitService,
// with the same ordering guarantees as PreInitServices.
func (p *Provider) InitServices() async.Task[Unit] {
	return p.initServicesInternal(func(s IServiceInitialization) async.Task[Unit] { return s.InitService() })
}

// ShutdownServices seals the provider, runs every registered
// IServiceShutdown in the reverse of its initialization order (dependent
// services first, in reverse; independent services last, concurrently),
// then runs the disposal pass (every IAsyncDisposable, awaited together,
// then every IDisposable). Grounded on ServiceProviderImpl::shutdownServices.
func (p *Provider) ShutdownServices() async.Task[Unit] {
	p.mu.Lock()
	p.sealed = true
	p.mu.Unlock()

	shutdowners := GetAll[IServiceShutdown](p, DoNotCreate)

	var initList []IServiceInitialization
	var pureShutdown []IServiceShutdown
	for _, sd := range shutdowners {
		if si, ok := any(sd).(IServiceInitialization); ok {
			initList = append(initList, si)
		} else {
			pureShutdown = append(pureShutdown, sd)
		}
	}

	out := async.NewTaskSource[Unit]()
	go func() {
		exp := async.NewEternalExpiration()

		var independentShutdown, dependentShutdownRev []IServiceShutdown
		if len(initList) > 0 {
			independentEntries, dependentEntries := orderInitEntries(initList)
			for _, e := range independentEntries {
				if sd, ok := e.service.(IServiceShutdown); ok {
					independentShutdown = append(independentShutdown, sd)
				}
			}
			for i := len(dependentEntries) - 1; i >= 0; i-- {
				if sd, ok := dependentEntries[i].service.(IServiceShutdown); ok {
					dependentShutdownRev = append(dependentShutdownRev, sd)
				}
			}
		}
		independentShutdown = append(independentShutdown, pureShutdown...)

		for _, sd := range dependentShutdownRev {
			async.WaitResult(p.shutdownTarget(sd).ShutdownService(), exp)
		}

		var indepTasks []async.Task[Unit]
		for _, sd := range independentShutdown {
			indepTasks = append(indepTasks, p.shutdownTarget(sd).ShutdownService())
		}
		async.WaitResult(async.WhenAll(exp, async.Cells(indepTasks)...), exp)

		p.disposeAll()
		out.Resolve(Unit{})
	}()
	return out.GetTask()
}

func (p *Provider) disposeAll() {
	asyncType := InterfaceID[IAsyncDisposable]()
	dispType := InterfaceID[IDisposable]()

	p.mu.RLock()
	accessors := append([]*accessor(nil), p.accessors...)
	p.mu.RUnlock()

	var tasks []async.Task[Unit]
	for _, a := range accessors {
		if api, ok := a.getAPI(asyncType, DoNotCreate); ok {
			if d, ok := api.(IAsyncDisposable); ok {
				tasks = append(tasks, d.DisposeAsync())
			}
		}
	}
	exp := async.NewEternalExpiration()
	async.WaitResult(async.WhenAll(exp, async.Cells(tasks)...), exp)

	for _, a := range accessors {
		if api, ok := a.getAPI(dispType, DoNotCreate); ok {
			if d, ok := api.(IDisposable); ok {
				d.Dispose()
			}
		}
	}
}
