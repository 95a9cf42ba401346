package service

import "reflect"

// AddInstance registers instance directly (already constructed), exposed as
// every interface in types. instance is also recorded as materialized
// immediately; the init/shutdown passes select services by the interface
// types they were registered under, not from that record.
func (p *Provider) AddInstance(instance any, types ...reflect.Type) {
	p.addAccessor(newDirectAccessor(instance, types))

	p.mu.Lock()
	p.materialized = append(p.materialized, instance)
	p.mu.Unlock()
}

// AddLazy registers a factory invoked at most once, on first Create-mode
// lookup, exposed as every interface in types.
func (p *Provider) AddLazy(factory func() (any, error), types ...reflect.Type) {
	p.addAccessor(newLazyAccessor(factory, types))
}

func (p *Provider) addAccessor(a *accessor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sealed {
		panic("service: AddInstance/AddLazy after the provider has been sealed")
	}
	p.accessors = append(p.accessors, a)
	for _, t := range a.types {
		p.byType[t] = append(p.byType[t], a)
	}
}

// findInternal mirrors ServiceProviderImpl::findInternal: first accessor
// registered for t wins, and a successful lazy build is tracked into
// materialized.
func (p *Provider) findInternal(t reflect.Type, mode GetMode) (any, bool) {
	p.mu.RLock()
	candidates := p.byType[t]
	p.mu.RUnlock()

	for _, a := range candidates {
		if api, ok := a.getAPI(t, mode); ok {
			p.noteMaterialized(api)
			return api, true
		}
	}
	return nil, false
}

func (p *Provider) findAllInternal(t reflect.Type, mode GetMode) []any {
	p.mu.RLock()
	candidates := p.byType[t]
	p.mu.RUnlock()

	out := make([]any, 0, len(candidates))
	for _, a := range candidates {
		if api, ok := a.getAPI(t, mode); ok {
			p.noteMaterialized(api)
			out = append(out, api)
		}
	}
	return out
}

func (p *Provider) noteMaterialized(instance any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range p.materialized {
		if m == instance {
			return
		}
	}
	p.materialized = append(p.materialized, instance)
}

// Has reports whether any accessor exposes interface T.
func Has[T any](p *Provider) bool {
	t := InterfaceID[T]()
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byType[t]) > 0
}

// Find looks up a single instance implementing T, building it lazily unless
// mode is DoNotCreate.
func Find[T any](p *Provider, mode GetMode) (T, bool) {
	var zero T
	t := InterfaceID[T]()
	api, ok := p.findInternal(t, mode)
	if !ok {
		return zero, false
	}
	v, ok := api.(T)
	return v, ok
}

// Get is Find with mode Create, panicking if no accessor provides T — for
// required dependencies resolved at a call site that has no fallback.
func Get[T any](p *Provider) T {
	v, ok := Find[T](p, Create)
	if !ok {
		panic("service: no accessor for " + InterfaceID[T]().String())
	}
	return v
}

// GetAll returns every registered instance implementing T.
func GetAll[T any](p *Provider, mode GetMode) []T {
	t := InterfaceID[T]()
	apis := p.findAllInternal(t, mode)
	out := make([]T, 0, len(apis))
	for _, api := range apis {
		if v, ok := api.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// SetInitializationProxy redirects preInit/init/shutdown calls intended for
// source onto proxy instead, while dependency computation still consults
// source's declared dependencies. Passing a nil proxy clears any existing
// redirection. Grounded on ServiceProviderImpl::setInitializationProxy.
func (p *Provider) SetInitializationProxy(source IServiceInitialization, proxy IServiceInitialization) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if proxy == nil {
		delete(p.proxies, source)
		return
	}
	if _, exists := p.proxies[source]; exists {
		panic("service: initialization proxy for source already set")
	}
	p.proxies[source] = proxy
}

func (p *Provider) resolveProxy(source any) any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if proxy, ok := p.proxies[source]; ok {
		return proxy
	}
	return source
}

// Seal forbids further AddInstance/AddLazy/AddClass calls. ShutdownServices
// seals the provider itself as its first step; Seal does the same for hosts
// that want registration to close earlier, after startup.
func (p *Provider) Seal() {
	p.mu.Lock()
	p.sealed = true
	p.mu.Unlock()
}
