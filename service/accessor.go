package service

import (
	"reflect"
	"sync"
)

// accessor bridges a registered instance (or lazily-constructed instance) to
// the set of interface types it can be looked up as. Grounded on
// ServiceAccessor from service_provider_impl.{h,cpp}: hasApi/getApi become a
// types slice plus a getAPI closure.
type accessor struct {
	types []reflect.Type

	mu       sync.Mutex
	instance any
	built    bool
	factory  func() (any, error)
	buildErr error

	class *ClassDescriptor
}

// newDirectAccessor wraps an already-constructed instance.
func newDirectAccessor(instance any, types []reflect.Type) *accessor {
	return &accessor{types: types, instance: instance, built: true}
}

// newLazyAccessor wraps a factory invoked at most once, on first Create-mode
// lookup.
func newLazyAccessor(factory func() (any, error), types []reflect.Type) *accessor {
	return &accessor{types: types, factory: factory}
}

func (a *accessor) hasAPI(t reflect.Type) bool {
	for _, at := range a.types {
		if at == t {
			return true
		}
	}
	return false
}

// getAPI returns the instance if t is among this accessor's types. With mode
// DoNotCreate, a not-yet-built lazy accessor returns nil rather than
// constructing — mirrors ServiceAccessor::GetApiMode::DoNotCreate.
func (a *accessor) getAPI(t reflect.Type, mode GetMode) (any, bool) {
	if !a.hasAPI(t) {
		return nil, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.built {
		return a.instance, a.buildErr == nil
	}
	if mode == DoNotCreate {
		return nil, false
	}

	inst, err := a.factory()
	a.built = true
	a.instance = inst
	a.buildErr = err
	return inst, err == nil
}
