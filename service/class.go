package service

import "reflect"

// ClassDescriptor describes a constructible service class for reflection-
// driven discovery (service.FindClasses), independent of any particular
// instance. Grounded on IClassDescriptor from service_provider_impl.cpp.
type ClassDescriptor struct {
	// Name is a human-readable identifier, used in diagnostics only.
	Name string

	// Interfaces lists every interface this class implements, for
	// FindClasses matching.
	Interfaces []reflect.Type

	// New constructs an instance. May be nil for descriptors registered
	// purely as discovery metadata over an instance added elsewhere.
	New func() (any, error)

	// Attributes is a generic bag read by collaborators that interpret
	// class-level metadata — e.g. mainloop reads "executionMode" to decide
	// sequential vs concurrent game-system scheduling (spec.md §6).
	Attributes map[string]any
}

func (cd *ClassDescriptor) hasInterface(t reflect.Type) bool {
	for _, it := range cd.Interfaces {
		if it == t {
			return true
		}
	}
	return false
}

// HasInterface reports whether cd declares t among its Interfaces. Exported
// for collaborators (e.g. package mainloop) that need to branch on a
// discovered class's interface set before constructing it.
func (cd *ClassDescriptor) HasInterface(t reflect.Type) bool {
	return cd.hasInterface(t)
}

// AddClass registers a class descriptor for later discovery via FindClasses.
func (p *Provider) AddClass(cd *ClassDescriptor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sealed {
		panic("service: AddClass after the provider has been sealed")
	}
	p.classes = append(p.classes, cd)
}

// FindClasses returns every registered class whose Interfaces satisfy mode
// against types (MatchAny: at least one; MatchAll: every one).
func (p *Provider) FindClasses(types []reflect.Type, mode MatchMode) []*ClassDescriptor {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []*ClassDescriptor
	for _, cd := range p.classes {
		matched := false
		switch mode {
		case MatchAny:
			for _, t := range types {
				if cd.hasInterface(t) {
					matched = true
					break
				}
			}
		case MatchAll:
			matched = true
			for _, t := range types {
				if !cd.hasInterface(t) {
					matched = false
					break
				}
			}
		}
		if matched {
			out = append(out, cd)
		}
	}
	return out
}
