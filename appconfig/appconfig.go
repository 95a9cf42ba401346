// Package appconfig parses the engine/modules configuration recognized by
// this module's core (spec.md §4.4's "Configuration recognized by the
// core"): search paths, optional modules, and whether to also search the
// platform PATH for native plugins.
//
// Values come from a generic Source so a host can plug in its own
// configuration backend (a DataBlock-backed file, environment variables, a
// flag set) without this package depending on any of them directly.
package appconfig

// Source is a minimal key-value reader over the engine/modules tree. A host
// adapts its real configuration backend (DataBlock, flags, env) to this
// interface; ok is false when the key is entirely absent, letting Load fall
// back to its defaults.
type Source interface {
	StringSlice(key string) (value []string, ok bool)
	Bool(key string) (value bool, ok bool)
}

const (
	keySearchPaths      = "engine/modules/searchPaths"
	keyOptionalModules  = "engine/modules/optionalModules"
	keySearchEnvPath    = "engine/modules/searchEnvPath"
)

// Modules holds the resolved engine/modules configuration.
type Modules struct {
	SearchPaths     []string
	OptionalModules []string
	SearchEnvPath   bool
}

// Option overrides a single field of Modules, applied after Source values
// are loaded — the teacher's functional-options pattern (eventloop.LoopOption)
// applied to this tree instead of loop construction flags.
type Option interface {
	apply(*Modules)
}

type optionFunc func(*Modules)

func (f optionFunc) apply(m *Modules) { f(m) }

// WithSearchPath appends an additional native plugin search directory, on
// top of whatever the Source already supplied.
func WithSearchPath(path string) Option {
	return optionFunc(func(m *Modules) { m.SearchPaths = append(m.SearchPaths, path) })
}

// WithOptionalModule marks an additional module as non-fatal to load.
func WithOptionalModule(name string) Option {
	return optionFunc(func(m *Modules) { m.OptionalModules = append(m.OptionalModules, name) })
}

// WithSearchEnvPath overrides whether the platform PATH is also searched.
func WithSearchEnvPath(enabled bool) Option {
	return optionFunc(func(m *Modules) { m.SearchEnvPath = enabled })
}

// Load reads engine/modules from src, applying any Options on top of the
// Source's values. A nil src yields the zero Modules before Options are
// applied, letting a host configure purely in-process.
func Load(src Source, opts ...Option) Modules {
	var m Modules
	if src != nil {
		if v, ok := src.StringSlice(keySearchPaths); ok {
			m.SearchPaths = v
		}
		if v, ok := src.StringSlice(keyOptionalModules); ok {
			m.OptionalModules = v
		}
		if v, ok := src.Bool(keySearchEnvPath); ok {
			m.SearchEnvPath = v
		}
	}
	for _, o := range opts {
		o.apply(&m)
	}
	return m
}

// IsOptional reports whether name was declared as an optional module, i.e.
// its load failure should be logged and ignored rather than fatal.
func (m Modules) IsOptional(name string) bool {
	for _, n := range m.OptionalModules {
		if n == name {
			return true
		}
	}
	return false
}
