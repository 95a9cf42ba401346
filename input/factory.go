package input

import "fmt"

// Factory constructs signals by their type tag, standing in for
// InputSystemImpl::InputSignalFactory. The zero value is not usable;
// construct with NewFactory, which registers the full closed set of
// signal types.
type Factory struct {
	ctors map[string]func() Signal
}

// NewFactory returns a Factory pre-registered with every built-in signal
// type from the closed set.
func NewFactory() *Factory {
	f := &Factory{ctors: make(map[string]func() Signal)}
	f.Register("pressed", func() Signal { return NewPressed() })
	f.Register("released", func() Signal { return NewReleased() })
	f.Register("move", func() Signal { return NewMove() })
	f.Register("move_relative", func() Signal { return NewMoveRelative() })
	f.Register("key_axis", func() Signal { return NewKeyToAxis() })
	f.Register("or", func() Signal { return NewOr() })
	f.Register("and", func() Signal { return NewAnd() })
	f.Register("not", func() Signal { return NewNot() })
	f.Register("delay", func() Signal { return NewDelay() })
	f.Register("multiple", func() Signal { return NewMultiple() })
	f.Register("scale", func() Signal { return NewScale() })
	f.Register("dead_zone", func() Signal { return NewDeadZone() })
	f.Register("clamp", func() Signal { return NewClamp() })
	return f
}

// Register adds or replaces the constructor for a signal type tag —
// exposed so a host can extend the closed set with its own signal types.
func (f *Factory) Register(signalType string, ctor func() Signal) {
	f.ctors[signalType] = ctor
}

// Create constructs a new signal of the given type.
func (f *Factory) Create(signalType string) (Signal, error) {
	ctor, ok := f.ctors[signalType]
	if !ok {
		return nil, fmt.Errorf("input: unknown signal type %q", signalType)
	}
	return ctor(), nil
}
