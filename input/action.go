package input

import (
	"fmt"
	"time"
)

// ActionType selects when an action's callback fires.
type ActionType int

const (
	// Trigger fires once on the signal's Low→High edge.
	Trigger ActionType = iota
	// Continuous fires every frame the signal reads High.
	Continuous
)

// defaultTag is always considered active, so an untagged action always
// fires regardless of the dispatcher's active context set.
const defaultTag = ""

// Action binds a signal to a callback, gated by action type and context
// tags. Grounded on IInputAction.
type Action struct {
	name     string
	typ      ActionType
	signal   Signal
	tags     map[string]struct{}
	callback func(Signal)
	primed   bool
}

// NewAction creates an action bound to signal; callback is invoked
// whenever Dispatcher.Update decides this action should fire.
func NewAction(name string, typ ActionType, signal Signal, callback func(Signal)) *Action {
	return &Action{name: name, typ: typ, signal: signal, tags: make(map[string]struct{}), callback: callback}
}

func (a *Action) Name() string      { return a.name }
func (a *Action) Type() ActionType  { return a.typ }
func (a *Action) Signal() Signal    { return a.signal }

func (a *Action) AddContextTag(tag string) { a.tags[tag] = struct{}{} }

func (a *Action) RemoveContextTag(tag string) { delete(a.tags, tag) }

func (a *Action) HasContextTag(tag string) bool {
	_, ok := a.tags[tag]
	return ok
}

// active reports whether this action should be evaluated against the
// given active-tag set: an action with no tags (or the explicit default
// tag) is always active; otherwise at least one of its tags must be in
// activeTags.
func (a *Action) active(activeTags map[string]struct{}) bool {
	if len(a.tags) == 0 {
		return true
	}
	if _, ok := a.tags[defaultTag]; ok {
		return true
	}
	for tag := range a.tags {
		if _, ok := activeTags[tag]; ok {
			return true
		}
	}
	return false
}

// update evaluates the bound signal and fires the callback per the rules
// in spec.md §4.7: Trigger fires on Low→High (never on the action's first
// evaluated frame, so a signal already High at startup does not fire it),
// Continuous fires every High frame, and either is suppressed unless the
// action is active.
func (a *Action) update(dt time.Duration, activeTags map[string]struct{}) {
	a.signal.Update(dt)
	first := !a.primed
	a.primed = true

	if !a.active(activeTags) {
		return
	}

	switch a.typ {
	case Trigger:
		if !first && a.signal.PreviousState() == Low && a.signal.State() == High {
			a.callback(a.signal)
		}
	case Continuous:
		if a.signal.State() == High {
			a.callback(a.signal)
		}
	}
}

// Serialize writes the persisted action format from spec.md §4.7: name,
// type, tags, and the bound signal block.
func (a *Action) Serialize(blk Block) {
	blk.AddStr("name", a.name)
	switch a.typ {
	case Trigger:
		blk.AddStr("type", "trigger")
	case Continuous:
		blk.AddStr("type", "continuous")
	}
	i := 0
	for tag := range a.tags {
		tagBlk := blk.AddBlock(tagChildKey(i))
		tagBlk.AddStr("tag", tag)
		i++
	}
	a.signal.Serialize(blk.AddBlock("signal"))
}

// DeserializeAction reconstructs an action from its persisted block
// (spec.md §4.7's format: name, type, tags, signal), using ctx to
// reconstruct the bound signal tree.
func DeserializeAction(blk Block, ctx *DeserializeContext, callback func(Signal)) (*Action, error) {
	name := blk.GetStr("name")
	typ := Trigger
	if blk.GetStr("type") == "continuous" {
		typ = Continuous
	}

	signalBlk, ok := blk.GetBlockByName("signal")
	if !ok {
		return nil, fmt.Errorf("input: action %q has no signal block", name)
	}
	signal, err := ctx.Factory.Create(signalBlk.GetStr(dataType))
	if err != nil {
		return nil, err
	}
	if err := signal.Deserialize(signalBlk, ctx); err != nil {
		return nil, err
	}

	a := NewAction(name, typ, signal, callback)
	for i := 0; ; i++ {
		tagBlk, ok := blk.GetBlockByName(tagChildKey(i))
		if !ok {
			break
		}
		a.AddContextTag(tagBlk.GetStr("tag"))
	}
	return a, nil
}

func tagChildKey(i int) string { return fmt.Sprintf("tag%d", i) }

// InputSource pairs a platform event handle with a named input source —
// the active source name switches on receipt of an OS event carrying a
// matching handle.
type InputSource struct {
	Handle int
	Name   string
}

// Dispatcher owns the registry of signals/actions, the active context tag
// set, and the set of known input sources. It implements the input
// system's per-frame evaluation (the Go stand-in for IInputSystem).
type Dispatcher struct {
	Factory *Factory

	actions []*Action
	active  map[string]struct{}

	sources      []InputSource
	activeSource string
	controllers  map[string]Controller
}

// NewDispatcher creates an empty dispatcher bound to factory (pass
// NewFactory() for the built-in signal set).
func NewDispatcher(factory *Factory) *Dispatcher {
	return &Dispatcher{
		Factory:     factory,
		active:      make(map[string]struct{}),
		controllers: make(map[string]Controller),
	}
}

// RegisterController makes c resolvable by name during deserialization
// and implements ControllerLookup.
func (d *Dispatcher) RegisterController(c Controller) {
	d.controllers[c.Name()] = c
}

func (d *Dispatcher) Controller(name string) (Controller, bool) {
	c, ok := d.controllers[name]
	return c, ok
}

// AddAction registers an action for per-frame evaluation.
func (d *Dispatcher) AddAction(a *Action) { d.actions = append(d.actions, a) }

// RemoveAction unregisters an action, reporting whether it was found.
func (d *Dispatcher) RemoveAction(a *Action) bool {
	for i, existing := range d.actions {
		if existing == a {
			d.actions = append(d.actions[:i], d.actions[i+1:]...)
			return true
		}
	}
	return false
}

// Actions returns every registered action.
func (d *Dispatcher) Actions() []*Action {
	return append([]*Action(nil), d.actions...)
}

// SetContext resets the active tag set to exactly {name}.
func (d *Dispatcher) SetContext(name string) {
	d.active = map[string]struct{}{name: {}}
}

// AddContext adds name to the active tag set.
func (d *Dispatcher) AddContext(name string) { d.active[name] = struct{}{} }

// RemoveContext removes name from the active tag set.
func (d *Dispatcher) RemoveContext(name string) { delete(d.active, name) }

// SetInputSources installs the collaborator-supplied handle→name table
// consulted by OnInputSourceEvent.
func (d *Dispatcher) SetInputSources(sources []InputSource) {
	d.sources = append([]InputSource(nil), sources...)
}

// OnInputSourceEvent switches the active input source to the one matching
// handle, if any is registered. Switching sources changes only the recorded
// source name; no signal's properties or changed bit are touched (signals
// key off controller identity, not source name) — callers needing
// source-scoped controllers should swap the controllers registered under
// RegisterController when this fires.
func (d *Dispatcher) OnInputSourceEvent(handle int) {
	for _, s := range d.sources {
		if s.Handle == handle {
			d.activeSource = s.Name
			return
		}
	}
}

// ActiveInputSource returns the name of the currently active input source.
func (d *Dispatcher) ActiveInputSource() string { return d.activeSource }

// Update evaluates every registered action for one frame.
func (d *Dispatcher) Update(dt time.Duration) {
	for _, a := range d.actions {
		a.update(dt, d.active)
	}
}
