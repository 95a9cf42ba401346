// Package input implements the signal graph and action dispatcher: a
// composable tree of primitive and combinator signals evaluated once per
// frame, actions bound to tagged contexts, and DataBlock-shaped
// serialization.
//
// Grounded on _examples/original_source/engine/core/modules/input/src/
// signals/*.{h,cpp} and include/nau/input_system.h.
package input

import (
	"errors"
	"time"
)

// State is a signal's binary output, with one frame of history.
type State int

const (
	Low State = iota
	High
)

// Vec4 is the signal output vector, projected down to float/vec2/vec3 on
// demand. A plain [4]float64 stands in for the source's math::vec4 — no
// pack example ships a vector-math library this module would otherwise
// pull in, and a 4-float array needs none.
type Vec4 [4]float64

func (v Vec4) Add(o Vec4) Vec4 {
	return Vec4{v[0] + o[0], v[1] + o[1], v[2] + o[2], v[3] + o[3]}
}

func (v Vec4) Similar(o Vec4) bool { return v == o }

// KeyState is a device key's instantaneous state, read from a Device.
type KeyState int

const (
	KeyUp KeyState = iota
	KeyPressed
	KeyReleased
)

// Device is the platform-proxy input device a Controller exposes —
// implemented by the collaborator platform layer (out of scope; see
// spec.md's Non-goals on platform windowing/device backends).
type Device interface {
	KeyByName(name string) (id int, ok bool)
	KeyState(id int) KeyState
	AxisState(axis int) float64
}

// Controller is a platform-proxy input source (e.g. keyboard, gamepad),
// resolved by name from a signal's properties.
type Controller interface {
	Name() string
	Device() Device
}

// ErrTooManyInputs is returned by AddInput when a composite signal's child
// slot budget is exhausted.
var ErrTooManyInputs = errors.New("input: signal has reached its maximum input count")

// Signal is a node in the input evaluation graph.
type Signal interface {
	Name() string
	SetName(string)
	Type() string

	Controller() Controller
	SetController(Controller)

	State() State
	PreviousState() State

	Value() float64
	Vector2() [2]float64
	Vector3() [3]float64
	Vector4() Vec4

	AddInput(Signal) error
	Input(idx int) Signal
	MaxInputs() int

	Properties() *PropertyMap

	// Update evaluates the signal for one frame.
	Update(dt time.Duration)

	Serialize(blk Block)
	Deserialize(blk Block, ctx *DeserializeContext) error
}

// base implements the common Signal machinery every concrete signal type
// embeds, standing in for InputSignalImpl.
type base struct {
	name       string
	typ        string
	vector     Vec4
	controller Controller
	properties PropertyMap

	currState State
	prevState State
}

func newBase(typ string) base {
	return base{typ: typ, properties: newPropertyMap()}
}

func (b *base) Name() string            { return b.name }
func (b *base) SetName(name string)      { b.name = name }
func (b *base) Type() string             { return b.typ }
func (b *base) Controller() Controller   { return b.controller }
func (b *base) SetController(c Controller) { b.controller = c }
func (b *base) State() State             { return b.currState }
func (b *base) PreviousState() State     { return b.prevState }
func (b *base) Value() float64           { return b.vector[0] }
func (b *base) Vector2() [2]float64      { return [2]float64{b.vector[0], b.vector[1]} }
func (b *base) Vector3() [3]float64      { return [3]float64{b.vector[0], b.vector[1], b.vector[2]} }
func (b *base) Vector4() Vec4            { return b.vector }
func (b *base) Properties() *PropertyMap { return &b.properties }

// updateState shifts currState into prevState before applying the new
// state. Every Update that reaches a state decision calls it once, which
// keeps the invariant: after Update, PreviousState() equals the State()
// observed immediately before the call. Update paths that return before
// deciding (a key signal whose key is not resolved yet, a key_axis signal
// with no axis, a composite with no child) leave both states untouched.
func (b *base) updateState(s State) {
	b.prevState = b.currState
	b.currState = s
}

// leafSignal is the Signal default for non-composite types: no children.
type leafSignal struct{}

func (leafSignal) AddInput(Signal) error { return ErrTooManyInputs }
func (leafSignal) Input(int) Signal      { return nil }
func (leafSignal) MaxInputs() int        { return 0 }
