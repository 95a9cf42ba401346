package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	keys  map[string]int
	state map[int]KeyState
	axes  map[int]float64
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{keys: map[string]int{}, state: map[int]KeyState{}, axes: map[int]float64{}}
}

func (d *fakeDevice) KeyByName(name string) (int, bool) {
	id, ok := d.keys[name]
	return id, ok
}
func (d *fakeDevice) KeyState(id int) KeyState      { return d.state[id] }
func (d *fakeDevice) AxisState(axis int) float64 { return d.axes[axis] }

type fakeController struct {
	name   string
	device *fakeDevice
}

func (c *fakeController) Name() string  { return c.name }
func (c *fakeController) Device() Device { return c.device }

func newFakeController(name string) *fakeController {
	return &fakeController{name: name, device: newFakeDevice()}
}

func TestSignal_PrevStateFollowsUpdate(t *testing.T) {
	ctl := newFakeController("kbd")
	ctl.device.keys["1"] = 1

	p := NewPressed()
	p.SetController(ctl)
	p.Properties().Set(propKey, "1")

	ctl.device.state[1] = KeyUp
	p.Update(0)
	before := p.State()

	ctl.device.state[1] = KeyPressed
	p.Update(0)
	assert.Equal(t, before, p.PreviousState(), "invariant 6: prevState after update equals currState before the call")
	assert.Equal(t, High, p.State())
}

func TestAction_TriggerRequiresRisingEdge(t *testing.T) {
	ctl := newFakeController("kbd")
	ctl.device.keys["1"] = 1
	ctl.device.state[1] = KeyPressed // already High at startup

	p := NewPressed()
	p.SetController(ctl)
	p.Properties().Set(propKey, "1")

	var fired int
	a := NewAction("fire", Trigger, p, func(Signal) { fired++ })

	active := map[string]struct{}{}
	a.update(0, active) // first frame: already High, no Low->High edge
	assert.Equal(t, 0, fired, "boundary: a trigger action does not fire on the first frame a signal is already High at startup")

	ctl.device.state[1] = KeyUp
	a.update(0, active)
	ctl.device.state[1] = KeyPressed
	a.update(0, active)
	assert.Equal(t, 1, fired)
}

func TestAction_ContextGating(t *testing.T) {
	ctl := newFakeController("kbd")
	ctl.device.keys["1"] = 1
	ctl.device.keys["2"] = 2

	signal1 := NewPressed()
	signal1.SetController(ctl)
	signal1.Properties().Set(propKey, "1")

	signal2 := NewPressed()
	signal2.SetController(ctl)
	signal2.Properties().Set(propKey, "2")

	var fired1, fired2 int
	a1 := NewAction("a1", Continuous, signal1, func(Signal) { fired1++ })
	a1.AddContextTag("menu")
	a2 := NewAction("a2", Continuous, signal2, func(Signal) { fired2++ })
	a2.AddContextTag("gameplay")

	d := NewDispatcher(NewFactory())
	d.AddAction(a1)
	d.AddAction(a2)

	ctl.device.state[1] = KeyPressed
	ctl.device.state[2] = KeyPressed

	d.SetContext("menu")
	d.Update(0)
	assert.Equal(t, 1, fired1)
	assert.Equal(t, 0, fired2, "E6: A2 must not fire while only 'menu' is active")

	d.AddContext("gameplay")
	d.Update(0)
	assert.Equal(t, 2, fired1)
	assert.Equal(t, 1, fired2, "E6: after adding 'gameplay', both actions fire")
}

func TestMultiple_DoubleClickWithinWindowFiresOnce(t *testing.T) {
	ctl := newFakeController("kbd")
	ctl.device.keys["1"] = 1

	press := NewPressed()
	press.SetController(ctl)
	press.Properties().Set(propKey, "1")

	m := NewMultiple()
	m.Properties().Set(propDelay, 0.05) // scaled-down from the 500ms in spec.md's E5
	m.Properties().Set(propNum, 2)
	require.NoError(t, m.AddInput(press))

	var fired int
	a := NewAction("doubleclick", Trigger, m, func(Signal) { fired++ })
	active := map[string]struct{}{}

	click := func() {
		ctl.device.state[1] = KeyPressed
		a.update(0, active)
		ctl.device.state[1] = KeyUp
		a.update(0, active)
	}

	click()
	time.Sleep(15 * time.Millisecond) // well within the 50ms window
	click()

	assert.Equal(t, 1, fired, "E5: press-release-press-release within the window fires once")
}

func TestMultiple_SpreadBeyondWindowDoesNotFire(t *testing.T) {
	ctl := newFakeController("kbd")
	ctl.device.keys["1"] = 1

	press := NewPressed()
	press.SetController(ctl)
	press.Properties().Set(propKey, "1")

	m := NewMultiple()
	m.Properties().Set(propDelay, 0.05)
	m.Properties().Set(propNum, 2)
	require.NoError(t, m.AddInput(press))

	var fired int
	a := NewAction("doubleclick", Trigger, m, func(Signal) { fired++ })
	active := map[string]struct{}{}

	click := func() {
		ctl.device.state[1] = KeyPressed
		a.update(0, active)
		ctl.device.state[1] = KeyUp
		a.update(0, active)
	}

	click()
	time.Sleep(80 * time.Millisecond) // longer than the 50ms window
	click()

	assert.Equal(t, 0, fired, "E5: transitions spread beyond the window must not accumulate toward num")
}

func TestGate_AddInputRespectsMaxInputs(t *testing.T) {
	n := NewNot()
	require.NoError(t, n.AddInput(NewPressed()))
	assert.ErrorIs(t, n.AddInput(NewPressed()), ErrTooManyInputs)
}

func TestAction_RoundTripSerialization(t *testing.T) {
	ctl := newFakeController("kbd")
	ctl.device.keys["1"] = 1

	press := NewPressed()
	press.SetController(ctl)
	press.Properties().Set(propKey, "1")

	a := NewAction("fire", Trigger, press, func(Signal) {})
	a.AddContextTag("gameplay")

	blk := NewMapBlock()
	a.Serialize(blk)

	factory := NewFactory()
	dispatcher := NewDispatcher(factory)
	dispatcher.RegisterController(ctl)

	roundTripped, err := DeserializeAction(blk, &DeserializeContext{Factory: factory, Controllers: dispatcher}, func(Signal) {})
	require.NoError(t, err)

	blk2 := NewMapBlock()
	roundTripped.Serialize(blk2)

	assert.Equal(t, blk.strs, blk2.strs)
	assert.Equal(t, blk.ints, blk2.ints)
	assert.True(t, roundTripped.HasContextTag("gameplay"))
}

func TestOrAndNot(t *testing.T) {
	ctl := newFakeController("kbd")
	ctl.device.keys["a"] = 1
	ctl.device.keys["b"] = 2

	sigA := NewPressed()
	sigA.SetController(ctl)
	sigA.Properties().Set(propKey, "a")

	sigB := NewPressed()
	sigB.SetController(ctl)
	sigB.Properties().Set(propKey, "b")

	or := NewOr()
	require.NoError(t, or.AddInput(sigA))
	require.NoError(t, or.AddInput(sigB))

	and := NewAnd()
	require.NoError(t, and.AddInput(sigA))
	require.NoError(t, and.AddInput(sigB))

	not := NewNot()
	require.NoError(t, not.AddInput(sigA))

	ctl.device.state[1] = KeyPressed
	ctl.device.state[2] = KeyUp

	or.Update(0)
	assert.Equal(t, High, or.State())

	and.Update(0)
	assert.Equal(t, Low, and.State())

	not.Update(0)
	assert.Equal(t, Low, not.State())
}
