package input

import "time"

const keyNoID = -1

// keySignal is the base for pressed/released/key_axis: resolves and
// caches a key id from a named property, re-resolving only when that
// property changes. Grounded on InputSignalKey.
type keySignal struct {
	base
	leafSignal
	keyID int
}

func newKeySignal(typ string) keySignal {
	s := keySignal{base: newBase(typ), keyID: keyNoID}
	s.properties.add(propKey, "")
	return s
}

const propKey = "key"

// resolveKey re-resolves keyID from the "key" property if unresolved or
// the property changed, returning false if no controller/device/name is
// available yet — the caller should then skip the frame's update,
// matching the source's early-return-and-leave-state-untouched behavior.
func (s *keySignal) resolveKey() bool {
	if s.keyID == keyNoID || s.properties.Changed() {
		name := s.properties.GetString(propKey)
		if name == "" || s.controller == nil {
			return false
		}
		id, ok := s.controller.Device().KeyByName(name)
		if !ok {
			return false
		}
		s.keyID = id
	}
	return true
}

func (s *keySignal) serializeProperties(blk Block) {
	blk.AddStr(propKey, s.properties.GetString(propKey))
}

func (s *keySignal) deserializeProperties(blk Block) {
	s.keyID = keyNoID
	s.properties.Set(propKey, blk.GetStr(propKey))
}

// Pressed is High for exactly the frames the bound key reads Pressed.
type Pressed struct{ keySignal }

func NewPressed() *Pressed { return &Pressed{keySignal: newKeySignal("pressed")} }

func (p *Pressed) Update(dt time.Duration) {
	if !p.resolveKey() {
		return
	}
	if p.controller.Device().KeyState(p.keyID) == KeyPressed {
		p.updateState(High)
	} else {
		p.updateState(Low)
	}
}

func (p *Pressed) Serialize(blk Block) {
	serializeBase(p, blk)
	p.serializeProperties(blk.AddBlock(dataProperties))
}

func (p *Pressed) Deserialize(blk Block, ctx *DeserializeContext) error {
	deserializeBase(p, blk, ctx)
	if props, ok := blk.GetBlockByName(dataProperties); ok {
		p.deserializeProperties(props)
	}
	return nil
}

// Released is High for exactly the frames the bound key reads Released.
type Released struct{ keySignal }

func NewReleased() *Released { return &Released{keySignal: newKeySignal("released")} }

func (r *Released) Update(dt time.Duration) {
	if !r.resolveKey() {
		return
	}
	if r.controller.Device().KeyState(r.keyID) == KeyReleased {
		r.updateState(High)
	} else {
		r.updateState(Low)
	}
}

func (r *Released) Serialize(blk Block) {
	serializeBase(r, blk)
	r.serializeProperties(blk.AddBlock(dataProperties))
}

func (r *Released) Deserialize(blk Block, ctx *DeserializeContext) error {
	deserializeBase(r, blk, ctx)
	if props, ok := blk.GetBlockByName(dataProperties); ok {
		r.deserializeProperties(props)
	}
	return nil
}

const (
	propAxis  = "axis"
	propCoeff = "coeff"
)

// KeyToAxis drives one vector component by `coeff` while the bound key is
// pressed, zero otherwise.
type KeyToAxis struct {
	keySignal
}

func NewKeyToAxis() *KeyToAxis {
	s := &KeyToAxis{keySignal: newKeySignal("key_axis")}
	s.properties.add(propAxis, -1)
	s.properties.add(propCoeff, 0.0)
	return s
}

func (k *KeyToAxis) Update(dt time.Duration) {
	if !k.resolveKey() {
		return
	}
	axis := k.properties.GetInt(propAxis)
	if axis == -1 {
		return
	}
	if k.controller.Device().KeyState(k.keyID) == KeyPressed {
		k.updateState(High)
		k.vector[axis] = k.properties.GetFloat(propCoeff)
	} else {
		k.updateState(Low)
		k.vector[axis] = 0
	}
}

func (k *KeyToAxis) Serialize(blk Block) {
	serializeBase(k, blk)
	props := blk.AddBlock(dataProperties)
	k.serializeProperties(props)
	props.AddInt(propAxis, k.properties.GetInt(propAxis))
	props.AddReal(propCoeff, k.properties.GetFloat(propCoeff))
}

func (k *KeyToAxis) Deserialize(blk Block, ctx *DeserializeContext) error {
	deserializeBase(k, blk, ctx)
	props, ok := blk.GetBlockByName(dataProperties)
	if !ok {
		return nil
	}
	k.deserializeProperties(props)
	k.properties.Set(propAxis, props.GetInt(propAxis, -1))
	k.properties.Set(propCoeff, props.GetReal(propCoeff, 0))
	return nil
}
