package input

import "time"

const (
	propScale    = "scale"
	propDeadZone = "dead_zone"
	propClamp    = "clamp"
)

// Scale forwards its single child's state, multiplying the aggregated
// vector by a configured factor.
type Scale struct {
	gate
	scale float64
}

func NewScale() *Scale {
	s := &Scale{gate: newGate("scale", 1)}
	s.properties.add(propScale, 0.0)
	return s
}

func (s *Scale) Update(dt time.Duration) {
	if s.properties.Changed() {
		s.scale = s.properties.GetFloat(propScale)
	}
	s.updateInputs(dt, func(child Signal) { s.updateState(child.State()) })
	for i := range s.vector {
		s.vector[i] *= s.scale
	}
}

func (s *Scale) Serialize(blk Block) {
	serializeBase(s, blk)
	props := blk.AddBlock(dataProperties)
	s.serializeProperties(props)
	props.AddReal(propScale, s.properties.GetFloat(propScale))
}

func (s *Scale) Deserialize(blk Block, ctx *DeserializeContext) error {
	deserializeBase(s, blk, ctx)
	props, ok := blk.GetBlockByName(dataProperties)
	if !ok {
		return nil
	}
	if err := s.deserializeProperties(props, ctx); err != nil {
		return err
	}
	s.properties.Set(propScale, props.GetReal(propScale, 0))
	return nil
}

// DeadZone forwards its single child's state, zeroing any vector
// component whose magnitude falls below a configured threshold.
type DeadZone struct {
	gate
	deadZone float64
}

func NewDeadZone() *DeadZone {
	s := &DeadZone{gate: newGate("dead_zone", 1)}
	s.properties.add(propDeadZone, 0.0)
	return s
}

func (d *DeadZone) Update(dt time.Duration) {
	if d.properties.Changed() {
		d.deadZone = d.properties.GetFloat(propDeadZone)
	}
	d.updateInputs(dt, func(child Signal) { d.updateState(child.State()) })
	for i, v := range d.vector {
		if v >= 0 && v < d.deadZone {
			d.vector[i] = 0
		} else if v <= 0 && v > -d.deadZone {
			d.vector[i] = 0
		}
	}
}

func (d *DeadZone) Serialize(blk Block) {
	serializeBase(d, blk)
	props := blk.AddBlock(dataProperties)
	d.serializeProperties(props)
	props.AddReal(propDeadZone, d.properties.GetFloat(propDeadZone))
}

func (d *DeadZone) Deserialize(blk Block, ctx *DeserializeContext) error {
	deserializeBase(d, blk, ctx)
	props, ok := blk.GetBlockByName(dataProperties)
	if !ok {
		return nil
	}
	if err := d.deserializeProperties(props, ctx); err != nil {
		return err
	}
	d.properties.Set(propDeadZone, props.GetReal(propDeadZone, 0))
	return nil
}

// Clamp forwards its single child's state, clamping each vector component
// to [-C, +C].
type Clamp struct {
	gate
	clamp float64
}

func NewClamp() *Clamp {
	s := &Clamp{gate: newGate("clamp", 1)}
	s.properties.add(propClamp, 0.0)
	return s
}

func (c *Clamp) Update(dt time.Duration) {
	if c.properties.Changed() {
		c.clamp = c.properties.GetFloat(propClamp)
	}
	c.updateInputs(dt, func(child Signal) { c.updateState(child.State()) })
	for i, v := range c.vector {
		if v >= 0 && v > c.clamp {
			c.vector[i] = c.clamp
		} else if v <= 0 && v < -c.clamp {
			c.vector[i] = -c.clamp
		}
	}
}

func (c *Clamp) Serialize(blk Block) {
	serializeBase(c, blk)
	props := blk.AddBlock(dataProperties)
	c.serializeProperties(props)
	props.AddReal(propClamp, c.properties.GetFloat(propClamp))
}

func (c *Clamp) Deserialize(blk Block, ctx *DeserializeContext) error {
	deserializeBase(c, blk, ctx)
	props, ok := blk.GetBlockByName(dataProperties)
	if !ok {
		return nil
	}
	if err := c.deserializeProperties(props, ctx); err != nil {
		return err
	}
	c.properties.Set(propClamp, props.GetReal(propClamp, 0))
	return nil
}
