package input

import "time"

// gate is the composite-signal base: owns up to maxInputs child signals
// and pre-aggregates their vectors (componentwise sum) before a concrete
// type applies its own transform. Grounded on InputSignalGate.
type gate struct {
	base
	children  []Signal
	maxInputs int
}

func newGate(typ string, maxInputs int) gate {
	return gate{base: newBase(typ), maxInputs: maxInputs}
}

func (g *gate) AddInput(s Signal) error {
	if len(g.children) >= g.maxInputs {
		return ErrTooManyInputs
	}
	g.children = append(g.children, s)
	return nil
}

func (g *gate) Input(idx int) Signal {
	if idx < 0 || idx >= len(g.children) {
		return nil
	}
	return g.children[idx]
}

func (g *gate) MaxInputs() int { return g.maxInputs }

// updateInputs advances every child, sets g.vector to their componentwise
// vector sum, and invokes fn once per child with its post-update state —
// the concrete signal uses fn to fold child state into its own.
func (g *gate) updateInputs(dt time.Duration, fn func(Signal)) {
	g.vector = Vec4{}
	for _, child := range g.children {
		child.Update(dt)
		g.vector = g.vector.Add(child.Vector4())
		fn(child)
	}
}

func (g *gate) serializeProperties(blk Block) {
	for i, child := range g.children {
		child.Serialize(blk.AddBlock(signalChildKey(i)))
	}
	blk.AddInt(dataSignals, len(g.children))
}

// deserializeProperties reconstructs children via ctx.Factory, resolving
// each nested signal's type from its own block.
func (g *gate) deserializeProperties(blk Block, ctx *DeserializeContext) error {
	count := blk.GetInt(dataSignals, 0)
	for i := 0; i < count; i++ {
		childBlk, ok := blk.GetBlockByName(signalChildKey(i))
		if !ok {
			continue
		}
		child, err := ctx.Factory.Create(childBlk.GetStr(dataType))
		if err != nil {
			return err
		}
		if err := child.Deserialize(childBlk, ctx); err != nil {
			return err
		}
		g.children = append(g.children, child)
	}
	return nil
}
