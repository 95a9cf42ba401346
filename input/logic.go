package input

import "time"

// Or is High iff any of up to 4 children is High; vector is the
// componentwise child sum.
type Or struct{ gate }

func NewOr() *Or { return &Or{gate: newGate("or", 4)} }

func (o *Or) Update(dt time.Duration) {
	state := Low
	o.updateInputs(dt, func(child Signal) {
		if child.State() == High {
			state = High
		}
	})
	o.updateState(state)
}

func (o *Or) Serialize(blk Block) {
	serializeBase(o, blk)
	o.serializeProperties(blk.AddBlock(dataProperties))
}

func (o *Or) Deserialize(blk Block, ctx *DeserializeContext) error {
	deserializeBase(o, blk, ctx)
	props, ok := blk.GetBlockByName(dataProperties)
	if !ok {
		return nil
	}
	return o.deserializeProperties(props, ctx)
}

// And is High iff every one of up to 4 children is High.
type And struct{ gate }

func NewAnd() *And { return &And{gate: newGate("and", 4)} }

func (a *And) Update(dt time.Duration) {
	state := High
	a.updateInputs(dt, func(child Signal) {
		if child.State() == Low {
			state = Low
		}
	})
	a.updateState(state)
}

func (a *And) Serialize(blk Block) {
	serializeBase(a, blk)
	a.serializeProperties(blk.AddBlock(dataProperties))
}

func (a *And) Deserialize(blk Block, ctx *DeserializeContext) error {
	deserializeBase(a, blk, ctx)
	props, ok := blk.GetBlockByName(dataProperties)
	if !ok {
		return nil
	}
	return a.deserializeProperties(props, ctx)
}

// Not inverts its single child's state.
type Not struct{ gate }

func NewNot() *Not { return &Not{gate: newGate("not", 1)} }

func (n *Not) Update(dt time.Duration) {
	state := Low
	n.updateInputs(dt, func(child Signal) {
		if child.State() == Low {
			state = High
		}
	})
	n.updateState(state)
}

func (n *Not) Serialize(blk Block) {
	serializeBase(n, blk)
	n.serializeProperties(blk.AddBlock(dataProperties))
}

func (n *Not) Deserialize(blk Block, ctx *DeserializeContext) error {
	deserializeBase(n, blk, ctx)
	props, ok := blk.GetBlockByName(dataProperties)
	if !ok {
		return nil
	}
	return n.deserializeProperties(props, ctx)
}
