package input

import "time"

const (
	propAxisX = "axis_x"
	propAxisY = "axis_y"
	propAxisZ = "axis_z"
	propAxisW = "axis_w"
)

// axisSignal resolves up to four axis indices from properties, caching
// them until the properties change. Grounded on InputSignalAxis.
type axisSignal struct {
	base
	leafSignal
	axisID    [4]int
	prevValue Vec4
}

func newAxisSignal(typ string) axisSignal {
	s := axisSignal{base: newBase(typ)}
	s.axisID = [4]int{-1, -1, -1, -1}
	s.properties.add(propAxisX, -1)
	s.properties.add(propAxisY, -1)
	s.properties.add(propAxisZ, -1)
	s.properties.add(propAxisW, -1)
	return s
}

func (s *axisSignal) resolveAxes() {
	if s.properties.Changed() {
		s.axisID[0] = s.properties.GetInt(propAxisX)
		s.axisID[1] = s.properties.GetInt(propAxisY)
		s.axisID[2] = s.properties.GetInt(propAxisZ)
		s.axisID[3] = s.properties.GetInt(propAxisW)
	}
}

func (s *axisSignal) serializeProperties(blk Block) {
	blk.AddInt(propAxisX, s.properties.GetInt(propAxisX))
	blk.AddInt(propAxisY, s.properties.GetInt(propAxisY))
	blk.AddInt(propAxisZ, s.properties.GetInt(propAxisZ))
	blk.AddInt(propAxisW, s.properties.GetInt(propAxisW))
}

func (s *axisSignal) deserializeProperties(blk Block) {
	s.properties.Set(propAxisX, blk.GetInt(propAxisX, -1))
	s.properties.Set(propAxisY, blk.GetInt(propAxisY, -1))
	s.properties.Set(propAxisZ, blk.GetInt(propAxisZ, -1))
	s.properties.Set(propAxisW, blk.GetInt(propAxisW, -1))
}

// Move reads absolute axis values into its vector, High whenever that
// vector differs from the previous frame's.
type Move struct{ axisSignal }

func NewMove() *Move { return &Move{axisSignal: newAxisSignal("move")} }

func (m *Move) Update(dt time.Duration) {
	m.resolveAxes()
	for _, axis := range m.axisID {
		if axis != -1 {
			m.vector[axis] = m.controller.Device().AxisState(axis)
		}
	}
	if m.vector.Similar(m.prevValue) {
		m.updateState(Low)
	} else {
		m.updateState(High)
		m.prevValue = m.vector
	}
}

func (m *Move) Serialize(blk Block) {
	serializeBase(m, blk)
	m.serializeProperties(blk.AddBlock(dataProperties))
}

func (m *Move) Deserialize(blk Block, ctx *DeserializeContext) error {
	deserializeBase(m, blk, ctx)
	if props, ok := blk.GetBlockByName(dataProperties); ok {
		m.deserializeProperties(props)
	}
	return nil
}

// MoveRelative reports the offset from the previous frame's axis values,
// High whenever the current reading differs from the previous one.
type MoveRelative struct {
	axisSignal
	curValue Vec4
}

func NewMoveRelative() *MoveRelative {
	return &MoveRelative{axisSignal: newAxisSignal("move_relative")}
}

func (m *MoveRelative) Update(dt time.Duration) {
	m.resolveAxes()
	for _, axis := range m.axisID {
		if axis != -1 {
			m.curValue[axis] = m.controller.Device().AxisState(axis)
		}
	}
	if m.curValue.Similar(m.prevValue) {
		m.updateState(Low)
		return
	}
	m.updateState(High)
	m.vector = Vec4{
		m.prevValue[0] - m.curValue[0],
		m.prevValue[1] - m.curValue[1],
		m.prevValue[2] - m.curValue[2],
		m.prevValue[3] - m.curValue[3],
	}
	m.prevValue = m.curValue
}

func (m *MoveRelative) Serialize(blk Block) {
	serializeBase(m, blk)
	m.serializeProperties(blk.AddBlock(dataProperties))
}

func (m *MoveRelative) Deserialize(blk Block, ctx *DeserializeContext) error {
	deserializeBase(m, blk, ctx)
	if props, ok := blk.GetBlockByName(dataProperties); ok {
		m.deserializeProperties(props)
	}
	return nil
}
