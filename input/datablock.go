package input

import "strconv"

// Block is the hierarchical key-value tree collaborator signals and
// actions serialize through — the contract this module consumes from the
// DataBlock text/binary parser (out of scope; see spec.md's Non-goals).
type Block interface {
	AddStr(key, value string)
	AddInt(key string, value int)
	AddReal(key string, value float64)
	AddBlock(key string) Block

	GetStr(key string) string
	GetInt(key string, def int) int
	GetReal(key string, def float64) float64
	GetBlockByName(key string) (Block, bool)
}

// MapBlock is a minimal in-memory Block, sufficient for round-tripping
// signals and actions without a real text/binary DataBlock backend —
// exercised by this package's own tests and available to any host that
// doesn't need the full DataBlock format.
type MapBlock struct {
	strs   map[string]string
	ints   map[string]int
	reals  map[string]float64
	blocks map[string]*MapBlock
}

// NewMapBlock returns an empty, ready-to-use Block.
func NewMapBlock() *MapBlock {
	return &MapBlock{
		strs:   make(map[string]string),
		ints:   make(map[string]int),
		reals:  make(map[string]float64),
		blocks: make(map[string]*MapBlock),
	}
}

func (b *MapBlock) AddStr(key, value string)     { b.strs[key] = value }
func (b *MapBlock) AddInt(key string, value int)  { b.ints[key] = value }
func (b *MapBlock) AddReal(key string, value float64) { b.reals[key] = value }

func (b *MapBlock) AddBlock(key string) Block {
	child := NewMapBlock()
	b.blocks[key] = child
	return child
}

func (b *MapBlock) GetStr(key string) string { return b.strs[key] }

func (b *MapBlock) GetInt(key string, def int) int {
	if v, ok := b.ints[key]; ok {
		return v
	}
	return def
}

func (b *MapBlock) GetReal(key string, def float64) float64 {
	if v, ok := b.reals[key]; ok {
		return v
	}
	return def
}

func (b *MapBlock) GetBlockByName(key string) (Block, bool) {
	child, ok := b.blocks[key]
	if !ok {
		return nil, false
	}
	return child, true
}

const (
	dataType       = "type"
	dataName       = "name"
	dataController = "controller"
	dataProperties = "properties"
	dataSignal     = "signal"
	dataSignals    = "signals"
)

// serializeBase writes the common signal envelope (name/type/controller),
// matching InputSignalImpl::serialize.
func serializeBase(s Signal, blk Block) {
	blk.AddStr(dataName, s.Name())
	blk.AddStr(dataType, s.Type())
	if c := s.Controller(); c != nil {
		blk.AddStr(dataController, c.Name())
	}
}

// deserializeBase reads the common signal envelope, resolving the named
// controller via ctx.
func deserializeBase(s Signal, blk Block, ctx *DeserializeContext) {
	s.SetName(blk.GetStr(dataName))
	if ctx != nil && ctx.Controllers != nil {
		if c, ok := ctx.Controllers.Controller(blk.GetStr(dataController)); ok {
			s.SetController(c)
		}
	}
}

// ControllerLookup resolves a controller by name during deserialization —
// the Go stand-in for getServiceProvider().get<IInputSystem>().getController(name).
type ControllerLookup interface {
	Controller(name string) (Controller, bool)
}

// DeserializeContext carries the collaborators Deserialize needs beyond
// the block itself: the signal factory (to reconstruct composite
// children) and a controller lookup (to resolve the controller field) —
// threaded explicitly rather than read from an ambient global, per this
// module's no-ambient-globals convention.
type DeserializeContext struct {
	Factory     *Factory
	Controllers ControllerLookup
}

func signalChildKey(i int) string { return dataSignal + strconv.Itoa(i) }
