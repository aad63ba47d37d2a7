package internal

import "fmt"

// NodeID addresses a node in a Runtime's arena.
// The low 32 bits hold the slot index and the high 32 bits the slot generation,
// so an id kept after its node was disposed never resolves to the slot's next tenant.
type NodeID uint64

// NoNode is the zero id. Generations start at 1 so it never resolves.
const NoNode NodeID = 0

func makeID(index, gen uint32) NodeID {
	return NodeID(uint64(gen)<<32 | uint64(index))
}

func (id NodeID) index() uint32 { return uint32(id) }
func (id NodeID) gen() uint32   { return uint32(id >> 32) }

func (id NodeID) String() string {
	return fmt.Sprintf("%d.%d", id.index(), id.gen())
}

type NodeKind uint8

const (
	KindFree NodeKind = iota
	KindSignal
	KindComputed
	KindEffect
)

func (k NodeKind) String() string {
	switch k {
	case KindSignal:
		return "signal"
	case KindComputed:
		return "computed"
	case KindEffect:
		return "effect"
	default:
		return "free"
	}
}

// NodeState orders how stale a node is. Check means "a transitive dependency
// changed, revalidate before use"; Dirty means a direct dependency changed.
type NodeState uint8

const (
	StateClean NodeState = iota
	StateCheck
	StateDirty
)

type NodeFlags uint8

const (
	FlagNone      NodeFlags = 0
	FlagComputing NodeFlags = 1 << iota
	FlagInHeap
)

type EffectType int

const (
	EffectRender EffectType = iota
	EffectUser
)

func (t EffectType) String() string {
	if t == EffectRender {
		return "render"
	}
	return "user"
}

type node struct {
	gen   uint32
	kind  NodeKind
	state NodeState
	flags NodeFlags
	name  string

	// the current height of the node in the dependency graph
	height int

	// bumped every time the observable value changes
	version uint64

	value    any
	hasValue bool
	err      error

	subs        []NodeID
	deps        []NodeID
	depVersions []uint64

	compute func() any
	equal   func(a, b any) bool

	run        func()
	effectType EffectType

	// scope owned by this computed or effect, reset before every re-run
	owner *Owner
	// scope this node was created in
	parent *Owner
}

func (n *node) alive() bool { return n.kind != KindFree }

func (n *node) HasFlag(f NodeFlags) bool { return n.flags&f != 0 }
func (n *node) AddFlag(f NodeFlags)      { n.flags |= f }
func (n *node) RemoveFlag(f NodeFlags)   { n.flags &^= f }

func (n *node) label(id NodeID) string {
	if n.name != "" {
		return n.name
	}
	return fmt.Sprintf("%s#%s", n.kind, id)
}
