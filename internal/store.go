package internal

// Store is the arena holding every signal, computed and effect of a Runtime.
// Slots are recycled through a free list; recycling bumps the generation.
type Store struct {
	nodes []*node
	free  []uint32
	live  [KindEffect + 1]int
}

func NewStore() *Store {
	return &Store{
		nodes: make([]*node, 0, 64),
	}
}

func (s *Store) alloc(kind NodeKind, name string) (NodeID, *node) {
	var index uint32
	if l := len(s.free); l > 0 {
		index = s.free[l-1]
		s.free = s.free[:l-1]
	} else {
		index = uint32(len(s.nodes))
		s.nodes = append(s.nodes, &node{})
	}

	n := s.nodes[index]
	n.gen++
	n.kind = kind
	n.name = name
	s.live[kind]++

	return makeID(index, n.gen), n
}

// get resolves an id, returning nil for stale or unknown ids.
func (s *Store) get(id NodeID) *node {
	index := id.index()
	if int(index) >= len(s.nodes) {
		return nil
	}

	n := s.nodes[index]
	if n.gen != id.gen() || !n.alive() {
		return nil
	}

	return n
}

// release frees the slot of id. The old node value is left behind marked free so
// that pointers still held by an in-flight evaluation observe the disposal,
// and a fresh node takes the slot.
func (s *Store) release(id NodeID) {
	n := s.get(id)
	if n == nil {
		return
	}

	s.live[n.kind]--
	n.kind = KindFree

	index := id.index()
	s.nodes[index] = &node{gen: n.gen, name: n.name}
	s.free = append(s.free, index)
}

// Live returns the number of live nodes of the given kind.
func (s *Store) Live(kind NodeKind) int {
	return s.live[kind]
}
