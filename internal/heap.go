package internal

// PriorityHeap holds queued effects bucketed by height.
// Within a bucket entries keep insertion order.
type PriorityHeap struct {
	max int

	buckets []*heapNode // [height]head

	lookup map[NodeID]*heapNode // for O(1) removal
	size   int
}

type heapNode struct {
	id     NodeID
	height int

	next *heapNode
	prev *heapNode
}

func NewHeap() *PriorityHeap {
	return &PriorityHeap{
		buckets: make([]*heapNode, 16),
		lookup:  make(map[NodeID]*heapNode),
	}
}

func (h *PriorityHeap) Insert(id NodeID, n *node) {
	if n.HasFlag(FlagInHeap) {
		return
	}
	n.AddFlag(FlagInHeap)

	height := n.height
	for height >= len(h.buckets) {
		h.buckets = append(h.buckets, make([]*heapNode, len(h.buckets))...)
	}

	entry := &heapNode{id: id, height: height}
	h.lookup[id] = entry
	h.size++

	if h.buckets[height] == nil {
		h.buckets[height] = entry
		entry.prev = entry // loop to self
	} else {
		head := h.buckets[height]
		tail := head.prev

		tail.next = entry
		entry.prev = tail
		head.prev = entry
	}

	if height > h.max {
		h.max = height
	}
}

func (h *PriorityHeap) Remove(id NodeID, n *node) {
	if n != nil {
		if !n.HasFlag(FlagInHeap) {
			return
		}
		n.RemoveFlag(FlagInHeap)
	}

	entry, ok := h.lookup[id]
	if !ok {
		return
	}
	delete(h.lookup, id)
	h.size--

	height := entry.height
	head := h.buckets[height]

	// single node
	if entry.prev == entry {
		h.buckets[height] = nil
		return
	}

	// multiple nodes
	if entry == head {
		h.buckets[height] = entry.next
	} else {
		entry.prev.next = entry.next
	}

	next := entry.next
	if next == nil {
		next = h.buckets[height]
	}
	next.prev = entry.prev
}

func (h *PriorityHeap) Len() int {
	return h.size
}

// Take empties the heap and returns its ids lowest height first.
// The caller is responsible for clearing FlagInHeap on the returned nodes.
func (h *PriorityHeap) Take() []NodeID {
	if h.size == 0 {
		return nil
	}

	ids := make([]NodeID, 0, h.size)
	for height := 0; height <= h.max; height++ {
		for entry := h.buckets[height]; entry != nil; entry = entry.next {
			ids = append(ids, entry.id)
		}
		h.buckets[height] = nil
	}

	clear(h.lookup)
	h.size = 0
	h.max = 0

	return ids
}
