package internal

// frame is one evaluation on the tracking stack. Untracked frames carry NoNode
// and hide the frames below them from dependency registration.
type frame struct {
	node     NodeID
	tracking bool
}

// Tracker is the tracking context of a Runtime: the stack of running
// computeds and effects plus the owner that newly created nodes belong to.
type Tracker struct {
	frames []frame

	currentOwner *Owner // for lifecycle/cleanup tracking
}

func NewTracker(root *Owner) *Tracker {
	return &Tracker{
		frames:       make([]frame, 0, 16),
		currentOwner: root,
	}
}

func (t *Tracker) push(f frame) { t.frames = append(t.frames, f) }
func (t *Tracker) pop()         { t.frames = t.frames[:len(t.frames)-1] }

func (t *Tracker) RunWithOwner(owner *Owner, fn func()) {
	prev := t.currentOwner
	t.currentOwner = owner
	defer func() { t.currentOwner = prev }()

	fn()
}

// RunWithComputation runs fn as the evaluation of node, with reads tracked
// against it and new nodes owned by scope.
func (t *Tracker) RunWithComputation(id NodeID, scope *Owner, fn func()) {
	prevOwner := t.currentOwner
	t.currentOwner = scope
	t.push(frame{node: id, tracking: true})

	defer func() {
		t.pop()
		t.currentOwner = prevOwner
	}()

	fn()
}

func (t *Tracker) RunUntracked(fn func()) {
	t.push(frame{node: NoNode})
	defer t.pop()

	fn()
}

// Current returns the node reads should be registered against, if any.
func (t *Tracker) Current() (NodeID, bool) {
	if len(t.frames) == 0 {
		return NoNode, false
	}

	top := t.frames[len(t.frames)-1]
	return top.node, top.tracking
}

func (t *Tracker) CurrentOwner() *Owner {
	return t.currentOwner
}

// Path returns the evaluation chain starting at the outermost frame of id.
func (t *Tracker) Path(id NodeID) []NodeID {
	for i, f := range t.frames {
		if f.node != id {
			continue
		}

		path := make([]NodeID, 0, len(t.frames)-i+1)
		for _, f := range t.frames[i:] {
			if f.tracking {
				path = append(path, f.node)
			}
		}
		return append(path, id)
	}

	return []NodeID{id, id}
}

func (t *Tracker) Depth() int {
	return len(t.frames)
}
