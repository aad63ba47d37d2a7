package internal

import "slices"

func (r *Runtime) NewSignal(initial any, name string) NodeID {
	r.assertGoroutine()

	id, n := r.alloc(KindSignal, name)
	n.value = initial
	n.hasValue = true

	return id
}

// ReadSignal returns the signal value and registers it as a dependency
// of the running evaluation, if any.
func (r *Runtime) ReadSignal(id NodeID) (any, error) {
	r.assertGoroutine()

	n := r.store.get(id)
	if n == nil || n.kind != KindSignal {
		return nil, r.errDisposed(id, KindSignal, "get")
	}

	r.track(id, n)
	return n.value, nil
}

// PeekSignal returns the signal value without tracking.
func (r *Runtime) PeekSignal(id NodeID) (any, error) {
	r.assertGoroutine()

	n := r.store.get(id)
	if n == nil || n.kind != KindSignal {
		return nil, r.errDisposed(id, KindSignal, "peek")
	}

	return n.value, nil
}

// WriteSignal replaces the value unconditionally and notifies every subscriber.
// Outside of a batch the queued effects are flushed before it returns.
func (r *Runtime) WriteSignal(id NodeID, v any) error {
	r.assertGoroutine()

	n := r.store.get(id)
	if n == nil || n.kind != KindSignal {
		return r.errDisposed(id, KindSignal, "set")
	}

	n.value = v
	n.version++

	for _, sub := range slices.Clone(n.subs) {
		r.mark(sub, StateDirty)
	}

	if r.batcher.IsBatching() {
		return nil
	}
	return r.Flush()
}

// UpdateSignal writes fn applied to the current value, read untracked.
func (r *Runtime) UpdateSignal(id NodeID, fn func(any) any) error {
	r.assertGoroutine()

	n := r.store.get(id)
	if n == nil || n.kind != KindSignal {
		return r.errDisposed(id, KindSignal, "update")
	}

	var next any
	r.tracker.RunUntracked(func() { next = fn(n.value) })

	return r.WriteSignal(id, next)
}

// track links the running evaluation to dep.
func (r *Runtime) track(depID NodeID, dep *node) {
	subID, ok := r.tracker.Current()
	if !ok {
		return
	}

	if sub := r.store.get(subID); sub != nil {
		r.link(subID, sub, depID, dep)
	}
}

// mark raises the state of id. Effects are queued, and computeds pass
// a Check on to their own subscribers.
func (r *Runtime) mark(id NodeID, state NodeState) {
	n := r.store.get(id)
	if n == nil || n.state >= state {
		return
	}

	wasClean := n.state == StateClean
	n.state = state

	switch n.kind {
	case KindEffect:
		r.queue.Enqueue(id, n)
	case KindComputed:
		if !wasClean {
			return
		}
		for _, sub := range slices.Clone(n.subs) {
			r.mark(sub, StateCheck)
		}
	}
}
