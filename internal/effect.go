package internal

// NewEffect creates an effect and runs it once right away, inside an
// implicit batch so writes it makes are flushed together afterwards.
func (r *Runtime) NewEffect(typ EffectType, fn func(), name string) NodeID {
	r.assertGoroutine()

	id, n := r.alloc(KindEffect, name)
	n.run = fn
	n.effectType = typ
	n.state = StateDirty
	n.owner = r.newOwner(n.parent)

	r.batcher.Batch(func() { r.runEffect(id) }, func() { r.Flush() })

	return id
}

// runEffect executes a queued effect unless it was disposed or none of its
// dependencies really changed. It reports whether the callback ran.
func (r *Runtime) runEffect(id NodeID) bool {
	n := r.store.get(id)
	if n == nil || n.kind != KindEffect {
		return false
	}

	if n.HasFlag(FlagInHeap) {
		r.queue.Remove(id, n)
	}

	switch n.state {
	case StateClean:
		r.metrics.effectSkip(n.effectType)
		return false
	case StateCheck:
		if !r.depsChanged(n) {
			n.state = StateClean
			r.metrics.effectSkip(n.effectType)
			return false
		}
	}

	r.execute(id, n)
	return true
}

func (r *Runtime) execute(id NodeID, n *node) {
	// cleanups of the previous run see the graph as it is now
	if err := r.guard(id, func() { r.tracker.RunUntracked(n.owner.reset) }); err != nil {
		r.fail(id, n, err)
	}

	if r.store.get(id) == nil {
		return
	}

	r.unlinkDeps(id, n)
	n.state = StateClean

	err := r.evaluate(id, n.owner, n.run)
	r.metrics.effectRun(n.effectType)

	if err != nil && r.store.get(id) != nil {
		r.fail(id, n, err)
	}
}
