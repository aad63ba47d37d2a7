package internal

import (
	"runtime/debug"
)

func (r *Runtime) NewComputed(compute func() any, name string) NodeID {
	r.assertGoroutine()

	id, n := r.alloc(KindComputed, name)
	n.compute = compute
	n.state = StateDirty // nothing cached yet
	n.owner = r.newOwner(n.parent)

	return id
}

// SetEquals makes recomputes that produce an equal value keep the version,
// so subscribers waiting on a Check are not re-run.
func (r *Runtime) SetEquals(id NodeID, equal func(a, b any) bool) {
	if n := r.store.get(id); n != nil && n.kind == KindComputed {
		n.equal = equal
	}
}

// ReadComputed brings the computed up to date, registers it as a dependency
// of the running evaluation and returns its value, or the error of its last
// evaluation.
func (r *Runtime) ReadComputed(id NodeID) (any, error) {
	return r.readComputed(id, true, "get")
}

// PeekComputed is ReadComputed without tracking.
func (r *Runtime) PeekComputed(id NodeID) (any, error) {
	return r.readComputed(id, false, "peek")
}

func (r *Runtime) readComputed(id NodeID, tracked bool, op string) (any, error) {
	r.assertGoroutine()

	n := r.store.get(id)
	if n == nil || n.kind != KindComputed {
		return nil, r.errDisposed(id, KindComputed, op)
	}

	if err := r.updateComputed(id, n); err != nil {
		return nil, err
	}

	// the computed may have been disposed by its own evaluation
	if r.store.get(id) == nil {
		return nil, r.errDisposed(id, KindComputed, op)
	}

	if tracked {
		r.track(id, n)
	}
	if n.err != nil {
		return nil, n.err
	}

	return n.value, nil
}

// updateComputed recomputes n if one of its dependencies really changed.
func (r *Runtime) updateComputed(id NodeID, n *node) error {
	if n.HasFlag(FlagComputing) {
		path := r.tracker.Path(id)
		labels := make([]string, 0, len(path))
		for _, p := range path {
			labels = append(labels, r.Label(p))
		}
		return &CyclicDependencyError{Path: labels}
	}

	switch n.state {
	case StateClean:
		return nil
	case StateCheck:
		if !r.depsChanged(n) {
			n.state = StateClean
			return nil
		}
	}

	r.recompute(id, n)
	return nil
}

// depsChanged brings computed dependencies up to date and reports whether
// any dependency moved past the version n last saw.
func (r *Runtime) depsChanged(n *node) bool {
	for i := 0; i < len(n.deps); i++ {
		depID := n.deps[i]
		dep := r.store.get(depID)
		if dep == nil {
			return true
		}

		if dep.kind == KindComputed {
			r.updateComputed(depID, dep)
		}

		if i >= len(n.depVersions) || dep.version != n.depVersions[i] {
			return true
		}
	}

	return false
}

func (r *Runtime) recompute(id NodeID, n *node) {
	r.unlinkDeps(id, n)
	if err := r.guard(id, func() { r.tracker.RunUntracked(n.owner.reset) }); err != nil {
		r.fail(id, n, err)
	}
	if r.store.get(id) == nil {
		return
	}

	n.AddFlag(FlagComputing)
	n.state = StateClean

	var value any
	err := r.evaluate(id, n.owner, func() { value = n.compute() })

	n.RemoveFlag(FlagComputing)
	r.metrics.recompute()

	if r.store.get(id) == nil {
		return
	}

	if err != nil {
		// a failure counts as a change so subscribers re-run and observe it
		n.err = err
		n.version++
		r.logger.Debug("compute failed", "node", n.label(id), "err", err)
		return
	}

	changed := !n.hasValue || n.err != nil || n.equal == nil || !n.equal(n.value, value)

	n.err = nil
	n.value = value
	n.hasValue = true
	if changed {
		n.version++
	}
}

// evaluate runs fn as the tracked evaluation of id. A panic is returned as an
// error: runtime errors as they are, anything else wrapped in a CallbackError.
func (r *Runtime) evaluate(id NodeID, scope *Owner, fn func()) error {
	return r.guard(id, func() { r.tracker.RunWithComputation(id, scope, fn) })
}

// guard runs fn on behalf of id and turns a panic into an error.
func (r *Runtime) guard(id NodeID, fn func()) (err error) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}

		if e, ok := p.(error); ok && isEngineError(e) {
			err = e
			return
		}

		err = &CallbackError{Node: r.Label(id), Panic: p, Stack: debug.Stack()}
	}()

	fn()
	return nil
}
