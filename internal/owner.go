package internal

// member is one thing an owner disposes: either a child owner or a node.
type member struct {
	owner *Owner
	node  NodeID
}

// Owner is a disposal scope. Nodes and owners created while it is current
// belong to it and are disposed with it, last created first.
type Owner struct {
	r *Runtime

	// cleanup functions to be called when the owner is disposed or reset
	cleanups []func()

	// panic error handlers
	catchers []func(error)

	// the context values of this owner
	context map[any]any

	parent  *Owner
	members []member

	disposed bool
}

func (r *Runtime) NewOwner() *Owner {
	r.assertGoroutine()

	o := r.newOwner(r.tracker.CurrentOwner())
	if o.parent != nil {
		o.parent.members = append(o.parent.members, member{owner: o})
	}

	return o
}

// newOwner creates a scope under parent without registering it as a member,
// used for the private scopes of computeds and effects.
func (r *Runtime) newOwner(parent *Owner) *Owner {
	return &Owner{r: r, parent: parent}
}

// Run fn with this owner current. A panic is delivered to the nearest
// error handler; without one it propagates as usual.
func (o *Owner) Run(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			cause := asError(p)
			if !o.catch(cause) {
				panic(p)
			}
		}
	}()

	o.r.tracker.RunWithOwner(o, func() { err = fn() })
	return err
}

func (o *Owner) addNode(id NodeID) {
	o.members = append(o.members, member{node: id})
}

func (o *Owner) removeNode(id NodeID) {
	for i, m := range o.members {
		if m.owner == nil && m.node == id {
			o.members = append(o.members[:i], o.members[i+1:]...)
			return
		}
	}
}

func (o *Owner) removeChild(child *Owner) {
	for i, m := range o.members {
		if m.owner == child {
			o.members = append(o.members[:i], o.members[i+1:]...)
			return
		}
	}
}

// Dispose this owner and everything it owns. Idempotent.
func (o *Owner) Dispose() {
	if o.disposed {
		return
	}
	o.disposed = true

	if o.parent != nil {
		o.parent.removeChild(o)
	}

	o.reset()
}

// reset disposes the members and runs the cleanups but keeps the owner usable.
// Computeds and effects reset their scope before every re-run.
func (o *Owner) reset() {
	members := o.members
	o.members = nil
	o.catchers = nil

	// every member and cleanup runs even when one of them panics;
	// the first panic is raised again once the scope is empty
	var failure any
	guard := func(fn func()) {
		defer func() {
			if p := recover(); p != nil && failure == nil {
				failure = p
			}
		}()
		fn()
	}

	for i := len(members) - 1; i >= 0; i-- {
		m := members[i]
		if m.owner != nil {
			m.owner.parent = nil
			guard(m.owner.Dispose)
		} else {
			guard(func() { o.r.dispose(m.node) })
		}
	}

	cleanups := o.cleanups
	o.cleanups = nil

	for i := len(cleanups) - 1; i >= 0; i-- {
		guard(cleanups[i])
	}

	if failure != nil {
		panic(failure)
	}
}

func (o *Owner) Disposed() bool {
	return o.disposed
}

// OnCleanup adds fn to run once when the owner is disposed or reset.
// On an already disposed owner fn runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	if o.disposed {
		fn()
		return
	}

	o.cleanups = append(o.cleanups, fn)
}

func (o *Owner) OnError(fn func(error)) {
	o.catchers = append(o.catchers, fn)
}

// catch hands err to the nearest owner with error handlers.
func (o *Owner) catch(err error) bool {
	for owner := o; owner != nil; owner = owner.parent {
		if len(owner.catchers) == 0 {
			continue
		}

		for _, catcher := range owner.catchers {
			catcher(err)
		}
		return true
	}

	return false
}

func (r *Runtime) OnCleanup(fn func()) {
	owner := r.tracker.CurrentOwner()
	if owner != nil {
		owner.OnCleanup(fn)
	}
}

func (r *Runtime) CurrentOwner() *Owner {
	return r.tracker.CurrentOwner()
}
