package internal

// Context is a value scoped to owners: set on one owner, it is seen by
// everything running under that owner and its descendants.
type Context struct {
	r       *Runtime
	initial any
}

func (r *Runtime) NewContext(initial any) *Context {
	return &Context{r: r, initial: initial}
}

// Value returns the value set on the nearest owner, or the initial value.
func (c *Context) Value() any {
	c.r.assertGoroutine()

	for owner := c.r.tracker.CurrentOwner(); owner != nil; owner = owner.parent {
		if v, ok := owner.context[c]; ok {
			return v
		}
	}

	return c.initial
}

// Set stores value on the current owner.
func (c *Context) Set(value any) {
	c.r.assertGoroutine()

	owner := c.r.tracker.CurrentOwner()
	if owner == nil {
		return
	}

	if owner.context == nil {
		owner.context = make(map[any]any)
	}
	owner.context[c] = value
}
