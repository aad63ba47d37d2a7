// Package binding turns an extraction plan into live reactive bindings:
// one render effect per dynamic view binding, plus the mount and teardown
// of conditional and repeated regions.
package binding

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/omnicraft/sig"
	"github.com/omnicraft/sig/ast"
	"github.com/omnicraft/sig/extract"
)

// RegionState is the lifecycle of a structural region.
type RegionState int

const (
	Uninitialized RegionState = iota
	Mounted
	TearingDown
)

func (s RegionState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Mounted:
		return "mounted"
	case TearingDown:
		return "tearing-down"
	}
	return fmt.Sprintf("RegionState(%d)", int(s))
}

// Stats counts what a program creates per mount, excluding region bodies.
type Stats struct {
	Entities int
	Effects  int
	Static   int
	Events   int
	Regions  int
}

// Program is a compiled component, mountable any number of times.
type Program struct {
	plan  *extract.Plan
	stats Stats
}

func Compile(plan *extract.Plan) *Program {
	p := &Program{plan: plan}
	p.count(plan.Bindings)
	return p
}

func (p *Program) count(bindings []*extract.Binding) {
	for _, b := range bindings {
		switch b.Kind {
		case extract.BindElement:
			p.stats.Entities++
			for _, a := range b.Attrs {
				if a.Dynamic() {
					p.stats.Effects++
				} else {
					p.stats.Static++
				}
			}
			p.stats.Events += len(b.Events)
			p.count(b.Children)

		case extract.BindText, extract.BindExpr:
			p.stats.Entities++
			if b.Dynamic() {
				p.stats.Effects++
			} else {
				p.stats.Static++
			}

		case extract.BindIf, extract.BindEach:
			// one render effect swapping the region contents
			p.stats.Regions++
			p.stats.Effects++
		}
	}
}

func (p *Program) Plan() *extract.Plan { return p.plan }

func (p *Program) Stats() Stats { return p.stats }

// Region is a live conditional or repeated block.
type Region struct {
	Kind extract.BindingKind
	Path string

	state  RegionState
	mounts int
	scope  *sig.Owner
	head   place
}

func (r *Region) State() RegionState { return r.state }

// Mounts counts how many times the region contents were (re)built.
func (r *Region) Mounts() int { return r.mounts }

// Mount is one mounted instance of a program.
type Mount struct {
	rt      *sig.Runtime
	env     *Env
	target  Target
	owner   *sig.Owner
	regions []*Region
	roots   []EntityID

	mounting bool
	errs     []error
}

// Mount runs the component script in a child of env, then creates the
// template under parent. Everything created is owned by the mount and goes
// away with Unmount. Failures during the initial mount are returned; later
// ones are logged.
func (p *Program) Mount(rt *sig.Runtime, env *Env, target Target, parent EntityID) (*Mount, error) {
	if env == nil {
		env = NewEnv(rt)
	}

	m := &Mount{
		rt:       rt,
		env:      env.Child(),
		target:   target,
		owner:    sig.NewOwner(rt),
		mounting: true,
	}

	m.owner.OnError(func(err error) {
		if m.mounting {
			m.errs = append(m.errs, err)
			return
		}
		rt.Logger().Error("binding failed", "component", p.plan.Component, "err", err)
	})

	err := m.owner.Run(func() error {
		return sig.Batch(rt, func() {
			if err := m.env.Setup(p.plan.Script); err != nil {
				m.errs = append(m.errs, err)
				return
			}
			m.roots, _ = m.nodes(m.env, p.plan.Bindings, parent, atEnd)
		})
	})
	if err != nil {
		m.errs = append(m.errs, err)
	}
	m.mounting = false

	if err := errors.Join(m.errs...); err != nil {
		m.owner.Dispose()
		return nil, fmt.Errorf("mount %s: %w", p.plan.Component, err)
	}

	return m, nil
}

// Unmount disposes every effect of the mount and destroys its entities.
func (m *Mount) Unmount() {
	m.owner.Dispose()
}

func (m *Mount) Env() *Env { return m.env }

func (m *Mount) Roots() []EntityID { return m.roots }

func (m *Mount) Regions() []*Region { return m.regions }

// Region returns the region created for the binding at path, if any.
func (m *Mount) Region(path string) *Region {
	for _, r := range m.regions {
		if r.Path == path {
			return r
		}
	}
	return nil
}

// place finds the entity that contents rebuilt at some position of a
// parent are inserted before. NoEntity means the end of the parent.
type place func() EntityID

func atEnd() EntityID { return NoEntity }

// nodes creates bindings under parent, in order. A region rebuilt later puts
// its contents before the first entity that follows it, or before next when
// nothing between them is mounted. The returned place is the first entity
// the bindings currently hold.
func (m *Mount) nodes(env *Env, bindings []*extract.Binding, parent EntityID, next place) ([]EntityID, place) {
	heads := make([]place, len(bindings))

	// first reports the first entity held by bindings[i:], if any
	first := func(i int) EntityID {
		for ; i < len(heads); i++ {
			if heads[i] == nil {
				continue
			}
			if id := heads[i](); id != NoEntity {
				return id
			}
		}
		return NoEntity
	}

	var ids []EntityID
	for i, b := range bindings {
		after := func() EntityID {
			if id := first(i + 1); id != NoEntity {
				return id
			}
			return next()
		}

		created, head := m.node(env, b, parent, after)
		ids = append(ids, created...)
		heads[i] = head
	}

	return ids, func() EntityID { return first(0) }
}

func (m *Mount) node(env *Env, b *extract.Binding, parent EntityID, next place) ([]EntityID, place) {
	switch b.Kind {
	case extract.BindElement:
		id := m.entity(parent, next(), b.Tag)

		for _, a := range b.Attrs {
			m.attr(env, id, a.Name, a.Static, a.Expr, a.Dynamic(), b.Path)
		}
		for _, ev := range b.Events {
			m.listen(env, id, ev)
		}

		m.nodes(env, b.Children, id, atEnd)
		return []EntityID{id}, func() EntityID { return id }

	case extract.BindText, extract.BindExpr:
		id := m.entity(parent, next(), "text")
		m.attr(env, id, "content", nil, b.Expr, b.Dynamic(), b.Path)
		return []EntityID{id}, func() EntityID { return id }

	case extract.BindIf:
		r := m.ifRegion(env, b, parent, next)
		return nil, r.first
	case extract.BindEach:
		r := m.eachRegion(env, b, parent, next)
		return nil, r.first
	}

	return nil, nil
}

// entity creates an entity destroyed with the current owner.
func (m *Mount) entity(parent, before EntityID, tag string) EntityID {
	id := m.target.Create(parent, before, tag)
	sig.OnCleanup(m.rt, func() { m.target.Destroy(id) })
	return id
}

// attr applies a property once, or from a render effect when it has reactive reads.
func (m *Mount) attr(env *Env, id EntityID, name string, static any, expr ast.Expr, dynamic bool, path string) {
	if expr == nil {
		m.target.Apply(id, name, static)
		return
	}

	if !dynamic {
		v, err := env.Eval(expr)
		if err != nil {
			panic(fmt.Errorf("%s.%s: %w", path, name, err))
		}
		m.target.Apply(id, name, v)
		return
	}

	sig.NewRenderEffect(m.rt, func() {
		v, err := env.Eval(expr)
		if err != nil {
			panic(fmt.Errorf("%s.%s: %w", path, name, err))
		}
		m.target.Apply(id, name, v)
	}, sig.Named(path+"."+name))
}

// listen wires an event handler. Handlers run untracked, with their writes batched.
func (m *Mount) listen(env *Env, id EntityID, ev extract.EventBinding) {
	m.target.Listen(id, ev.Event, func(payload any) {
		var err error
		batchErr := sig.Batch(m.rt, func() {
			sig.Untrack(m.rt, func() struct{} {
				err = m.handle(env, ev, payload)
				return struct{}{}
			})
		})
		if err = errors.Join(err, batchErr); err != nil {
			m.rt.Logger().Error("event handler failed", "event", ev.Event, "err", err)
		}
	})
}

func (m *Mount) handle(env *Env, ev extract.EventBinding, payload any) error {
	v, err := env.Eval(ev.Handler)
	if err != nil {
		return err
	}

	fn, ok := v.(Func)
	if !ok {
		return fmt.Errorf("on:%s handler is %s, not a function", ev.Event, typeName(v))
	}

	_, err = fn(payload)
	return err
}

// region registers a structural region. Its scope is a child of the current
// owner; each rebuild of the region contents gets a fresh child of that scope.
func (m *Mount) region(b *extract.Binding) *Region {
	r := &Region{Kind: b.Kind, Path: b.Path, scope: sig.NewOwner(m.rt)}
	r.scope.OnCleanup(func() {
		r.state = Uninitialized
		r.head = nil
	})

	m.regions = append(m.regions, r)
	return r
}

// first returns the first entity of the region contents, if any.
func (r *Region) first() EntityID {
	if r.head == nil {
		return NoEntity
	}
	return r.head()
}

// swap tears down the current contents of r and builds new ones with build,
// which returns where the new contents start.
func (m *Mount) swap(r *Region, current **sig.Owner, build func() place) {
	sig.Untrack(m.rt, func() struct{} {
		if *current != nil {
			r.state = TearingDown
			r.head = nil
			(*current).Dispose()
		}

		var contents *sig.Owner
		r.scope.Run(func() error {
			contents = sig.NewOwner(m.rt)
			return nil
		})
		*current = contents

		contents.Run(func() error {
			r.head = build()
			return nil
		})

		r.state = Mounted
		r.mounts++
		return struct{}{}
	})
}

func (m *Mount) ifRegion(env *Env, b *extract.Binding, parent EntityID, next place) *Region {
	r := m.region(b)
	cond := b.Region.Cond

	r.scope.Run(func() error {
		truthy := sig.NewComputed(m.rt, func() bool {
			v, err := env.Eval(cond)
			if err != nil {
				panic(fmt.Errorf("%s: %w", b.Path, err))
			}
			return Truthy(v)
		}, sig.Named(b.Path+".cond")).WithEquals(func(a, b bool) bool { return a == b })

		var current *sig.Owner
		sig.NewRenderEffect(m.rt, func() {
			branch := b.Region.Else
			if truthy.Get() {
				branch = b.Region.Then
			}

			m.swap(r, &current, func() place {
				_, head := m.nodes(env.Child(), branch, parent, next)
				return head
			})
		}, sig.Named(b.Path))

		return nil
	})

	return r
}

func (m *Mount) eachRegion(env *Env, b *extract.Binding, parent EntityID, next place) *Region {
	r := m.region(b)
	region := b.Region

	r.scope.Run(func() error {
		var current *sig.Owner
		sig.NewRenderEffect(m.rt, func() {
			v, err := env.Eval(region.Source)
			if err != nil {
				panic(fmt.Errorf("%s: %w", b.Path, err))
			}

			items, err := toList(v)
			if err != nil {
				panic(fmt.Errorf("%s: %w", b.Path, err))
			}

			m.swap(r, &current, func() place {
				heads := make([]place, 0, len(items))
				for i, item := range items {
					scope := env.Child()
					scope.Define(region.Item, item)
					if region.Index != "" {
						scope.Define(region.Index, float64(i))
					}
					_, head := m.nodes(scope, region.Body, parent, next)
					heads = append(heads, head)
				}

				return func() EntityID {
					for _, head := range heads {
						if id := head(); id != NoEntity {
							return id
						}
					}
					return NoEntity
				}
			})
		}, sig.Named(b.Path))

		return nil
	})

	return r
}

func toList(v any) ([]any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return x, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("each over %s", typeName(v))
	}

	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, nil
}
