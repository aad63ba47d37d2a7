package binding

import (
	"fmt"
	"slices"
	"strings"
)

// EntityID addresses an entity of the render target.
type EntityID uint64

// NoEntity is the parent of top-level entities.
const NoEntity EntityID = 0

// Target is the rendering side of a mount. Bindings create entities, apply
// property values to them and destroy them when their region goes away.
//
// Create inserts the new entity under parent right before the sibling
// before, or last when before is NoEntity.
type Target interface {
	Create(parent, before EntityID, tag string) EntityID
	Apply(id EntityID, prop string, value any)
	Destroy(id EntityID)
	Listen(id EntityID, event string, handler func(payload any))
}

// Recorder is an in-memory Target keeping the live entity tree and a log
// of every call, for dry runs and tests.
type Recorder struct {
	next     EntityID
	entities map[EntityID]*Entity
	roots    []EntityID
	handlers map[EntityID]map[string]func(any)
	log      []string

	// OnDestroy, when set, is called before an entity is removed.
	OnDestroy func(id EntityID)
}

type Entity struct {
	ID       EntityID
	Parent   EntityID
	Tag      string
	Props    map[string]any
	Children []EntityID
}

func NewRecorder() *Recorder {
	return &Recorder{
		entities: make(map[EntityID]*Entity),
		handlers: make(map[EntityID]map[string]func(any)),
	}
}

func (r *Recorder) Create(parent, before EntityID, tag string) EntityID {
	r.next++
	id := r.next

	r.entities[id] = &Entity{ID: id, Parent: parent, Tag: tag, Props: make(map[string]any)}
	siblings := r.siblings(parent)
	*siblings = insertBefore(*siblings, before, id)

	if before != NoEntity {
		r.log = append(r.log, fmt.Sprintf("create %d %s before %d", id, tag, before))
	} else {
		r.log = append(r.log, fmt.Sprintf("create %d %s", id, tag))
	}
	return id
}

// siblings returns the child list entities under parent are kept in.
func (r *Recorder) siblings(parent EntityID) *[]EntityID {
	if p, ok := r.entities[parent]; ok {
		return &p.Children
	}
	return &r.roots
}

func insertBefore(ids []EntityID, before, id EntityID) []EntityID {
	if i := slices.Index(ids, before); i >= 0 {
		return slices.Insert(ids, i, id)
	}
	return append(ids, id)
}

func (r *Recorder) Apply(id EntityID, prop string, value any) {
	if e, ok := r.entities[id]; ok {
		e.Props[prop] = value
	}
	r.log = append(r.log, fmt.Sprintf("apply %d %s=%v", id, prop, value))
}

func (r *Recorder) Destroy(id EntityID) {
	if r.OnDestroy != nil {
		r.OnDestroy(id)
	}

	if e, ok := r.entities[id]; ok {
		siblings := r.siblings(e.Parent)
		*siblings = slices.DeleteFunc(*siblings, func(c EntityID) bool { return c == id })
		delete(r.entities, id)
	}
	delete(r.handlers, id)

	r.log = append(r.log, fmt.Sprintf("destroy %d", id))
}

func (r *Recorder) Listen(id EntityID, event string, handler func(any)) {
	if r.handlers[id] == nil {
		r.handlers[id] = make(map[string]func(any))
	}
	r.handlers[id][event] = handler

	r.log = append(r.log, fmt.Sprintf("listen %d %s", id, event))
}

// Emit fires event on id and reports whether a handler was registered.
func (r *Recorder) Emit(id EntityID, event string, payload any) bool {
	h, ok := r.handlers[id][event]
	if ok {
		h(payload)
	}
	return ok
}

func (r *Recorder) Entity(id EntityID) (*Entity, bool) {
	e, ok := r.entities[id]
	return e, ok
}

// Find returns the live entities with the given tag, oldest first.
func (r *Recorder) Find(tag string) []*Entity {
	var out []*Entity
	for _, e := range r.entities {
		if e.Tag == tag {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b *Entity) int { return int(a.ID) - int(b.ID) })
	return out
}

func (r *Recorder) Len() int {
	return len(r.entities)
}

func (r *Recorder) Log() []string {
	return slices.Clone(r.log)
}

func (r *Recorder) ResetLog() {
	r.log = nil
}

// Tree renders the live entities as an indented outline.
func (r *Recorder) Tree() string {
	var b strings.Builder

	var walk func(ids []EntityID, depth int)
	walk = func(ids []EntityID, depth int) {
		for _, id := range ids {
			e := r.entities[id]
			fmt.Fprintf(&b, "%s%s", strings.Repeat("  ", depth), e.Tag)

			keys := make([]string, 0, len(e.Props))
			for k := range e.Props {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, " %s=%v", k, e.Props[k])
			}
			b.WriteString("\n")

			walk(e.Children, depth+1)
		}
	}

	walk(r.roots, 0)

	return b.String()
}
