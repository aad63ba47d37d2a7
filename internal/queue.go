package internal

// EffectQueue holds the effects waiting for the next flush pass,
// one height-ordered heap per effect type.
type EffectQueue struct {
	effects map[EffectType]*PriorityHeap
}

func NewEffectQueue() *EffectQueue {
	effects := make(map[EffectType]*PriorityHeap)
	effects[EffectRender] = NewHeap()
	effects[EffectUser] = NewHeap()

	return &EffectQueue{effects}
}

func (q *EffectQueue) Enqueue(id NodeID, n *node) {
	q.effects[n.effectType].Insert(id, n)
}

func (q *EffectQueue) Remove(id NodeID, n *node) {
	q.effects[n.effectType].Remove(id, n)
}

func (q *EffectQueue) Len() int {
	return q.effects[EffectRender].Len() + q.effects[EffectUser].Len()
}

// Take returns the pending effects of one pass, render effects first.
func (q *EffectQueue) Take() []NodeID {
	return append(q.effects[EffectRender].Take(), q.effects[EffectUser].Take()...)
}

type SettledQueue struct {
	callbacks []func()
}

func NewSettledQueue() *SettledQueue {
	return &SettledQueue{
		callbacks: make([]func(), 0),
	}
}

func (q *SettledQueue) Enqueue(fn func()) {
	q.callbacks = append(q.callbacks, fn)
}

func (q *SettledQueue) Len() int {
	return len(q.callbacks)
}

func (q *SettledQueue) Run() {
	callbacks := q.callbacks
	q.callbacks = nil

	for _, cb := range callbacks {
		cb()
	}
}
