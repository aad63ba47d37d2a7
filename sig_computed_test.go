package sig

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputed(t *testing.T) {
	t.Run("derives value from signal", func(t *testing.T) {
		rt := newRuntime(t)
		log := []string{}

		count := NewSignal(rt, 1)
		double := NewComputed(rt, func() int {
			log = append(log, "doubling")
			return count.Get() * 2
		})
		plustwo := NewComputed(rt, func() int {
			log = append(log, "adding")
			return double.Get() + 2
		})

		assert.Equal(t, 1, count.Get())
		assert.Equal(t, 2, double.Get())
		assert.Equal(t, 4, plustwo.Get())

		count.Set(10)
		assert.Equal(t, 10, count.Get())
		assert.Equal(t, 20, double.Get())
		assert.Equal(t, 22, plustwo.Get())

		assert.Equal(t, []string{
			"doubling",
			"adding",
			"doubling",
			"adding",
		}, log)
	})

	t.Run("is lazy", func(t *testing.T) {
		rt := newRuntime(t)
		calls := 0

		s := NewSignal(rt, 2)
		c := NewComputed(rt, func() int {
			calls++
			return s.Get() * 2
		})
		assert.Equal(t, 0, calls)

		c.Get()
		c.Get()
		assert.Equal(t, 1, calls)

		s.Set(3)
		s.Set(4)
		assert.Equal(t, 1, calls)

		assert.Equal(t, 8, c.Get())
		assert.Equal(t, 2, calls)
	})

	t.Run("does not propagate when value unchanged", func(t *testing.T) {
		rt := newRuntime(t)
		log := []string{}

		count := NewSignal(rt, 1)
		a := NewComputed(rt, func() int {
			log = append(log, "running a")
			return count.Get() * 0 // always returns 0
		}).WithEquals(func(x, y int) bool { return x == y })
		b := NewComputed(rt, func() int {
			log = append(log, "running b")
			return a.Get() + 1
		})

		a.Get()
		b.Get()

		count.Set(10)
		assert.Equal(t, 1, b.Get())

		assert.Equal(t, []string{
			"running a",
			"running b",
			"running a",
		}, log)
	})

	t.Run("without equality every recompute propagates", func(t *testing.T) {
		rt := newRuntime(t)
		runs := 0

		count := NewSignal(rt, 1)
		zero := NewComputed(rt, func() int { return count.Get() * 0 })
		NewEffect(rt, func() {
			zero.Get()
			runs++
		})

		count.Set(2)
		assert.Equal(t, 2, runs)
	})

	t.Run("equal values skip effects", func(t *testing.T) {
		rt := newRuntime(t)
		log := []bool{}

		count := NewSignal(rt, 1)
		even := NewComputed(rt, func() bool { return count.Get()%2 == 0 }).
			WithEquals(func(a, b bool) bool { return a == b })
		NewEffect(rt, func() { log = append(log, even.Get()) })

		count.Set(3)
		count.Set(4)
		count.Set(6)

		assert.Equal(t, []bool{false, true}, log)
	})

	t.Run("peek does not track", func(t *testing.T) {
		rt := newRuntime(t)

		count := NewSignal(rt, 1)
		double := NewComputed(rt, func() int { return count.Get() * 2 })
		effect := NewEffect(rt, func() { double.Peek() })

		assert.Empty(t, rt.Dependencies(effect.ID()))
		assert.Equal(t, []NodeID{double.ID()}, rt.Subscribers(count.ID()))
	})

	t.Run("disposes nested effects on recompute", func(t *testing.T) {
		rt := newRuntime(t)
		log := []string{}

		count := NewSignal(rt, 1)
		double := NewComputed(rt, func() int {
			log = append(log, "computing")

			NewEffect(rt, func() {
				log = append(log, fmt.Sprintf("effect %d", count.Get()))

				OnCleanup(rt, func() {
					log = append(log, fmt.Sprintf("cleanup %d", count.Peek()))
				})
			})

			return count.Get() * 2
		})

		log = append(log, fmt.Sprintf("%d", double.Get()))

		count.Set(10)
		log = append(log, fmt.Sprintf("%d", double.Get()))

		assert.Equal(t, []string{
			"computing",
			"effect 1",
			"2",
			"cleanup 10",
			"effect 10",
			"cleanup 10",
			"computing",
			"effect 10",
			"20",
		}, log)
		assert.Equal(t, 1, rt.Live(KindEffect))
	})

	t.Run("mutual dependency is a cycle", func(t *testing.T) {
		rt := newRuntime(t)

		var b *Computed[int]
		a := NewComputed(rt, func() int { return b.Get() + 1 }, Named("a"))
		b = NewComputed(rt, func() int { return a.Get() + 1 }, Named("b"))

		_, err := a.TryGet()

		var cycle *CyclicDependencyError
		require.True(t, errors.As(err, &cycle))
		assert.Equal(t, []string{"a", "b", "a"}, cycle.Path)
		assert.EqualError(t, err, "sig: cyclic dependency: a → b → a")

		_, err = b.TryGet()
		assert.True(t, errors.As(err, &cycle))
	})

	t.Run("self dependency is a cycle", func(t *testing.T) {
		rt := newRuntime(t)

		var self *Computed[int]
		self = NewComputed(rt, func() int { return self.Get() }, Named("self"))

		_, err := self.TryGet()

		var cycle *CyclicDependencyError
		require.True(t, errors.As(err, &cycle))
		assert.Equal(t, []string{"self", "self"}, cycle.Path)
	})

	t.Run("recovers once the failure is fixed", func(t *testing.T) {
		rt := newRuntime(t)

		fail := NewSignal(rt, true)
		c := NewComputed(rt, func() string {
			if fail.Get() {
				panic("not ready")
			}
			return "ready"
		})

		_, err := c.TryGet()
		var callback *CallbackError
		require.True(t, errors.As(err, &callback))
		assert.Equal(t, "not ready", callback.Panic)

		fail.Set(false)
		assert.Equal(t, "ready", c.Get())
	})
}
