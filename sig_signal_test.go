package sig

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal(t *testing.T) {
	t.Run("read and write", func(t *testing.T) {
		rt := newRuntime(t)

		count := NewSignal(rt, 0)
		assert.Equal(t, 0, count.Get())

		count.Set(10)
		assert.Equal(t, 10, count.Get())
	})

	t.Run("update", func(t *testing.T) {
		rt := newRuntime(t)

		count := NewSignal(rt, 1)
		count.Update(func(n int) int { return n * 3 })
		assert.Equal(t, 3, count.Get())
	})

	t.Run("zero values", func(t *testing.T) {
		rt := newRuntime(t)

		err := NewSignal[error](rt, nil)
		assert.Nil(t, err.Get())

		err.Set(errors.New("oops"))
		assert.EqualError(t, err.Get(), "oops")

		err.Set(nil)
		assert.Nil(t, err.Get())
	})

	t.Run("every set notifies", func(t *testing.T) {
		rt := newRuntime(t)
		runs := 0

		count := NewSignal(rt, 1)
		NewEffect(rt, func() {
			count.Get()
			runs++
		})

		count.Set(1)
		count.Set(1)
		assert.Equal(t, 3, runs)
	})

	t.Run("update does not track", func(t *testing.T) {
		rt := newRuntime(t)

		count := NewSignal(rt, 0)
		effect := NewEffect(rt, func() {
			count.Update(func(n int) int { return n + 1 })
		})

		assert.Empty(t, rt.Dependencies(effect.ID()))
		assert.Equal(t, 1, count.Peek())
	})

	t.Run("peek does not track", func(t *testing.T) {
		rt := newRuntime(t)
		runs := 0

		count := NewSignal(rt, 0)
		NewEffect(rt, func() {
			count.Peek()
			runs++
		})

		count.Set(1)
		assert.Equal(t, 1, runs)
		assert.Empty(t, rt.Subscribers(count.ID()))
	})

	t.Run("untyped access", func(t *testing.T) {
		rt := newRuntime(t)

		count := NewSignal(rt, 0.0)
		var w Writer = count

		require.NoError(t, w.SetAny(2))
		assert.Equal(t, 2.0, count.Get())

		v, err := w.GetAny()
		require.NoError(t, err)
		assert.Equal(t, 2.0, v)

		assert.ErrorContains(t, w.SetAny("2"), "cannot use string as float64")
	})

	t.Run("labels", func(t *testing.T) {
		rt := newRuntime(t)

		named := NewSignal(rt, 0, Named("count"))
		anonymous := NewSignal(rt, 0)

		assert.Equal(t, "count", rt.Label(named.ID()))
		assert.Equal(t, "signal#"+anonymous.ID().String(), rt.Label(anonymous.ID()))
	})
}
