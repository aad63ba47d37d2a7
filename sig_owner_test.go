package sig

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwner(t *testing.T) {
	t.Run("runs function and disposes", func(t *testing.T) {
		rt := newRuntime(t)
		log := []string{}

		o := NewOwner(rt)

		o.Run(func() error {
			NewEffect(rt, func() {
				log = append(log, "effect")

				OnCleanup(rt, func() { log = append(log, "cleanup") })
			})

			return nil
		})

		log = append(log, "ran")
		o.Dispose()
		log = append(log, "disposed")

		assert.Equal(t, []string{
			"effect",
			"ran",
			"cleanup",
			"disposed",
		}, log)
		assert.True(t, o.Disposed())
	})

	t.Run("returns the error of fn", func(t *testing.T) {
		rt := newRuntime(t)
		oops := errors.New("oops")

		err := NewOwner(rt).Run(func() error { return oops })
		assert.ErrorIs(t, err, oops)
	})

	t.Run("nested owners", func(t *testing.T) {
		rt := newRuntime(t)
		log := []string{}

		o := NewOwner(rt)
		o.OnCleanup(func() {
			log = append(log, "parent disposed")
		})

		o.Run(func() error {
			NewOwner(rt).OnCleanup(func() {
				log = append(log, "child disposed")
			})

			return nil
		})

		o.Dispose()
		o.Dispose()

		assert.Equal(t, []string{
			"child disposed",
			"parent disposed",
		}, log)
	})

	t.Run("cleanup on a disposed owner runs now", func(t *testing.T) {
		rt := newRuntime(t)
		ran := false

		o := NewOwner(rt)
		o.Dispose()
		o.OnCleanup(func() { ran = true })

		assert.True(t, ran)
	})

	t.Run("sibling effects disposal order", func(t *testing.T) {
		rt := newRuntime(t)
		log := []string{}

		o := NewOwner(rt)

		o.Run(func() error {
			OnCleanup(rt, func() {
				log = append(log, "cleanup")
			})

			NewEffect(rt, func() {
				log = append(log, "running first")

				NewEffect(rt, func() {
					log = append(log, "running nested")
					OnCleanup(rt, func() { log = append(log, "cleanup nested") })
				})

				OnCleanup(rt, func() { log = append(log, "cleanup first") })
			})

			NewEffect(rt, func() {
				log = append(log, "running second")
				OnCleanup(rt, func() { log = append(log, "cleanup second") })
			})

			return nil
		})

		log = append(log, "ran")
		o.Dispose()
		log = append(log, "disposed")

		assert.Equal(t, []string{
			"running first",
			"running nested",
			"running second",
			"ran",
			"cleanup second",
			"cleanup nested",
			"cleanup first",
			"cleanup",
			"disposed",
		}, log)
		assert.Equal(t, 0, rt.Live(KindEffect))
	})

	t.Run("catches failures with OnError", func(t *testing.T) {
		var reported []error
		rt := newRuntime(t, WithErrorHandler(func(err error) { reported = append(reported, err) }))
		var caught []error
		oops := errors.New("oops")

		o := NewOwner(rt)
		o.OnError(func(err error) {
			caught = append(caught, err)
		})

		var errSignal *Signal[error]

		o.Run(func() error {
			// owners without a handler pass failures up
			return NewOwner(rt).Run(func() error {
				errSignal = NewSignal[error](rt, nil)

				NewEffect(rt, func() {
					if e := errSignal.Get(); e != nil {
						panic(e)
					}
				})

				return nil
			})
		})

		errSignal.Set(oops)

		require.Len(t, caught, 1)
		assert.ErrorIs(t, caught[0], oops)
		assert.Empty(t, reported)
	})

	t.Run("catches panics of Run", func(t *testing.T) {
		rt := newRuntime(t)
		var caught []error

		o := NewOwner(rt)
		o.OnError(func(err error) { caught = append(caught, err) })

		err := o.Run(func() error { panic(errors.New("oops")) })

		assert.NoError(t, err)
		require.Len(t, caught, 1)
		assert.EqualError(t, caught[0], "oops")
	})

	t.Run("uncaught panics of Run propagate", func(t *testing.T) {
		rt := newRuntime(t)

		assert.PanicsWithValue(t, "oops", func() {
			NewOwner(rt).Run(func() error { panic("oops") })
		})
	})

	t.Run("uncaught failures go to the runtime handler", func(t *testing.T) {
		var reported []error
		rt := newRuntime(t, WithErrorHandler(func(err error) { reported = append(reported, err) }))

		NewOwner(rt).Run(func() error {
			NewEffect(rt, func() { panic("oops") })
			return nil
		})

		require.Len(t, reported, 1)
		var callback *CallbackError
		require.ErrorAs(t, reported[0], &callback)
		assert.Equal(t, "oops", callback.Panic)
	})

	t.Run("disposal prevents effect re-runs", func(t *testing.T) {
		rt := newRuntime(t)
		log := []int{}

		o := NewOwner(rt)

		count := NewSignal(rt, 0)

		o.Run(func() error {
			NewEffect(rt, func() {
				log = append(log, count.Get())
			})

			return nil
		})

		count.Set(1)
		o.Dispose()

		count.Set(2)

		assert.Equal(t, []int{0, 1}, log)
		assert.Empty(t, rt.Subscribers(count.ID()))
	})

	t.Run("disposal during effect execution", func(t *testing.T) {
		rt := newRuntime(t)
		log := []int{}

		o := NewOwner(rt)

		count := NewSignal(rt, 0)

		NewEffect(rt, func() {
			if count.Get() > 0 {
				o.Dispose()
			}
		})

		o.Run(func() error {
			NewEffect(rt, func() {
				log = append(log, count.Get())
			})

			return nil
		})

		count.Set(1)

		assert.Equal(t, []int{0}, log)
	})
}
