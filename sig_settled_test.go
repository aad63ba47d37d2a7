package sig

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnSettled(t *testing.T) {
	t.Run("runs when flush finishes", func(t *testing.T) {
		rt := newRuntime(t)
		log := []string{}

		count := NewSignal(rt, 0)

		NewEffect(rt, func() {
			log = append(log, fmt.Sprintf("changed %d", count.Get()))

			OnCleanup(rt, func() {
				log = append(log, "cleanup")
			})
		})

		OnSettled(rt, func() {
			log = append(log, "settled")
		})

		count.Set(10)

		assert.Equal(t, []string{
			"changed 0",
			"cleanup",
			"changed 10",
			"settled",
		}, log)
	})

	t.Run("waits for chained effects", func(t *testing.T) {
		rt := newRuntime(t)
		log := []string{}

		a := NewSignal(rt, 0)
		b := NewSignal(rt, 0)

		NewEffect(rt, func() {
			log = append(log, fmt.Sprintf("A changed %d", a.Get()))

			b.Set(a.Get() * 2)

			OnCleanup(rt, func() {
				log = append(log, "A cleanup")
			})
		})

		NewEffect(rt, func() {
			log = append(log, fmt.Sprintf("B changed %d", b.Get()))

			OnCleanup(rt, func() {
				log = append(log, "B cleanup")
			})
		})

		OnSettled(rt, func() {
			log = append(log, "settled")
		})

		a.Set(10)

		assert.Equal(t, []string{
			"A changed 0",
			"B changed 0",
			"A cleanup",
			"A changed 10",
			"B cleanup",
			"B changed 20",
			"settled",
		}, log)
	})

	t.Run("runs once", func(t *testing.T) {
		rt := newRuntime(t)
		log := []string{}

		count := NewSignal(rt, 0)
		NewEffect(rt, func() {
			log = append(log, fmt.Sprintf("changed %d", count.Get()))

			OnCleanup(rt, func() {
				log = append(log, "cleanup")
			})
		})

		OnSettled(rt, func() {
			log = append(log, "settled")
		})

		count.Set(10)
		count.Set(20)

		assert.Equal(t, []string{
			"changed 0",
			"cleanup",
			"changed 10",
			"settled",
			"cleanup",
			"changed 20",
		}, log)
	})

	t.Run("registered during a batch", func(t *testing.T) {
		rt := newRuntime(t)
		log := []string{}

		count := NewSignal(rt, 0)
		NewEffect(rt, func() { log = append(log, fmt.Sprintf("changed %d", count.Get())) })

		Batch(rt, func() {
			count.Set(1)
			OnSettled(rt, func() { log = append(log, "settled") })
			log = append(log, "batched")
		})

		assert.Equal(t, []string{"changed 0", "batched", "changed 1", "settled"}, log)
	})

	t.Run("from a goroutine", func(t *testing.T) {
		rt := newRuntime(t)
		log := []string{}

		count := NewSignal(rt, 0)
		NewEffect(rt, func() {
			log = append(log, fmt.Sprintf("changed %d", count.Get()))

			OnCleanup(rt, func() {
				log = append(log, "cleanup")
			})
		})

		var wg sync.WaitGroup
		wg.Go(func() {
			rt.Post(func() {
				OnSettled(rt, func() {
					log = append(log, "settled")
				})

				count.Set(10)
			})
		})
		wg.Wait()

		_, err := rt.Drain()
		require.NoError(t, err)

		assert.Equal(t, []string{
			"changed 0",
			"cleanup",
			"changed 10",
			"settled",
		}, log)
	})
}
