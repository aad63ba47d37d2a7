package sig

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatch(t *testing.T) {
	t.Run("batches multiple writes", func(t *testing.T) {
		rt := newRuntime(t)
		log := []string{}

		count := NewSignal(rt, 0)

		NewEffect(rt, func() {
			log = append(log, fmt.Sprintf("changed %d", count.Get()))

			OnCleanup(rt, func() {
				log = append(log, "cleanup")
			})
		})

		err := Batch(rt, func() {
			count.Set(1)
			count.Set(2)
			count.Set(3)
			log = append(log, "updated")
		})
		require.NoError(t, err)

		assert.Equal(t, []string{
			"changed 0",
			"updated",
			"cleanup",
			"changed 3",
		}, log)
	})

	t.Run("batches multiple signals", func(t *testing.T) {
		rt := newRuntime(t)
		log := []string{}

		count := NewSignal(rt, 0)
		double := NewSignal(rt, 0)

		NewEffect(rt, func() {
			log = append(log, fmt.Sprintf("count %d", count.Get()))

			OnCleanup(rt, func() {
				log = append(log, "count cleanup")
			})
		})

		NewEffect(rt, func() {
			log = append(log, fmt.Sprintf("double %d", double.Get()))

			OnCleanup(rt, func() {
				log = append(log, "double cleanup")
			})
		})

		Batch(rt, func() {
			count.Set(10)
			double.Set(count.Get() * 2)
			log = append(log, "updated")
		})

		assert.Equal(t, []string{
			"count 0",
			"double 0",
			"updated",
			"count cleanup",
			"count 10",
			"double cleanup",
			"double 20",
		}, log)
	})

	t.Run("nested batches", func(t *testing.T) {
		rt := newRuntime(t)
		log := []string{}

		count := NewSignal(rt, 0)

		NewEffect(rt, func() {
			log = append(log, fmt.Sprintf("changed %d", count.Get()))

			OnCleanup(rt, func() {
				log = append(log, "cleanup")
			})
		})

		Batch(rt, func() {
			count.Set(10)
			Batch(rt, func() {
				count.Set(20)
			})
			log = append(log, "updated")
		})

		assert.Equal(t, []string{
			"changed 0",
			"updated",
			"cleanup",
			"changed 20",
		}, log)
	})

	t.Run("subscribers never see a partial batch", func(t *testing.T) {
		rt := newRuntime(t)
		log := []string{}

		first := NewSignal(rt, "Ada")
		last := NewSignal(rt, "Lovelace")
		full := NewComputed(rt, func() string { return first.Get() + " " + last.Get() })
		NewEffect(rt, func() { log = append(log, full.Get()) })

		Batch(rt, func() {
			first.Set("Grace")
			last.Set("Hopper")
		})

		assert.Equal(t, []string{"Ada Lovelace", "Grace Hopper"}, log)
	})

	t.Run("flushes even when the batch panics", func(t *testing.T) {
		rt := newRuntime(t)
		log := []int{}

		count := NewSignal(rt, 0)
		NewEffect(rt, func() { log = append(log, count.Get()) })

		assert.Panics(t, func() {
			Batch(rt, func() {
				count.Set(1)
				panic("boom")
			})
		})

		assert.Equal(t, []int{0, 1}, log)

		count.Set(2)
		assert.Equal(t, []int{0, 1, 2}, log)
	})
}
