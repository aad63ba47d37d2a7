package internal

type Batcher struct {
	// each nested batch increases the depth by 1
	// if depth > 0, updates are queued until the outermost batch is complete
	depth int
}

func NewBatcher() *Batcher {
	return &Batcher{
		depth: 0,
	}
}

func (b *Batcher) IsBatching() bool {
	return b.depth > 0
}

func (b *Batcher) Depth() int {
	return b.depth
}

// Batch runs fn, then onComplete once the outermost batch returns.
// onComplete still runs when fn panics, so the queued work is not lost.
func (b *Batcher) Batch(fn, onComplete func()) {
	b.depth++
	defer func() {
		b.depth--
		if b.depth == 0 && onComplete != nil {
			onComplete()
		}
	}()

	fn()
}

// Batch runs fn with flushing deferred until the outermost batch is done
// and returns the error of that flush, if any.
func (r *Runtime) Batch(fn func()) (err error) {
	r.assertGoroutine()

	r.batcher.Batch(fn, func() { err = r.Flush() })
	return err
}
