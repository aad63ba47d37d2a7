package internal

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultMaxPasses bounds the passes of one flush before it is treated as a cycle.
const DefaultMaxPasses = 100

type Scheduler struct {
	// incremented each time the scheduler is flushed (when reactive nodes are updated)
	clock int

	running bool

	maxPasses int
}

func NewScheduler(maxPasses int) *Scheduler {
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}

	return &Scheduler{
		maxPasses: maxPasses,
	}
}

func (s *Scheduler) Time() int {
	return s.clock
}

func (s *Scheduler) Running() bool {
	return s.running
}

// Flush runs queued effects until none are left. Each pass runs a snapshot of
// the queue, render effects first, lowest height first; effects queued during
// a pass run in the next one, so no effect runs twice in a pass.
// A flush started while another one is running is a no-op.
func (r *Runtime) Flush() (err error) {
	r.assertGoroutine()

	s := r.scheduler
	if s.running {
		return nil
	}
	if r.queue.Len() == 0 && r.settled.Len() == 0 {
		return nil
	}

	s.running = true
	start := time.Now()

	_, span := r.tracer.Start(r.ctx, "sig.flush")
	defer span.End()

	var passes, runs int

	// the scheduler is released even if an effect escapes with a panic
	defer func() {
		s.clock++
		s.running = false

		r.metrics.observeFlush(passes, time.Since(start))
		span.SetAttributes(
			attribute.Int("sig.passes", passes),
			attribute.Int("sig.runs", runs),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		r.logger.Debug("flushed", "passes", passes, "runs", runs, "clock", s.clock)

		r.settled.Run()
	}()

	for r.queue.Len() > 0 {
		if passes >= s.maxPasses {
			return r.abortCycle()
		}
		passes++

		pass := r.queue.Take()
		for _, id := range pass {
			if n := r.store.get(id); n != nil {
				n.RemoveFlag(FlagInHeap)
			}
		}

		for _, id := range pass {
			if r.runEffect(id) {
				runs++
			}
		}
	}

	return nil
}

// abortCycle drops every pending effect and reports them as a cycle.
func (r *Runtime) abortCycle() error {
	pending := r.queue.Take()

	path := make([]string, 0, len(pending)+1)
	for _, id := range pending {
		n := r.store.get(id)
		if n == nil {
			continue
		}

		n.RemoveFlag(FlagInHeap)
		n.state = StateClean
		path = append(path, n.label(id))
	}
	if len(path) > 0 {
		path = append(path, path[0])
	}

	err := &CyclicDependencyError{Path: path}

	r.metrics.cycle()
	r.logger.Warn("flush aborted", "err", err, "max_passes", r.scheduler.maxPasses)
	r.notify(err)

	return err
}
