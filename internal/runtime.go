package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Config configures a Runtime. Zero values select the defaults.
type Config struct {
	Name           string
	Logger         *slog.Logger
	Metrics        *Metrics
	Tracer         trace.Tracer
	Context        context.Context
	MaxPasses      int
	CheckGoroutine bool
	OnError        func(error)
}

// Runtime owns every node of one reactive graph. It is single-threaded:
// only Post may be called from other goroutines.
type Runtime struct {
	name string

	store     *Store
	tracker   *Tracker
	batcher   *Batcher
	scheduler *Scheduler
	queue     *EffectQueue
	settled   *SettledQueue
	root      *Owner

	gid            int64
	checkGoroutine bool

	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	ctx     context.Context
	onError func(error)

	mu      sync.Mutex
	mailbox []func()
}

func NewRuntime(cfg Config) *Runtime {
	r := &Runtime{
		name:           cfg.Name,
		store:          NewStore(),
		batcher:        NewBatcher(),
		scheduler:      NewScheduler(cfg.MaxPasses),
		queue:          NewEffectQueue(),
		settled:        NewSettledQueue(),
		gid:            currentGID(),
		checkGoroutine: cfg.CheckGoroutine && goroutineChecks,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		tracer:         cfg.Tracer,
		ctx:            cfg.Context,
		onError:        cfg.OnError,
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("runtime", r.name)

	if r.tracer == nil {
		r.tracer = otel.Tracer("github.com/omnicraft/sig")
	}
	if r.ctx == nil {
		r.ctx = context.Background()
	}

	r.root = r.newOwner(nil)
	r.tracker = NewTracker(r.root)

	return r
}

func (r *Runtime) Name() string {
	return r.name
}

func (r *Runtime) Logger() *slog.Logger {
	return r.logger
}

func (r *Runtime) Root() *Owner {
	return r.root
}

func (r *Runtime) Time() int {
	return r.scheduler.Time()
}

func (r *Runtime) assertGoroutine() {
	if r.checkGoroutine && currentGID() != r.gid {
		panic(ErrWrongGoroutine)
	}
}

// Post queues fn to run on the runtime's goroutine at the next Drain.
// It is the only method safe to call from any goroutine.
func (r *Runtime) Post(fn func()) {
	r.mu.Lock()
	r.mailbox = append(r.mailbox, fn)
	r.mu.Unlock()
}

// Drain runs the posted functions in one batch and reports how many ran.
func (r *Runtime) Drain() (int, error) {
	r.assertGoroutine()

	r.mu.Lock()
	posted := r.mailbox
	r.mailbox = nil
	r.mu.Unlock()

	if len(posted) == 0 {
		return 0, nil
	}

	err := r.Batch(func() {
		for _, fn := range posted {
			fn()
		}
	})

	return len(posted), err
}

// Untrack runs fn without registering any dependency on the running evaluation.
func (r *Runtime) Untrack(fn func()) {
	r.assertGoroutine()
	r.tracker.RunUntracked(fn)
}

// OnSettled registers fn to run once after the current or next flush.
// Outside of a flush or batch it is flushed right away.
func (r *Runtime) OnSettled(fn func()) {
	r.assertGoroutine()
	r.settled.Enqueue(fn)

	if !r.scheduler.running && !r.batcher.IsBatching() && r.queue.Len() > 0 {
		r.Flush()
	}
}

// report hands an uncaught failure to the runtime error handler.
func (r *Runtime) report(err error) {
	r.logger.Error("callback failed", "err", err)
	r.notify(err)
}

// notify calls the runtime error handler. A panicking handler is logged.
func (r *Runtime) notify(err error) {
	if r.onError == nil {
		return
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("error handler panicked", "panic", p, "err", err)
		}
	}()
	r.onError(err)
}

// fail delivers the failure of node id to the nearest catcher of its scope.
func (r *Runtime) fail(id NodeID, n *node, err error) {
	r.metrics.failure(n.kind)
	r.logger.Debug("node failed", "node", n.label(id), "err", err)

	scope := n.owner
	if scope == nil {
		scope = n.parent
	}
	if scope != nil {
		caught, handlerErr := catchSafely(scope, err)
		if caught && handlerErr == nil {
			return
		}
		if handlerErr != nil {
			err = errors.Join(err, handlerErr)
		}
	}

	r.report(err)
}

// catchSafely is Owner.catch with a panicking catcher returned as an error.
func catchSafely(o *Owner, err error) (caught bool, handlerErr error) {
	defer func() {
		if p := recover(); p != nil {
			caught = true
			handlerErr = fmt.Errorf("error handler: %w", asError(p))
		}
	}()

	return o.catch(err), nil
}

// Dispose tears down every node and owner of the runtime.
func (r *Runtime) Dispose() {
	r.assertGoroutine()
	r.root.reset()
}

func (r *Runtime) Kind(id NodeID) NodeKind {
	if n := r.store.get(id); n != nil {
		return n.kind
	}
	return KindFree
}

func (r *Runtime) Label(id NodeID) string {
	if n := r.store.get(id); n != nil {
		return n.label(id)
	}
	return id.String()
}

func (r *Runtime) Alive(id NodeID) bool {
	return r.store.get(id) != nil
}

func (r *Runtime) Subscribers(id NodeID) []NodeID {
	if n := r.store.get(id); n != nil {
		return slices.Clone(n.subs)
	}
	return nil
}

func (r *Runtime) Dependencies(id NodeID) []NodeID {
	if n := r.store.get(id); n != nil {
		return slices.Clone(n.deps)
	}
	return nil
}

func (r *Runtime) Live(kind NodeKind) int {
	return r.store.Live(kind)
}

// alloc creates a node owned by the current owner.
func (r *Runtime) alloc(kind NodeKind, name string) (NodeID, *node) {
	id, n := r.store.alloc(kind, name)
	n.parent = r.tracker.CurrentOwner()
	if n.parent != nil {
		n.parent.addNode(id)
	}

	r.metrics.live(kind, r.store.Live(kind))
	return id, n
}

// dispose removes a node and all its edges. Idempotent.
func (r *Runtime) dispose(id NodeID) {
	n := r.store.get(id)
	if n == nil {
		return
	}

	if n.parent != nil {
		n.parent.removeNode(id)
	}
	if n.owner != nil {
		n.owner.Dispose()
	}

	r.unlinkDeps(id, n)
	r.unlinkSubs(id, n)

	if n.HasFlag(FlagInHeap) {
		r.queue.Remove(id, n)
	}

	kind := n.kind
	r.store.release(id)
	r.metrics.live(kind, r.store.Live(kind))
}

// DisposeNode removes the node and everything it owns. Disposing twice is a no-op.
func (r *Runtime) DisposeNode(id NodeID) {
	r.assertGoroutine()
	r.dispose(id)
}
