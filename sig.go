// Package sig is a fine-grained reactivity engine: signals, lazily cached
// computeds and effects, wired by automatic dependency tracking and flushed
// by a batching scheduler.
package sig

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/omnicraft/sig/internal"
)

type NodeID = internal.NodeID

type NodeKind = internal.NodeKind

const (
	KindSignal   = internal.KindSignal
	KindComputed = internal.KindComputed
	KindEffect   = internal.KindEffect
)

// Runtime owns one reactive graph. All of its methods, and those of the
// handles it creates, must be called from the goroutine that created it,
// except Post.
type Runtime struct {
	rt *internal.Runtime
}

// NewRuntime creates an independent reactive runtime.
func NewRuntime(opts ...Option) (*Runtime, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	cfg := internal.Config{
		Name:           o.name,
		Logger:         o.logger,
		Tracer:         o.tracer,
		Context:        o.ctx,
		MaxPasses:      o.maxPasses,
		CheckGoroutine: o.checkGoroutine,
		OnError:        o.onError,
	}

	if o.registerer != nil {
		m, err := internal.NewMetrics(o.registerer, o.name)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		cfg.Metrics = m
	}

	return &Runtime{internal.NewRuntime(cfg)}, nil
}

func (r *Runtime) Name() string { return r.rt.Name() }

func (r *Runtime) Logger() *slog.Logger { return r.rt.Logger() }

// Flush runs every queued effect now. Writes flush on their own outside of
// a batch, so this is only needed after work queued by other means.
func (r *Runtime) Flush() error { return r.rt.Flush() }

// Post queues fn to run on the runtime goroutine. Safe from any goroutine.
func (r *Runtime) Post(fn func()) { r.rt.Post(fn) }

// Drain runs everything posted so far as one batch.
func (r *Runtime) Drain() (int, error) { return r.rt.Drain() }

// Dispose every node and owner of the runtime.
func (r *Runtime) Dispose() { r.rt.Dispose() }

// Subscribers returns the nodes that read id during their last evaluation.
func (r *Runtime) Subscribers(id NodeID) []NodeID { return r.rt.Subscribers(id) }

// Dependencies returns the nodes id read during its last evaluation.
func (r *Runtime) Dependencies(id NodeID) []NodeID { return r.rt.Dependencies(id) }

func (r *Runtime) Alive(id NodeID) bool { return r.rt.Alive(id) }

func (r *Runtime) Label(id NodeID) string { return r.rt.Label(id) }

// Live returns the number of allocated nodes of a kind.
func (r *Runtime) Live(kind NodeKind) int { return r.rt.Live(kind) }

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}

	return v.(T)
}

// convert coerces v to T for callers that only hold untyped values.
func convert[T any](v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	if t, ok := v.(T); ok {
		return t, nil
	}

	target := reflect.TypeOf((*T)(nil)).Elem()
	rv := reflect.ValueOf(v)
	if rv.Type().ConvertibleTo(target) && rv.Kind() != reflect.String && target.Kind() != reflect.String {
		return rv.Convert(target).Interface().(T), nil
	}

	return zero, fmt.Errorf("sig: cannot use %T as %s", v, target)
}

// Reader is a node whose value can be read without knowing its type.
type Reader interface {
	ID() NodeID
	GetAny() (any, error)
}

// Writer is a signal that can be written without knowing its type.
type Writer interface {
	Reader
	SetAny(v any) error
}

type Signal[T any] struct {
	rt *internal.Runtime
	id NodeID
}

// NewSignal creates a read/write signal holding initial.
func NewSignal[T any](r *Runtime, initial T, opts ...NodeOption) *Signal[T] {
	o := nodeOptionsOf(opts)
	return &Signal[T]{r.rt, r.rt.NewSignal(initial, o.name)}
}

func (s *Signal[T]) ID() NodeID { return s.id }

// Get the current value of the signal, tracking the dependency if within a reactive context.
// It panics with a *UseAfterDisposeError once the signal is disposed.
func (s *Signal[T]) Get() T {
	v, err := s.TryGet()
	if err != nil {
		panic(err)
	}
	return v
}

func (s *Signal[T]) TryGet() (T, error) {
	v, err := s.rt.ReadSignal(s.id)
	return as[T](v), err
}

// Peek the current value without tracking.
func (s *Signal[T]) Peek() T {
	v, err := s.rt.PeekSignal(s.id)
	if err != nil {
		panic(err)
	}
	return as[T](v)
}

// Set a new value, notifying every dependent even if the value is equal.
// Outside of a batch, dependents are updated before Set returns.
func (s *Signal[T]) Set(v T) {
	if err := s.TrySet(v); err != nil {
		if errors.Is(err, ErrDisposed) {
			panic(err)
		}
	}
}

// TrySet is Set returning the use-after-dispose or flush error instead of panicking.
func (s *Signal[T]) TrySet(v T) error {
	return s.rt.WriteSignal(s.id, v)
}

// Update writes fn applied to the current value without tracking the read.
func (s *Signal[T]) Update(fn func(T) T) {
	if err := s.TryUpdate(fn); err != nil {
		if errors.Is(err, ErrDisposed) {
			panic(err)
		}
	}
}

func (s *Signal[T]) TryUpdate(fn func(T) T) error {
	return s.rt.UpdateSignal(s.id, func(v any) any { return fn(as[T](v)) })
}

func (s *Signal[T]) GetAny() (any, error) {
	return s.rt.ReadSignal(s.id)
}

// SetAny converts v to T and sets it.
func (s *Signal[T]) SetAny(v any) error {
	t, err := convert[T](v)
	if err != nil {
		return err
	}
	return s.TrySet(t)
}

func (s *Signal[T]) Dispose() { s.rt.DisposeNode(s.id) }

func (s *Signal[T]) Disposed() bool { return !s.rt.Alive(s.id) }

type Computed[T any] struct {
	rt *internal.Runtime
	id NodeID
}

// NewComputed creates a lazily evaluated value derived from other nodes (its a memo).
// compute only runs when the value is read and a dependency changed since the last run.
func NewComputed[T any](r *Runtime, compute func() T, opts ...NodeOption) *Computed[T] {
	o := nodeOptionsOf(opts)
	return &Computed[T]{
		r.rt,
		r.rt.NewComputed(func() any { return compute() }, o.name),
	}
}

func (c *Computed[T]) ID() NodeID { return c.id }

// WithEquals makes recomputes that produce an equal value invisible to dependents.
func (c *Computed[T]) WithEquals(fn func(a, b T) bool) *Computed[T] {
	c.rt.SetEquals(c.id, func(a, b any) bool { return fn(as[T](a), as[T](b)) })
	return c
}

// Get the current value, recomputing if needed and tracking the dependency if within a reactive context.
// It panics with the error of a failed evaluation, or a *UseAfterDisposeError.
func (c *Computed[T]) Get() T {
	v, err := c.TryGet()
	if err != nil {
		panic(err)
	}
	return v
}

func (c *Computed[T]) TryGet() (T, error) {
	v, err := c.rt.ReadComputed(c.id)
	return as[T](v), err
}

func (c *Computed[T]) Peek() T {
	v, err := c.rt.PeekComputed(c.id)
	if err != nil {
		panic(err)
	}
	return as[T](v)
}

func (c *Computed[T]) GetAny() (any, error) {
	return c.rt.ReadComputed(c.id)
}

func (c *Computed[T]) Dispose() { c.rt.DisposeNode(c.id) }

func (c *Computed[T]) Disposed() bool { return !c.rt.Alive(c.id) }

type Effect struct {
	rt *internal.Runtime
	id NodeID
}

// NewEffect creates a reactive effect that runs fn now and again
// whenever something it read changes.
func NewEffect(r *Runtime, fn func(), opts ...NodeOption) *Effect {
	o := nodeOptionsOf(opts)
	return &Effect{r.rt, r.rt.NewEffect(internal.EffectUser, fn, o.name)}
}

// NewRenderEffect is NewEffect for effects that apply values to a render target.
// Render effects run before user effects in each flush pass.
func NewRenderEffect(r *Runtime, fn func(), opts ...NodeOption) *Effect {
	o := nodeOptionsOf(opts)
	return &Effect{r.rt, r.rt.NewEffect(internal.EffectRender, fn, o.name)}
}

func (e *Effect) ID() NodeID { return e.id }

// Dispose the effect: it loses every dependency, runs its cleanups and never runs again.
func (e *Effect) Dispose() { e.rt.DisposeNode(e.id) }

func (e *Effect) Disposed() bool { return !e.rt.Alive(e.id) }

// Batch runs fn and flushes once at the end of the outermost batch,
// so dependents observe all of fn's writes at once.
func Batch(r *Runtime, fn func()) error {
	return r.rt.Batch(fn)
}

// Untrack runs the given function without tracking any reactive dependencies.
func Untrack[T any](r *Runtime, fn func() T) T {
	var result T
	r.rt.Untrack(func() { result = fn() })
	return result
}

// OnCleanup registers a function to be called when the current owner is disposed,
// or before the running effect or computed runs again.
func OnCleanup(r *Runtime, fn func()) {
	r.rt.OnCleanup(fn)
}

// OnSettled registers a function to be called once the next flush is done.
func OnSettled(r *Runtime, fn func()) {
	r.rt.OnSettled(fn)
}

type Context[T any] struct {
	ctx *internal.Context
}

// NewContext creates a new reactive context with an initial value.
func NewContext[T any](r *Runtime, initial T) *Context[T] {
	return &Context[T]{
		r.rt.NewContext(initial),
	}
}

// Value retrieves the current value of the context,
// inheriting from parent owners if not set in the current owner.
func (c *Context[T]) Value() T {
	return as[T](c.ctx.Value())
}

// Set a new value for the context in the current owner.
func (c *Context[T]) Set(value T) {
	c.ctx.Set(value)
}

type Owner struct {
	owner *internal.Owner
}

// NewOwner creates a new reactive owner.
// An owner manages the lifecycle of reactive nodes created within its context.
func NewOwner(r *Runtime) *Owner {
	return &Owner{
		r.rt.NewOwner(),
	}
}

// Run a function within the context of this owner.
// Each reactive node created within the function will be a child of this owner,
// and will be disposed when owner.Dispose() is called on this owner.
func (o *Owner) Run(fn func() error) error { return o.owner.Run(fn) }

// Dispose this owner and all its children.
func (o *Owner) Dispose() { o.owner.Dispose() }

func (o *Owner) Disposed() bool { return o.owner.Disposed() }

// Add a cleanup function to be called ONCE when the owner is disposed.
func (o *Owner) OnCleanup(fn func()) { o.owner.OnCleanup(fn) }

// Add a function to be called when a panic occurs within this owner,
// including failing effects created under it.
// If no error listener is registered, the panic will propagate as usual.
func (o *Owner) OnError(fn func(error)) { o.owner.OnError(fn) }
