package sig

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/omnicraft/sig/internal"
)

// DefaultMaxFlushPasses is the number of passes after which a flush is
// aborted with a CyclicDependencyError.
const DefaultMaxFlushPasses = internal.DefaultMaxPasses

type options struct {
	name           string
	logger         *slog.Logger
	registerer     prometheus.Registerer
	tracer         trace.Tracer
	ctx            context.Context
	maxPasses      int
	checkGoroutine bool
	onError        func(error)
}

func defaultOptions() *options {
	return &options{
		name:           "rt-" + uuid.NewString()[:8],
		maxPasses:      DefaultMaxFlushPasses,
		checkGoroutine: true,
	}
}

type Option func(*options)

// WithName names the runtime in logs, metrics and errors.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics registers the runtime collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithTracer traces every flush with tracer instead of the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) { o.tracer = tracer }
}

// WithContext sets the parent context of flush spans.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

func WithMaxFlushPasses(n int) Option {
	return func(o *options) { o.maxPasses = n }
}

// WithGoroutineCheck toggles the panic on use from a foreign goroutine.
func WithGoroutineCheck(enabled bool) Option {
	return func(o *options) { o.checkGoroutine = enabled }
}

// WithErrorHandler receives failures no owner caught, and aborted flushes.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) { o.onError = fn }
}

type nodeOptions struct {
	name string
}

type NodeOption func(*nodeOptions)

// Named gives a node a name used in errors and logs.
func Named(name string) NodeOption {
	return func(o *nodeOptions) { o.name = name }
}

func nodeOptionsOf(opts []NodeOption) nodeOptions {
	var o nodeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
