package sig

import "github.com/omnicraft/sig/internal"

type (
	// CyclicDependencyError names the chain of nodes depending on themselves.
	CyclicDependencyError = internal.CyclicDependencyError
	// CallbackError wraps a panic raised by a compute or effect callback.
	CallbackError = internal.CallbackError
	// UseAfterDisposeError is returned, or raised, by a read or write of a disposed node.
	UseAfterDisposeError = internal.UseAfterDisposeError
)

var (
	ErrDisposed       = internal.ErrDisposed
	ErrWrongGoroutine = internal.ErrWrongGoroutine
)
