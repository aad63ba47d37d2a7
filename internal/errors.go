package internal

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDisposed is matched by every UseAfterDisposeError.
	ErrDisposed = errors.New("sig: use after dispose")

	// ErrWrongGoroutine is raised when a runtime is used outside the goroutine that created it.
	ErrWrongGoroutine = errors.New("sig: runtime used from a foreign goroutine")
)

// CyclicDependencyError reports a chain of nodes that depend on themselves,
// either a computed re-entering its own evaluation or effects that keep
// re-triggering each other past the flush pass bound.
type CyclicDependencyError struct {
	Path []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("sig: cyclic dependency: %s", strings.Join(e.Path, " → "))
}

// CallbackError wraps a panic raised by a compute or effect callback.
type CallbackError struct {
	Node  string
	Panic any
	Stack []byte
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("sig: %s failed: %v", e.Node, e.Panic)
}

func (e *CallbackError) Unwrap() error {
	if err, ok := e.Panic.(error); ok {
		return err
	}
	return nil
}

// UseAfterDisposeError is a read or write of a disposed node.
type UseAfterDisposeError struct {
	Kind NodeKind
	Name string
	Op   string
}

func (e *UseAfterDisposeError) Error() string {
	return fmt.Sprintf("sig: %s on disposed %s %q", e.Op, e.Kind, e.Name)
}

func (e *UseAfterDisposeError) Is(target error) bool {
	return target == ErrDisposed
}

// isEngineError reports whether err was raised by the runtime itself.
// Those cross callback boundaries untouched instead of being wrapped.
func isEngineError(err error) bool {
	var (
		cycle    *CyclicDependencyError
		callback *CallbackError
		disposed *UseAfterDisposeError
	)

	return errors.As(err, &cycle) ||
		errors.As(err, &callback) ||
		errors.As(err, &disposed) ||
		errors.Is(err, ErrWrongGoroutine)
}

func asError(p any) error {
	if err, ok := p.(error); ok {
		return err
	}
	return fmt.Errorf("%v", p)
}

func (r *Runtime) errDisposed(id NodeID, kind NodeKind, op string) error {
	name := id.String()
	if index := int(id.index()); index < len(r.store.nodes) {
		if tomb := r.store.nodes[index]; tomb.gen == id.gen() && tomb.name != "" {
			name = tomb.name
		}
	}

	return &UseAfterDisposeError{Kind: kind, Name: name, Op: op}
}
