package binding

import (
	"fmt"

	"github.com/omnicraft/sig"
	"github.com/omnicraft/sig/ast"
)

// Func is a callable value: an arrow evaluated in an Env, or a host function.
type Func func(args ...any) (any, error)

// Env is a chain of variable scopes. Values are float64, string, bool, nil,
// []any, map[string]any, Func, or reactive handles.
type Env struct {
	rt     *sig.Runtime
	parent *Env
	vars   map[string]any
}

func NewEnv(rt *sig.Runtime) *Env {
	return &Env{rt: rt, vars: make(map[string]any)}
}

// Child returns a scope whose lookups fall back to e.
func (e *Env) Child() *Env {
	return &Env{rt: e.rt, parent: e, vars: make(map[string]any)}
}

func (e *Env) Runtime() *sig.Runtime {
	return e.rt
}

// Define binds name in this scope.
func (e *Env) Define(name string, v any) {
	e.vars[name] = v
}

func (e *Env) Lookup(name string) (any, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Setup runs a component script in e: signals, memos and effects become
// live reactive nodes owned by the current owner, plain declarations values.
func (e *Env) Setup(script []ast.Stmt) error {
	for i, stmt := range script {
		decl, ok := stmt.(*ast.VarDecl)
		if !ok || decl.Reactive == ast.Plain {
			if _, err := e.exec(stmt); err != nil {
				return fmt.Errorf("script[%d]: %w", i, err)
			}
			continue
		}

		if err := e.declare(decl); err != nil {
			return fmt.Errorf("script[%d]: %s: %w", i, decl.Name, err)
		}
	}

	return nil
}

func (e *Env) declare(decl *ast.VarDecl) error {
	switch decl.Reactive {
	case ast.Signal:
		v, err := e.Eval(decl.Init)
		if err != nil {
			return err
		}
		e.Define(decl.Name, sig.NewSignal[any](e.rt, v, sig.Named(decl.Name)))

	case ast.Memo:
		fn, err := e.callable(decl.Init)
		if err != nil {
			return err
		}
		e.Define(decl.Name, sig.NewComputed(e.rt, func() any { return must(fn()) }, sig.Named(decl.Name)))

	case ast.Effect:
		fn, err := e.callable(decl.Init)
		if err != nil {
			return err
		}
		e.Define(decl.Name, sig.NewEffect(e.rt, func() { must(fn()) }, sig.Named(decl.Name)))
	}

	return nil
}

func (e *Env) callable(expr ast.Expr) (Func, error) {
	v, err := e.Eval(expr)
	if err != nil {
		return nil, err
	}

	fn, ok := v.(Func)
	if !ok {
		return nil, fmt.Errorf("expected a function, got %s", typeName(v))
	}
	return fn, nil
}

// must raises err inside a reactive callback, where the runtime turns it
// into a reported failure.
func must(v any, err error) any {
	if err != nil {
		panic(err)
	}
	return v
}
