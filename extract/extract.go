// Package extract finds, at compile time, which reactive state each
// view-binding expression of a component reads, and partitions those reads
// per structural region so the binding compiler knows which effects to create.
package extract

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/omnicraft/sig/ast"
)

type Option func(*Extractor)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) { e.logger = logger }
}

type Extractor struct {
	logger *slog.Logger
}

func New(opts ...Option) *Extractor {
	e := &Extractor{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// walker collects the reads of one expression tree.
type walker struct {
	deps DepSet
	errs []error
}

func (w *walker) fail(path, format string, args ...any) {
	w.errs = append(w.errs, &AnalysisError{Path: path, Msg: fmt.Sprintf(format, args...)})
}

// Expr returns the reactive reads of e, resolved against scope.
func (e *Extractor) Expr(scope *Scope, expr ast.Expr) (DepSet, error) {
	w := &walker{}
	w.expr(scope, expr, "expr")
	return w.deps, errors.Join(w.errs...)
}

func (w *walker) expr(scope *Scope, expr ast.Expr, path string) {
	switch x := expr.(type) {
	case nil, *ast.Literal:

	case *ast.Ident:
		if kind, _ := scope.Lookup(x.Name); kind == ast.Effect {
			w.fail(path, "effect %s read as a value", x.Name)
		}

	case *ast.Call:
		w.call(scope, x, path)

	case *ast.Binary:
		w.expr(scope, x.Left, path)
		w.expr(scope, x.Right, path)

	case *ast.Unary:
		w.expr(scope, x.Operand, path)

	case *ast.Member:
		id, ok := x.Object.(*ast.Ident)
		if !ok {
			w.expr(scope, x.Object, path)
			break
		}
		// dispose is the only member of an effect handle
		if kind, _ := scope.Lookup(id.Name); kind == ast.Effect && x.Property != "dispose" {
			w.fail(path, "effect %s has no member %s", id.Name, x.Property)
		}

	case *ast.Index:
		w.expr(scope, x.Object, path)
		w.expr(scope, x.Index, path)

	case *ast.Arrow:
		inner := NewScope(scope)
		for _, p := range x.Params {
			inner.Declare(p, ast.Plain)
		}
		if x.Block != nil {
			w.stmts(inner, x.Block, path)
		} else {
			w.expr(inner, x.Body, path)
		}

	case *ast.Ternary:
		w.expr(scope, x.Cond, path)
		w.expr(scope, x.Then, path)
		w.expr(scope, x.Else, path)

	case *ast.Template:
		for _, part := range x.Parts {
			w.expr(scope, part.Expr, path)
		}

	case *ast.Array:
		for _, item := range x.Items {
			w.expr(scope, item, path)
		}

	case *ast.Object:
		for _, f := range x.Fields {
			w.expr(scope, f.Value, path)
		}

	default:
		w.fail(path, "unsupported expression %T", expr)
	}
}

// call recognizes s() and s.get() as reads of s.
func (w *walker) call(scope *Scope, call *ast.Call, path string) {
	name, accessor := accessorOf(scope, call.Callee)
	if accessor {
		if len(call.Args) > 0 {
			w.fail(path, "reactive accessor %s called with arguments", name)
		} else {
			w.deps.add(name)
		}
	} else {
		w.expr(scope, call.Callee, path)
	}

	for _, arg := range call.Args {
		w.expr(scope, arg, path)
	}
}

// accessorOf reports whether callee is the read accessor of a reactive name.
func accessorOf(scope *Scope, callee ast.Expr) (string, bool) {
	switch c := callee.(type) {
	case *ast.Ident:
		return c.Name, scope.readable(c.Name)
	case *ast.Member:
		if id, ok := c.Object.(*ast.Ident); ok && c.Property == "get" {
			return id.Name, scope.readable(id.Name)
		}
	}
	return "", false
}

func (w *walker) stmts(scope *Scope, stmts []ast.Stmt, path string) {
	for _, s := range stmts {
		w.stmt(scope, s, path)
	}
}

func (w *walker) stmt(scope *Scope, stmt ast.Stmt, path string) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		w.expr(scope, s.Init, path)
		if !scope.Declare(s.Name, ast.Plain) {
			w.fail(path, "%s redeclared", s.Name)
		}

	case *ast.ExprStmt:
		w.expr(scope, s.Expr, path)

	case *ast.Return:
		w.expr(scope, s.Value, path)

	case *ast.IfStmt:
		w.expr(scope, s.Cond, path)
		w.stmts(NewScope(scope), s.Then, path)
		w.stmts(NewScope(scope), s.Else, path)

	case *ast.Block:
		w.stmts(NewScope(scope), s.Body, path)

	case *ast.FuncDecl:
		if !scope.Declare(s.Name, ast.Plain) {
			w.fail(path, "%s redeclared", s.Name)
		}
		inner := NewScope(scope)
		for _, p := range s.Params {
			inner.Declare(p, ast.Plain)
		}
		w.stmts(inner, s.Body, path)

	default:
		w.fail(path, "unsupported statement %T", stmt)
	}
}
