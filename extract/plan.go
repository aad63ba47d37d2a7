package extract

import (
	"errors"
	"fmt"

	"github.com/omnicraft/sig/ast"
)

type BindingKind int

const (
	BindElement BindingKind = iota
	BindText
	BindExpr
	BindIf
	BindEach
)

func (k BindingKind) String() string {
	switch k {
	case BindElement:
		return "element"
	case BindText:
		return "text"
	case BindExpr:
		return "expr"
	case BindIf:
		return "if"
	case BindEach:
		return "each"
	}
	return fmt.Sprintf("BindingKind(%d)", int(k))
}

// Binding is one template node with the reads of its dynamic parts.
type Binding struct {
	Kind BindingKind
	Path string

	// element
	Tag      string
	Attrs    []AttrBinding
	Events   []EventBinding
	Children []*Binding

	// text and expr
	Expr ast.Expr
	Deps DepSet

	// if and each
	Region *Region
}

// Dynamic reports whether the binding needs an effect of its own.
func (b *Binding) Dynamic() bool {
	return !b.Deps.Empty()
}

type AttrBinding struct {
	Name   string
	Static any
	Expr   ast.Expr
	Deps   DepSet
}

// Dynamic reports whether the attribute must be re-applied on change.
func (a AttrBinding) Dynamic() bool {
	return a.Expr != nil && !a.Deps.Empty()
}

// EventBinding is an on:<event> handler. Handlers run untracked, so Deps
// is informational.
type EventBinding struct {
	Event   string
	Handler ast.Expr
	Deps    DepSet
}

// Region is the dependency partition of a structural block: the condition
// (or list source) reads are separate from the reads of each branch body.
type Region struct {
	Kind BindingKind

	Cond      ast.Expr
	Condition DepSet
	Then      []*Binding
	Else      []*Binding

	Source     ast.Expr
	SourceDeps DepSet
	Item       string
	Index      string
	Body       []*Binding
}

// Plan is the static analysis of one component.
type Plan struct {
	Component string
	Script    []ast.Stmt
	Symbols   map[string]ast.Reactive
	Bindings  []*Binding
	Graph     *Graph
	Order     []string
}

// Component analyzes c. All errors found are returned joined; any error
// makes the plan unusable.
func (e *Extractor) Component(c *ast.Component) (*Plan, error) {
	p := &Plan{
		Component: c.Name,
		Script:    c.Script,
		Symbols:   make(map[string]ast.Reactive),
		Graph:     NewGraph(),
	}
	w := &walker{}
	root := NewScope(nil)

	// reactive names are visible to every declaration, whatever the order
	for i, stmt := range c.Script {
		decl, ok := stmt.(*ast.VarDecl)
		if !ok || decl.Reactive == ast.Plain {
			continue
		}

		if !root.Declare(decl.Name, decl.Reactive) {
			w.fail(fmt.Sprintf("script[%d]", i), "reactive %s redeclared", decl.Name)
			continue
		}
		p.Symbols[decl.Name] = decl.Reactive

		if decl.Reactive == ast.Signal || decl.Reactive == ast.Memo {
			p.Graph.AddSource(decl.Name)
		}
	}

	for i, stmt := range c.Script {
		path := fmt.Sprintf("script[%d]", i)

		decl, ok := stmt.(*ast.VarDecl)
		if !ok {
			w.stmt(root, stmt, path)
			continue
		}

		if decl.Reactive == ast.Plain {
			w.expr(root, decl.Init, path)
			if !root.Declare(decl.Name, ast.Plain) {
				w.fail(path, "%s redeclared", decl.Name)
			}
			p.Symbols[decl.Name] = ast.Plain
			continue
		}

		deps := w.sub(func(w *walker) { w.expr(root, decl.Init, path) })
		for _, dep := range deps.Names() {
			p.Graph.AddDependency(decl.Name, dep)
		}
	}

	p.Bindings = e.nodes(w, p.Graph, root, c.Template, "template")

	order, err := p.Graph.UpdateOrder()
	if err != nil {
		w.errs = append(w.errs, fmt.Errorf("%s: %w", c.Name, err))
	}
	p.Order = order

	if err := errors.Join(w.errs...); err != nil {
		return nil, err
	}

	if unused := p.Graph.Unused(); len(unused) > 0 {
		e.logger.Warn("unused reactive state", "component", c.Name, "names", unused)
	}

	return p, nil
}

// sub runs fn with a fresh read set and returns the reads fn made.
// Errors are kept on w.
func (w *walker) sub(fn func(w *walker)) DepSet {
	inner := &walker{}
	fn(inner)
	w.errs = append(w.errs, inner.errs...)
	return inner.deps
}

func (e *Extractor) nodes(w *walker, g *Graph, scope *Scope, nodes []ast.Node, path string) []*Binding {
	out := make([]*Binding, 0, len(nodes))
	for i, n := range nodes {
		if b := e.node(w, g, scope, n, fmt.Sprintf("%s[%d]", path, i)); b != nil {
			out = append(out, b)
		}
	}
	return out
}

func (e *Extractor) node(w *walker, g *Graph, scope *Scope, node ast.Node, path string) *Binding {
	consume := func(consumer string, deps DepSet) {
		for _, dep := range deps.Names() {
			g.AddDependency(consumer, dep)
		}
	}

	switch n := node.(type) {
	case *ast.Element:
		b := &Binding{Kind: BindElement, Path: path, Tag: n.Tag}

		for _, a := range n.Attrs {
			attr := AttrBinding{Name: a.Name, Static: a.Static, Expr: a.Value}
			if a.Dynamic() {
				attrPath := path + "." + a.Name
				attr.Deps = w.sub(func(w *walker) { w.expr(scope, a.Value, attrPath) })
				consume(attrPath, attr.Deps)
			}
			b.Attrs = append(b.Attrs, attr)
		}

		for _, d := range n.Directives {
			dirPath := path + "." + d.Name + ":" + d.Arg
			if d.Name != "on" {
				w.fail(dirPath, "unknown directive %s", d.Name)
				continue
			}
			deps := w.sub(func(w *walker) { w.expr(scope, d.Value, dirPath) })
			b.Events = append(b.Events, EventBinding{Event: d.Arg, Handler: d.Value, Deps: deps})
		}

		b.Children = e.nodes(w, g, scope, n.Children, path+".children")
		return b

	case *ast.Text:
		b := &Binding{Kind: BindText, Path: path, Expr: n.Content}
		b.Deps = w.sub(func(w *walker) { w.expr(scope, n.Content, path) })
		consume(path, b.Deps)
		return b

	case *ast.ExprNode:
		b := &Binding{Kind: BindExpr, Path: path, Expr: n.Expr}
		b.Deps = w.sub(func(w *walker) { w.expr(scope, n.Expr, path) })
		consume(path, b.Deps)
		return b

	case *ast.IfBlock:
		r := &Region{Kind: BindIf, Cond: n.Cond}
		r.Condition = w.sub(func(w *walker) { w.expr(scope, n.Cond, path) })
		consume(path, r.Condition)

		r.Then = e.nodes(w, g, NewScope(scope), n.Then, path+".then")
		r.Else = e.nodes(w, g, NewScope(scope), n.Else, path+".else")
		return &Binding{Kind: BindIf, Path: path, Region: r}

	case *ast.EachBlock:
		if n.Item == "" {
			w.fail(path, "each block without an item binding")
			return nil
		}

		r := &Region{Kind: BindEach, Source: n.Source, Item: n.Item, Index: n.Index}
		r.SourceDeps = w.sub(func(w *walker) { w.expr(scope, n.Source, path) })
		consume(path, r.SourceDeps)

		body := NewScope(scope)
		body.Declare(n.Item, ast.Plain)
		if n.Index != "" {
			body.Declare(n.Index, ast.Plain)
		}
		r.Body = e.nodes(w, g, body, n.Body, path+".body")
		return &Binding{Kind: BindEach, Path: path, Region: r}
	}

	w.fail(path, "unsupported node %T", node)
	return nil
}
