// Package ast is the in-process tree handed over by the component parser:
// script statements, expressions and template nodes.
package ast

// Expr is an expression node.
type Expr interface {
	exprNode()
}

type (
	Ident struct {
		Name string
	}

	// Literal holds a string, float64, bool or nil.
	Literal struct {
		Value any
	}

	Binary struct {
		Op    string
		Left  Expr
		Right Expr
	}

	Unary struct {
		Op      string
		Operand Expr
	}

	Call struct {
		Callee Expr
		Args   []Expr
	}

	Member struct {
		Object   Expr
		Property string
	}

	Index struct {
		Object Expr
		Index  Expr
	}

	// Arrow is a function literal. Exactly one of Body and Block is set.
	Arrow struct {
		Params []string
		Body   Expr
		Block  []Stmt
	}

	Ternary struct {
		Cond Expr
		Then Expr
		Else Expr
	}

	Template struct {
		Parts []TemplatePart
	}

	Array struct {
		Items []Expr
	}

	Object struct {
		Fields []Field
	}
)

// TemplatePart is either literal text or an interpolated expression.
type TemplatePart struct {
	Text string
	Expr Expr
}

type Field struct {
	Key   string
	Value Expr
}

func (*Ident) exprNode()    {}
func (*Literal) exprNode()  {}
func (*Binary) exprNode()   {}
func (*Unary) exprNode()    {}
func (*Call) exprNode()     {}
func (*Member) exprNode()   {}
func (*Index) exprNode()    {}
func (*Arrow) exprNode()    {}
func (*Ternary) exprNode()  {}
func (*Template) exprNode() {}
func (*Array) exprNode()    {}
func (*Object) exprNode()   {}

// Reactive classifies what a declaration creates.
type Reactive string

const (
	Plain  Reactive = ""
	Signal Reactive = "signal"
	Memo   Reactive = "memo"
	Effect Reactive = "effect"
)

// Stmt is a script statement.
type Stmt interface {
	stmtNode()
}

type (
	// VarDecl declares Name. For reactive declarations Init is the initial
	// value (signal) or the arrow computing the value (memo, effect).
	VarDecl struct {
		Const    bool
		Name     string
		Init     Expr
		Reactive Reactive
	}

	ExprStmt struct {
		Expr Expr
	}

	Return struct {
		Value Expr
	}

	IfStmt struct {
		Cond Expr
		Then []Stmt
		Else []Stmt
	}

	Block struct {
		Body []Stmt
	}

	// FuncDecl declares a named function.
	FuncDecl struct {
		Name   string
		Params []string
		Body   []Stmt
	}
)

func (*VarDecl) stmtNode()  {}
func (*ExprStmt) stmtNode() {}
func (*Return) stmtNode()   {}
func (*IfStmt) stmtNode()   {}
func (*Block) stmtNode()    {}
func (*FuncDecl) stmtNode() {}

// Node is a template node.
type Node interface {
	templateNode()
}

type (
	Element struct {
		Tag        string
		Attrs      []Attr
		Directives []Directive
		Children   []Node
	}

	// Text renders Content as a text entity.
	Text struct {
		Content Expr
	}

	// ExprNode renders the value of an inline expression.
	ExprNode struct {
		Expr Expr
	}

	IfBlock struct {
		Cond Expr
		Then []Node
		Else []Node
	}

	// EachBlock renders Body once per item of Source, with Item and the
	// optional Index bound as locals.
	EachBlock struct {
		Source Expr
		Item   string
		Index  string
		Body   []Node
	}
)

func (*Element) templateNode()   {}
func (*Text) templateNode()      {}
func (*ExprNode) templateNode()  {}
func (*IfBlock) templateNode()   {}
func (*EachBlock) templateNode() {}

// Attr is a static attribute when Value is nil, dynamic otherwise.
type Attr struct {
	Name   string
	Static any
	Value  Expr
}

func (a Attr) Dynamic() bool {
	return a.Value != nil
}

// Directive is a prefixed attribute such as on:click.
type Directive struct {
	Name  string
	Arg   string
	Value Expr
}

type Component struct {
	Name     string
	Script   []Stmt
	Template []Node
}
