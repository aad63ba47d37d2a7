package binding

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/omnicraft/sig"
	"github.com/omnicraft/sig/ast"
)

// ErrUndefined is returned for names no scope defines.
var ErrUndefined = errors.New("undefined")

// Eval evaluates expr in e. Reads of reactive handles are tracked by the
// running effect or computed, if any.
func (e *Env) Eval(expr ast.Expr) (any, error) {
	switch x := expr.(type) {
	case nil:
		return nil, nil

	case *ast.Literal:
		return x.Value, nil

	case *ast.Ident:
		v, ok := e.Lookup(x.Name)
		if !ok {
			return nil, fmt.Errorf("%s: %w", x.Name, ErrUndefined)
		}
		return v, nil

	case *ast.Binary:
		return e.binary(x)

	case *ast.Unary:
		v, err := e.Eval(x.Operand)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case "!":
			return !Truthy(v), nil
		case "-":
			n, ok := toNumber(v)
			if !ok {
				return nil, fmt.Errorf("cannot negate %s", typeName(v))
			}
			return -n, nil
		}
		return nil, fmt.Errorf("unknown unary operator %q", x.Op)

	case *ast.Call:
		return e.call(x)

	case *ast.Member:
		obj, err := e.Eval(x.Object)
		if err != nil {
			return nil, err
		}
		return member(obj, x.Property)

	case *ast.Index:
		obj, err := e.Eval(x.Object)
		if err != nil {
			return nil, err
		}
		index, err := e.Eval(x.Index)
		if err != nil {
			return nil, err
		}
		return indexOf(obj, index)

	case *ast.Arrow:
		return e.arrow(x), nil

	case *ast.Ternary:
		cond, err := e.Eval(x.Cond)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return e.Eval(x.Then)
		}
		return e.Eval(x.Else)

	case *ast.Template:
		var b strings.Builder
		for _, part := range x.Parts {
			if part.Expr == nil {
				b.WriteString(part.Text)
				continue
			}
			v, err := e.Eval(part.Expr)
			if err != nil {
				return nil, err
			}
			b.WriteString(Stringify(v))
		}
		return b.String(), nil

	case *ast.Array:
		items := make([]any, 0, len(x.Items))
		for _, item := range x.Items {
			v, err := e.Eval(item)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil

	case *ast.Object:
		obj := make(map[string]any, len(x.Fields))
		for _, f := range x.Fields {
			v, err := e.Eval(f.Value)
			if err != nil {
				return nil, err
			}
			obj[f.Key] = v
		}
		return obj, nil
	}

	return nil, fmt.Errorf("unsupported expression %T", expr)
}

func (e *Env) binary(x *ast.Binary) (any, error) {
	left, err := e.Eval(x.Left)
	if err != nil {
		return nil, err
	}

	switch x.Op {
	case "&&":
		if !Truthy(left) {
			return left, nil
		}
		return e.Eval(x.Right)
	case "||":
		if Truthy(left) {
			return left, nil
		}
		return e.Eval(x.Right)
	}

	right, err := e.Eval(x.Right)
	if err != nil {
		return nil, err
	}

	switch x.Op {
	case "==", "===":
		return equal(left, right), nil
	case "!=", "!==":
		return !equal(left, right), nil
	case "+":
		_, ls := left.(string)
		_, rs := right.(string)
		if ls || rs {
			return Stringify(left) + Stringify(right), nil
		}
	}

	if ls, ok := left.(string); ok {
		if rs, ok := right.(string); ok {
			switch x.Op {
			case "<":
				return ls < rs, nil
			case ">":
				return ls > rs, nil
			case "<=":
				return ls <= rs, nil
			case ">=":
				return ls >= rs, nil
			}
		}
	}

	l, lok := toNumber(left)
	r, rok := toNumber(right)
	if !lok || !rok {
		return nil, fmt.Errorf("cannot apply %s to %s and %s", x.Op, typeName(left), typeName(right))
	}

	switch x.Op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		return l / r, nil
	case "%":
		return math.Mod(l, r), nil
	case "<":
		return l < r, nil
	case ">":
		return l > r, nil
	case "<=":
		return l <= r, nil
	case ">=":
		return l >= r, nil
	}

	return nil, fmt.Errorf("unknown binary operator %q", x.Op)
}

// disposer is any reactive handle: signals, computeds and effects.
type disposer interface {
	Dispose()
}

// call evaluates s(), s.get(), s.set(v), s.update(fn), h.dispose() and plain calls.
func (e *Env) call(x *ast.Call) (any, error) {
	if m, ok := x.Callee.(*ast.Member); ok {
		obj, err := e.Eval(m.Object)
		if err != nil {
			return nil, err
		}

		if d, ok := obj.(disposer); ok && m.Property == "dispose" {
			if len(x.Args) > 0 {
				return nil, fmt.Errorf("dispose takes no arguments")
			}
			d.Dispose()
			return nil, nil
		}

		if r, ok := obj.(sig.Reader); ok {
			args, err := e.args(x.Args)
			if err != nil {
				return nil, err
			}
			return e.reactive(r, m.Property, args)
		}
	}

	callee, err := e.Eval(x.Callee)
	if err != nil {
		return nil, err
	}
	args, err := e.args(x.Args)
	if err != nil {
		return nil, err
	}

	switch fn := callee.(type) {
	case sig.Reader:
		if len(args) > 0 {
			return nil, fmt.Errorf("accessor called with arguments")
		}
		return fn.GetAny()
	case Func:
		return fn(args...)
	}

	return nil, fmt.Errorf("%s is not callable", typeName(callee))
}

func (e *Env) reactive(r sig.Reader, method string, args []any) (any, error) {
	switch method {
	case "get":
		return r.GetAny()
	case "peek":
		var err error
		v := sig.Untrack(e.rt, func() any {
			v, getErr := r.GetAny()
			err = getErr
			return v
		})
		return v, err
	}

	w, ok := r.(sig.Writer)
	if !ok {
		return nil, fmt.Errorf("%s is read-only", e.rt.Label(r.ID()))
	}

	switch method {
	case "set":
		if len(args) != 1 {
			return nil, fmt.Errorf("set takes one argument")
		}
		return nil, w.SetAny(args[0])

	case "update":
		if len(args) != 1 {
			return nil, fmt.Errorf("update takes one argument")
		}
		fn, ok := args[0].(Func)
		if !ok {
			return nil, fmt.Errorf("update expects a function, got %s", typeName(args[0]))
		}

		var next any
		var err error
		sig.Untrack(e.rt, func() struct{} {
			var cur any
			if cur, err = w.GetAny(); err == nil {
				next, err = fn(cur)
			}
			return struct{}{}
		})
		if err != nil {
			return nil, err
		}
		return nil, w.SetAny(next)
	}

	return nil, fmt.Errorf("unknown method %s", method)
}

func (e *Env) args(exprs []ast.Expr) ([]any, error) {
	args := make([]any, 0, len(exprs))
	for _, a := range exprs {
		v, err := e.Eval(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

func (e *Env) arrow(x *ast.Arrow) Func {
	return func(args ...any) (any, error) {
		scope := e.Child()
		for i, p := range x.Params {
			var v any
			if i < len(args) {
				v = args[i]
			}
			scope.Define(p, v)
		}

		if x.Block == nil {
			return scope.Eval(x.Body)
		}

		res, err := scope.execAll(x.Block)
		return res.value, err
	}
}

type result struct {
	value    any
	returned bool
}

func (e *Env) execAll(stmts []ast.Stmt) (result, error) {
	for _, s := range stmts {
		res, err := e.exec(s)
		if err != nil || res.returned {
			return res, err
		}
	}
	return result{}, nil
}

func (e *Env) exec(stmt ast.Stmt) (result, error) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		v, err := e.Eval(s.Init)
		if err != nil {
			return result{}, err
		}
		e.Define(s.Name, v)

	case *ast.ExprStmt:
		_, err := e.Eval(s.Expr)
		return result{}, err

	case *ast.Return:
		v, err := e.Eval(s.Value)
		return result{value: v, returned: true}, err

	case *ast.IfStmt:
		cond, err := e.Eval(s.Cond)
		if err != nil {
			return result{}, err
		}
		if Truthy(cond) {
			return e.Child().execAll(s.Then)
		}
		return e.Child().execAll(s.Else)

	case *ast.Block:
		return e.Child().execAll(s.Body)

	case *ast.FuncDecl:
		body := s.Body
		if body == nil {
			body = []ast.Stmt{}
		}
		e.Define(s.Name, e.arrow(&ast.Arrow{Params: s.Params, Block: body}))

	default:
		return result{}, fmt.Errorf("unsupported statement %T", stmt)
	}

	return result{}, nil
}

func member(obj any, prop string) (any, error) {
	switch o := obj.(type) {
	case map[string]any:
		return o[prop], nil
	case []any:
		if prop == "length" {
			return float64(len(o)), nil
		}
	case string:
		if prop == "length" {
			return float64(len(o)), nil
		}
	}
	return nil, fmt.Errorf("%s has no property %s", typeName(obj), prop)
}

func indexOf(obj, index any) (any, error) {
	switch o := obj.(type) {
	case []any:
		n, ok := toNumber(index)
		if !ok || n < 0 || int(n) >= len(o) {
			return nil, nil
		}
		return o[int(n)], nil
	case map[string]any:
		return o[Stringify(index)], nil
	}
	return nil, fmt.Errorf("cannot index %s", typeName(obj))
}

// Truthy follows the usual script rules: false, 0, NaN, "" and nil are false.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if n, ok := toNumber(v); ok {
		return n != 0 && !math.IsNaN(n)
	}
	return true
}

// Stringify renders a value the way templates show it.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	}
	if n, ok := toNumber(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func toNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case nil, bool, string:
		return 0, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func equal(a, b any) bool {
	if an, ok := toNumber(a); ok {
		bn, ok := toNumber(b)
		return ok && an == bn
	}

	switch a.(type) {
	case nil, bool, string:
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case float64:
		return "number"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case Func:
		return "function"
	}
	return fmt.Sprintf("%T", v)
}
