package ast

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DecodeJSON reads a component in the kind-tagged serialization, e.g.
//
//	{"name": "Counter",
//	 "script": [{"kind": "signal", "name": "count", "init": 0}],
//	 "template": [{"kind": "text", "content": {"kind": "call", "callee": {"kind": "ident", "name": "count"}}}]}
//
// Scalars in expression position are literals.
func DecodeJSON(data []byte) (*Component, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return decodeComponent(raw)
}

// DecodeYAML reads the same serialization as DecodeJSON written as YAML.
func DecodeYAML(data []byte) (*Component, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return decodeComponent(raw)
}

func decodeComponent(raw map[string]any) (*Component, error) {
	c := &Component{}

	name, err := str(raw, "name", "")
	if err != nil {
		return nil, err
	}
	c.Name = name

	if c.Script, err = stmts("script", raw["script"]); err != nil {
		return nil, err
	}
	if c.Template, err = nodes("template", raw["template"]); err != nil {
		return nil, err
	}

	return c, nil
}

func object(path string, v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected an object, got %T", path, v)
	}
	return m, nil
}

func list(path string, v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	l, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a list, got %T", path, v)
	}
	return l, nil
}

func str(m map[string]any, key, path string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s.%s: expected a string, got %T", path, key, v)
	}
	return s, nil
}

func kindOf(path string, m map[string]any) (string, error) {
	kind, err := str(m, "kind", path)
	if err != nil {
		return "", err
	}
	if kind == "" {
		return "", fmt.Errorf("%s: missing kind", path)
	}
	return kind, nil
}

// scalar normalizes numbers to float64.
func scalar(v any) (any, bool) {
	switch v := v.(type) {
	case nil, string, bool, float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	}
	return nil, false
}

func expr(path string, v any) (Expr, error) {
	if lit, ok := scalar(v); ok {
		return &Literal{Value: lit}, nil
	}

	m, err := object(path, v)
	if err != nil {
		return nil, err
	}
	kind, err := kindOf(path, m)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "ident":
		name, err := str(m, "name", path)
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, fmt.Errorf("%s: ident without name", path)
		}
		return &Ident{Name: name}, nil

	case "lit":
		lit, ok := scalar(m["value"])
		if !ok {
			return nil, fmt.Errorf("%s.value: expected a scalar, got %T", path, m["value"])
		}
		return &Literal{Value: lit}, nil

	case "binary":
		op, err := str(m, "op", path)
		if err != nil {
			return nil, err
		}
		left, err := expr(path+".left", m["left"])
		if err != nil {
			return nil, err
		}
		right, err := expr(path+".right", m["right"])
		if err != nil {
			return nil, err
		}
		return &Binary{Op: op, Left: left, Right: right}, nil

	case "unary":
		op, err := str(m, "op", path)
		if err != nil {
			return nil, err
		}
		operand, err := expr(path+".operand", m["operand"])
		if err != nil {
			return nil, err
		}
		return &Unary{Op: op, Operand: operand}, nil

	case "call":
		callee, err := expr(path+".callee", m["callee"])
		if err != nil {
			return nil, err
		}
		args, err := exprs(path+".args", m["args"])
		if err != nil {
			return nil, err
		}
		return &Call{Callee: callee, Args: args}, nil

	case "member":
		obj, err := expr(path+".object", m["object"])
		if err != nil {
			return nil, err
		}
		prop, err := str(m, "property", path)
		if err != nil {
			return nil, err
		}
		return &Member{Object: obj, Property: prop}, nil

	case "index":
		obj, err := expr(path+".object", m["object"])
		if err != nil {
			return nil, err
		}
		index, err := expr(path+".index", m["index"])
		if err != nil {
			return nil, err
		}
		return &Index{Object: obj, Index: index}, nil

	case "arrow":
		return arrow(path, m)

	case "ternary":
		cond, err := expr(path+".cond", m["cond"])
		if err != nil {
			return nil, err
		}
		then, err := expr(path+".then", m["then"])
		if err != nil {
			return nil, err
		}
		els, err := expr(path+".else", m["else"])
		if err != nil {
			return nil, err
		}
		return &Ternary{Cond: cond, Then: then, Else: els}, nil

	case "template":
		raw, err := list(path+".parts", m["parts"])
		if err != nil {
			return nil, err
		}
		t := &Template{}
		for i, p := range raw {
			partPath := fmt.Sprintf("%s.parts[%d]", path, i)
			if s, ok := p.(string); ok {
				t.Parts = append(t.Parts, TemplatePart{Text: s})
				continue
			}
			e, err := expr(partPath, p)
			if err != nil {
				return nil, err
			}
			t.Parts = append(t.Parts, TemplatePart{Expr: e})
		}
		return t, nil

	case "array":
		items, err := exprs(path+".items", m["items"])
		if err != nil {
			return nil, err
		}
		return &Array{Items: items}, nil

	case "object":
		raw, err := list(path+".fields", m["fields"])
		if err != nil {
			return nil, err
		}
		o := &Object{}
		for i, f := range raw {
			fieldPath := fmt.Sprintf("%s.fields[%d]", path, i)
			fm, err := object(fieldPath, f)
			if err != nil {
				return nil, err
			}
			key, err := str(fm, "key", fieldPath)
			if err != nil {
				return nil, err
			}
			value, err := expr(fieldPath+".value", fm["value"])
			if err != nil {
				return nil, err
			}
			o.Fields = append(o.Fields, Field{Key: key, Value: value})
		}
		return o, nil
	}

	return nil, fmt.Errorf("%s: unknown expression kind %q", path, kind)
}

func exprs(path string, v any) ([]Expr, error) {
	raw, err := list(path, v)
	if err != nil {
		return nil, err
	}

	out := make([]Expr, 0, len(raw))
	for i, item := range raw {
		e, err := expr(fmt.Sprintf("%s[%d]", path, i), item)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func arrow(path string, m map[string]any) (*Arrow, error) {
	params, err := list(path+".params", m["params"])
	if err != nil {
		return nil, err
	}

	a := &Arrow{}
	for i, p := range params {
		name, ok := p.(string)
		if !ok {
			return nil, fmt.Errorf("%s.params[%d]: expected a string, got %T", path, i, p)
		}
		a.Params = append(a.Params, name)
	}

	if block, ok := m["block"]; ok {
		if a.Block, err = stmts(path+".block", block); err != nil {
			return nil, err
		}
		return a, nil
	}

	if a.Body, err = expr(path+".body", m["body"]); err != nil {
		return nil, err
	}
	return a, nil
}

func stmts(path string, v any) ([]Stmt, error) {
	raw, err := list(path, v)
	if err != nil {
		return nil, err
	}

	out := make([]Stmt, 0, len(raw))
	for i, item := range raw {
		s, err := stmt(fmt.Sprintf("%s[%d]", path, i), item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func stmt(path string, v any) (Stmt, error) {
	m, err := object(path, v)
	if err != nil {
		return nil, err
	}
	kind, err := kindOf(path, m)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "const", "let", "signal", "memo", "effect":
		name, err := str(m, "name", path)
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, fmt.Errorf("%s: declaration without name", path)
		}

		decl := &VarDecl{Name: name, Const: kind != "let"}
		switch kind {
		case "signal":
			decl.Reactive = Signal
		case "memo":
			decl.Reactive = Memo
		case "effect":
			decl.Reactive = Effect
		}

		if init, ok := m["init"]; ok {
			if decl.Init, err = expr(path+".init", init); err != nil {
				return nil, err
			}
		}
		return decl, nil

	case "expr":
		e, err := expr(path+".expr", m["expr"])
		if err != nil {
			return nil, err
		}
		return &ExprStmt{Expr: e}, nil

	case "return":
		r := &Return{}
		if value, ok := m["value"]; ok {
			if r.Value, err = expr(path+".value", value); err != nil {
				return nil, err
			}
		}
		return r, nil

	case "if":
		cond, err := expr(path+".cond", m["cond"])
		if err != nil {
			return nil, err
		}
		then, err := stmts(path+".then", m["then"])
		if err != nil {
			return nil, err
		}
		els, err := stmts(path+".else", m["else"])
		if err != nil {
			return nil, err
		}
		return &IfStmt{Cond: cond, Then: then, Else: els}, nil

	case "block":
		body, err := stmts(path+".body", m["body"])
		if err != nil {
			return nil, err
		}
		return &Block{Body: body}, nil

	case "function":
		name, err := str(m, "name", path)
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, fmt.Errorf("%s: function without name", path)
		}
		fn, err := arrow(path, map[string]any{"params": m["params"], "block": m["body"]})
		if err != nil {
			return nil, err
		}
		return &FuncDecl{Name: name, Params: fn.Params, Body: fn.Block}, nil
	}

	return nil, fmt.Errorf("%s: unknown statement kind %q", path, kind)
}

func nodes(path string, v any) ([]Node, error) {
	raw, err := list(path, v)
	if err != nil {
		return nil, err
	}

	out := make([]Node, 0, len(raw))
	for i, item := range raw {
		n, err := node(fmt.Sprintf("%s[%d]", path, i), item)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func node(path string, v any) (Node, error) {
	m, err := object(path, v)
	if err != nil {
		return nil, err
	}
	kind, err := kindOf(path, m)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "element":
		return element(path, m)

	case "text":
		content, err := expr(path+".content", m["content"])
		if err != nil {
			return nil, err
		}
		return &Text{Content: content}, nil

	case "expr":
		e, err := expr(path+".expr", m["expr"])
		if err != nil {
			return nil, err
		}
		return &ExprNode{Expr: e}, nil

	case "if":
		cond, err := expr(path+".cond", m["cond"])
		if err != nil {
			return nil, err
		}
		then, err := nodes(path+".then", m["then"])
		if err != nil {
			return nil, err
		}
		els, err := nodes(path+".else", m["else"])
		if err != nil {
			return nil, err
		}
		return &IfBlock{Cond: cond, Then: then, Else: els}, nil

	case "each":
		source, err := expr(path+".source", m["source"])
		if err != nil {
			return nil, err
		}
		item, err := str(m, "item", path)
		if err != nil {
			return nil, err
		}
		index, err := str(m, "index", path)
		if err != nil {
			return nil, err
		}
		body, err := nodes(path+".body", m["body"])
		if err != nil {
			return nil, err
		}
		return &EachBlock{Source: source, Item: item, Index: index, Body: body}, nil
	}

	return nil, fmt.Errorf("%s: unknown node kind %q", path, kind)
}

func element(path string, m map[string]any) (*Element, error) {
	tag, err := str(m, "tag", path)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return nil, fmt.Errorf("%s: element without tag", path)
	}
	el := &Element{Tag: tag}

	attrs, err := list(path+".attrs", m["attrs"])
	if err != nil {
		return nil, err
	}
	for i, a := range attrs {
		attrPath := fmt.Sprintf("%s.attrs[%d]", path, i)
		am, err := object(attrPath, a)
		if err != nil {
			return nil, err
		}
		name, err := str(am, "name", attrPath)
		if err != nil {
			return nil, err
		}

		attr := Attr{Name: name}
		if value, ok := am["value"]; ok {
			if attr.Value, err = expr(attrPath+".value", value); err != nil {
				return nil, err
			}
		} else {
			static, ok := scalar(am["static"])
			if !ok {
				return nil, fmt.Errorf("%s.static: expected a scalar, got %T", attrPath, am["static"])
			}
			attr.Static = static
		}
		el.Attrs = append(el.Attrs, attr)
	}

	directives, err := list(path+".directives", m["directives"])
	if err != nil {
		return nil, err
	}
	for i, d := range directives {
		dirPath := fmt.Sprintf("%s.directives[%d]", path, i)
		dm, err := object(dirPath, d)
		if err != nil {
			return nil, err
		}
		name, err := str(dm, "name", dirPath)
		if err != nil {
			return nil, err
		}
		arg, err := str(dm, "arg", dirPath)
		if err != nil {
			return nil, err
		}
		value, err := expr(dirPath+".value", dm["value"])
		if err != nil {
			return nil, err
		}
		el.Directives = append(el.Directives, Directive{Name: name, Arg: arg, Value: value})
	}

	if el.Children, err = nodes(path+".children", m["children"]); err != nil {
		return nil, err
	}

	return el, nil
}
