package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterYAML = `
name: Counter
script:
  - kind: signal
    name: count
    init: 0
  - kind: memo
    name: doubled
    init:
      kind: arrow
      body:
        kind: binary
        op: "*"
        left: {kind: call, callee: {kind: ident, name: count}}
        right: 2
  - kind: const
    name: increment
    init:
      kind: arrow
      block:
        - kind: expr
          expr:
            kind: call
            callee: {kind: member, object: {kind: ident, name: count}, property: update}
            args:
              - kind: arrow
                params: [n]
                body: {kind: binary, op: "+", left: {kind: ident, name: n}, right: 1}
template:
  - kind: element
    tag: circle
    attrs:
      - {name: fill, static: red}
      - name: r
        value: {kind: call, callee: {kind: ident, name: doubled}}
    directives:
      - {name: on, arg: click, value: {kind: ident, name: increment}}
  - kind: if
    cond: {kind: binary, op: ">", left: {kind: call, callee: {kind: ident, name: count}}, right: 3}
    then:
      - kind: text
        content:
          kind: template
          parts: ["big ", {kind: call, callee: {kind: ident, name: count}}]
  - kind: each
    source: {kind: array, items: [1, 2]}
    item: x
    index: i
    body:
      - {kind: expr, expr: {kind: ident, name: x}}
`

func TestDecode(t *testing.T) {
	t.Run("yaml component", func(t *testing.T) {
		c, err := DecodeYAML([]byte(counterYAML))
		require.NoError(t, err)

		assert.Equal(t, "Counter", c.Name)
		require.Len(t, c.Script, 3)
		require.Len(t, c.Template, 3)

		count := c.Script[0].(*VarDecl)
		assert.Equal(t, Signal, count.Reactive)
		assert.Equal(t, &Literal{Value: 0.0}, count.Init)

		doubled := c.Script[1].(*VarDecl)
		assert.Equal(t, Memo, doubled.Reactive)
		body := doubled.Init.(*Arrow).Body.(*Binary)
		assert.Equal(t, "*", body.Op)
		assert.Equal(t, &Call{Callee: &Ident{Name: "count"}, Args: []Expr{}}, body.Left)

		increment := c.Script[2].(*VarDecl)
		assert.Equal(t, Plain, increment.Reactive)
		assert.True(t, increment.Const)
		assert.Len(t, increment.Init.(*Arrow).Block, 1)

		circle := c.Template[0].(*Element)
		assert.Equal(t, "circle", circle.Tag)
		assert.False(t, circle.Attrs[0].Dynamic())
		assert.Equal(t, "red", circle.Attrs[0].Static)
		assert.True(t, circle.Attrs[1].Dynamic())
		assert.Equal(t, Directive{Name: "on", Arg: "click", Value: &Ident{Name: "increment"}}, circle.Directives[0])

		ifBlock := c.Template[1].(*IfBlock)
		parts := ifBlock.Then[0].(*Text).Content.(*Template).Parts
		assert.Equal(t, "big ", parts[0].Text)
		assert.NotNil(t, parts[1].Expr)

		each := c.Template[2].(*EachBlock)
		assert.Equal(t, "x", each.Item)
		assert.Equal(t, "i", each.Index)
	})

	t.Run("json component", func(t *testing.T) {
		c, err := DecodeJSON([]byte(`{
			"name": "Label",
			"script": [{"kind": "let", "name": "title", "init": "hello"}],
			"template": [{"kind": "text", "content": {"kind": "ident", "name": "title"}}]
		}`))
		require.NoError(t, err)

		decl := c.Script[0].(*VarDecl)
		assert.False(t, decl.Const)
		assert.Equal(t, &Literal{Value: "hello"}, decl.Init)
		assert.Equal(t, &Text{Content: &Ident{Name: "title"}}, c.Template[0])
	})

	t.Run("function declarations", func(t *testing.T) {
		c, err := DecodeYAML([]byte(`
name: Fn
script:
  - kind: function
    name: twice
    params: [n]
    body:
      - kind: return
        value: {kind: binary, op: "*", left: {kind: ident, name: n}, right: 2}
`))
		require.NoError(t, err)

		fn := c.Script[0].(*FuncDecl)
		assert.Equal(t, "twice", fn.Name)
		assert.Equal(t, []string{"n"}, fn.Params)
		require.Len(t, fn.Body, 1)
		assert.IsType(t, &Return{}, fn.Body[0])

		_, err = DecodeJSON([]byte(`{"script": [{"kind": "function", "body": []}]}`))
		assert.ErrorContains(t, err, "function without name")
	})

	t.Run("reports the path of a bad node", func(t *testing.T) {
		_, err := DecodeJSON([]byte(`{"template": [{"kind": "text", "content": {"kind": "nope"}}]}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "template[0].content")
		assert.Contains(t, err.Error(), `"nope"`)
	})

	t.Run("missing kind", func(t *testing.T) {
		_, err := DecodeYAML([]byte("script:\n  - name: x\n"))
		assert.ErrorContains(t, err, "missing kind")
	})
}
