package extract

import "github.com/omnicraft/sig/ast"

// Scope resolves names to what they were declared as. Locals shadow
// reactive names of enclosing scopes.
type Scope struct {
	parent  *Scope
	symbols map[string]ast.Reactive
}

func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, symbols: make(map[string]ast.Reactive)}
}

// Declare adds name to this scope. Redeclaring a reactive name in the same
// scope is refused.
func (s *Scope) Declare(name string, kind ast.Reactive) bool {
	if prev, ok := s.symbols[name]; ok && (prev != ast.Plain || kind != ast.Plain) {
		return false
	}
	s.symbols[name] = kind
	return true
}

// Lookup returns the kind of the nearest declaration of name.
func (s *Scope) Lookup(name string) (ast.Reactive, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if kind, ok := scope.symbols[name]; ok {
			return kind, true
		}
	}
	return ast.Plain, false
}

// readable reports whether name resolves to a signal or memo accessor.
func (s *Scope) readable(name string) bool {
	kind, _ := s.Lookup(name)
	return kind == ast.Signal || kind == ast.Memo
}
